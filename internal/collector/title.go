package collector

import (
	"context"
	"fmt"

	"bundlegen/internal/catalog"
)

// StatusEvent is one compacted entry of a journal's publication status
// history: a dense date plus a single-letter status code.
type StatusEvent struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// Title denormalizes journal records for the title bundle.
type Title struct {
	base
}

func NewTitle(client *catalog.Client, collection string) *Title {
	return &Title{base: newBase(client, "journals", collection)}
}

func (t *Title) Resource() string { return "title" }

func (t *Title) Collect(ctx context.Context, fn func(Record) error) error {
	return t.fetcher.Each(ctx, func(obj Record) error {
		rec, err := t.transform(ctx, obj)
		if err != nil {
			return fmt.Errorf("title record: %w", err)
		}
		return fn(rec)
	})
}

func (t *Title) transform(ctx context.Context, obj Record) (Record, error) {
	delete(obj, "collections")
	delete(obj, "issues")
	delete(obj, "resource_uri")

	if err := denseDateField(obj, "created"); err != nil {
		return nil, err
	}
	if err := denseDateField(obj, "updated"); err != nil {
		return nil, err
	}

	// creator reference -> username
	creatorRef, err := stringField(obj, "creator")
	if err != nil {
		return nil, err
	}
	userID, err := catalog.RefID(creatorRef)
	if err != nil {
		return nil, err
	}
	username, err := t.resolver.Resolve(ctx, "users", userID, "username")
	if err != nil {
		return nil, err
	}
	obj["creator"] = username

	// sponsor references -> names, source order kept
	rawSponsors, err := listField(obj, "sponsors")
	if err != nil {
		return nil, err
	}
	sponsors := make([]any, 0, len(rawSponsors))
	for _, ref := range rawSponsors {
		s, ok := ref.(string)
		if !ok {
			return nil, fmt.Errorf("sponsor reference is %T, want string", ref)
		}
		id, err := catalog.RefID(s)
		if err != nil {
			return nil, err
		}
		name, err := t.resolver.Resolve(ctx, "sponsors", id, "name")
		if err != nil {
			return nil, err
		}
		sponsors = append(sponsors, name)
	}
	obj["sponsors"] = sponsors

	history, err := compressStatusHistory(obj)
	if err != nil {
		return nil, err
	}
	obj["pub_status_history"] = history

	grouped, err := groupOtherTitles(obj)
	if err != nil {
		return nil, err
	}
	obj["other_titles"] = grouped

	return obj, nil
}

// compressStatusHistory packs the chronological status events into
// groups of at most two. The events are reversed, greedily grouped,
// then the group list is reversed back, so flattening the result in
// order reproduces the original event order.
func compressStatusHistory(obj Record) ([][]StatusEvent, error) {
	raw, err := listField(obj, "pub_status_history")
	if err != nil {
		return nil, err
	}

	groups := [][]StatusEvent{{}}
	for i := len(raw) - 1; i >= 0; i-- {
		event, ok := raw[i].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("status history entry is %T, want object", raw[i])
		}
		date, err := stringField(event, "date")
		if err != nil {
			return nil, fmt.Errorf("status history: %w", err)
		}
		status, err := stringField(event, "status")
		if err != nil {
			return nil, fmt.Errorf("status history: %w", err)
		}

		compact := StatusEvent{Date: denseDate(date), Status: statusCode(status)}
		last := len(groups) - 1
		if len(groups[last]) < 2 {
			groups[last] = append(groups[last], compact)
		} else {
			groups = append(groups, []StatusEvent{compact})
		}
	}

	for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
		groups[i], groups[j] = groups[j], groups[i]
	}
	return groups, nil
}

func statusCode(status string) string {
	switch status {
	case "current":
		return "C"
	case "deceased":
		return "D"
	case "suspended":
		return "S"
	default:
		return "?"
	}
}

// groupOtherTitles turns the [language, title] pair list into ordered
// per-language groups.
func groupOtherTitles(obj Record) ([]LangGroup, error) {
	raw, err := listField(obj, "other_titles")
	if err != nil {
		return nil, err
	}

	groups := make([]LangGroup, 0, len(raw))
	index := make(map[string]int)
	for _, entry := range raw {
		pair, ok := entry.([]any)
		if !ok || len(pair) < 2 {
			return nil, fmt.Errorf("other_titles entry %v is not a [language, title] pair", entry)
		}
		lang, ok1 := pair[0].(string)
		title, ok2 := pair[1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("other_titles entry %v is not a [language, title] pair", entry)
		}

		i, seen := index[lang]
		if !seen {
			i = len(groups)
			index[lang] = i
			groups = append(groups, LangGroup{Language: lang})
		}
		groups[i].Titles = append(groups[i].Titles, title)
	}
	return groups, nil
}
