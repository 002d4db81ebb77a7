package collector

import (
	"context"
	"fmt"

	"bundlegen/internal/catalog"
)

// journalFields is the fixed attribute set resolved for an issue's
// journal reference.
var journalFields = []string{
	"title",
	"short_title",
	"publisher_name",
	"publication_city",
	"sponsors",
	"print_issn",
	"electronic_issn",
	"scielo_issn",
	"resource_uri",
	"acronym",
	"title_iso",
	"use_license",
}

// monthAbbr holds the three-letter month abbreviations used in the
// display label, per language. The casing differences are part of the
// legacy format.
var monthAbbr = map[string][12]string{
	"pt": {"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"},
	"en": {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	"es": {"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"},
}

// displayLanguages fixes the label languages and their order of
// construction.
var displayLanguages = []string{"pt", "en", "es"}

// displayTags maps each optional fragment to its per-language literal
// tag prefix. The English spellings double a letter on some tags; that
// asymmetry is required by the downstream consumer and must not be
// normalized.
var displayTags = map[string]map[string]string{
	"short_title":  {"pt": "^t", "en": "^t", "es": "^t"},
	"volume":       {"pt": "^vvol.", "en": "^vvol.", "es": "^vvol."},
	"suppl_volume": {"pt": "^wsupl.", "en": "^wsuppl.", "es": "^wsupl."},
	"number":       {"pt": "^nno.", "en": "^nn.", "es": "^nno."},
	"suppl_number": {"pt": "^ssupl.", "en": "^ssuppl.", "es": "^ssupl."},
	"city":         {"pt": "^c", "en": "^c", "es": "^c"},
}

// SectionRef is one resolved section title inside an issue.
type SectionRef struct {
	Title      string `json:"title"`
	ResourceID string `json:"resource_id"`
	Code       string `json:"code"`
}

// SectionGroup groups an issue's section titles by language, in
// resolution order.
type SectionGroup struct {
	Language string       `json:"language"`
	Titles   []SectionRef `json:"titles"`
}

// Issue denormalizes issue records for the issue bundle. It carries the
// richest transformation: journal denormalization, section fan-out and
// the per-language tagged display label.
type Issue struct {
	base
}

func NewIssue(client *catalog.Client, collection string) *Issue {
	return &Issue{base: newBase(client, "issues", collection)}
}

func (i *Issue) Resource() string { return "issue" }

func (i *Issue) Collect(ctx context.Context, fn func(Record) error) error {
	return i.fetcher.Each(ctx, func(obj Record) error {
		rec, err := i.transform(ctx, obj)
		if err != nil {
			return fmt.Errorf("issue record: %w", err)
		}
		return fn(rec)
	})
}

func (i *Issue) transform(ctx context.Context, obj Record) (Record, error) {
	if err := denseDateField(obj, "created"); err != nil {
		return nil, err
	}
	if err := denseDateField(obj, "updated"); err != nil {
		return nil, err
	}

	// journal reference -> fixed attribute set
	journalRef, err := stringField(obj, "journal")
	if err != nil {
		return nil, err
	}
	journalID, err := catalog.RefID(journalRef)
	if err != nil {
		return nil, err
	}
	journal, err := i.resolver.ResolveFields(ctx, "journals", journalID, journalFields...)
	if err != nil {
		return nil, err
	}
	obj["journal"] = journal

	year, ok := intField(obj, "publication_year")
	if !ok {
		return nil, fmt.Errorf("record has no numeric field %q", "publication_year")
	}

	// publication date always carries 00 for the day digits
	endMonth, _ := intField(obj, "publication_end_month")
	monthPart := "00"
	if endMonth >= 1 && endMonth <= 12 {
		monthPart = fmt.Sprintf("%02d", endMonth)
	}
	obj["publication_date"] = fmt.Sprintf("%d%s00", year, monthPart)

	sections, err := i.fanOutSections(ctx, obj)
	if err != nil {
		return nil, err
	}
	obj["sections"] = sections

	obj["display"] = buildDisplayLabels(obj, journal, year)

	// keeps ordering monotonic across years for the legacy consumer
	order, ok := obj["order"]
	if !ok {
		return nil, fmt.Errorf("record has no field %q", "order")
	}
	obj["order"] = fmt.Sprintf("%d%s", year, numString(order))

	return obj, nil
}

// fanOutSections resolves every section reference and regroups the
// section titles by language, preserving resolution order.
func (i *Issue) fanOutSections(ctx context.Context, obj Record) ([]SectionGroup, error) {
	raw, err := listField(obj, "sections")
	if err != nil {
		return nil, err
	}

	groups := make([]SectionGroup, 0, len(raw))
	index := make(map[string]int)
	for _, ref := range raw {
		s, ok := ref.(string)
		if !ok {
			return nil, fmt.Errorf("section reference is %T, want string", ref)
		}
		sectionID, err := catalog.RefID(s)
		if err != nil {
			return nil, err
		}
		section, err := i.resolver.ResolveFields(ctx, "sections", sectionID, "resource_uri", "titles", "code")
		if err != nil {
			return nil, err
		}

		uri, err := stringField(section, "resource_uri")
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", sectionID, err)
		}
		resourceID, err := catalog.RefID(uri)
		if err != nil {
			return nil, err
		}
		code, _ := optString(section, "code")

		titles, err := listField(section, "titles")
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", sectionID, err)
		}
		for _, entry := range titles {
			pair, ok := entry.([]any)
			if !ok || len(pair) < 2 {
				return nil, fmt.Errorf("section %s title %v is not a [language, title] pair", sectionID, entry)
			}
			lang, ok1 := pair[0].(string)
			title, ok2 := pair[1].(string)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("section %s title %v is not a [language, title] pair", sectionID, entry)
			}

			g, seen := index[lang]
			if !seen {
				g = len(groups)
				index[lang] = g
				groups = append(groups, SectionGroup{Language: lang})
			}
			groups[g].Titles = append(groups[g].Titles, SectionRef{
				Title:      title,
				ResourceID: resourceID,
				Code:       code,
			})
		}
	}
	return groups, nil
}

// buildDisplayLabels synthesizes the tagged bibliographic label, one
// per supported language. Fragment order is fixed; a fragment is
// emitted only when its source value is non-empty.
func buildDisplayLabels(obj, journal Record, year int) map[string]string {
	display := make(map[string]string, len(displayLanguages))
	for _, lang := range displayLanguages {
		display[lang] = "^l" + lang
	}

	appendTagged := func(field string, value string, present bool) {
		if !present {
			return
		}
		for _, lang := range displayLanguages {
			display[lang] += displayTags[field][lang] + value
		}
	}

	shortTitle, ok := optString(journal, "short_title")
	appendTagged("short_title", shortTitle, ok)

	volume, ok := optString(obj, "volume")
	appendTagged("volume", volume, ok)

	supplVolume, ok := optString(obj, "suppl_volume")
	appendTagged("suppl_volume", supplVolume, ok)

	number, ok := optString(obj, "number")
	appendTagged("number", number, ok)

	supplNumber, ok := optString(obj, "suppl_number")
	appendTagged("suppl_number", supplNumber, ok)

	city, ok := optString(journal, "publication_city")
	appendTagged("city", city, ok)

	start, _ := intField(obj, "publication_start_month")
	end, _ := intField(obj, "publication_end_month")
	for _, lang := range displayLanguages {
		if span := monthSpan(lang, start, end); span != "" {
			display[lang] += "^m" + span
		}
	}

	for _, lang := range displayLanguages {
		display[lang] += fmt.Sprintf("^a%d", year)
	}
	return display
}

// monthSpan renders the publication period: both abbreviations joined
// when start and end differ, the single abbreviation otherwise. Months
// outside 1..12 are treated as absent.
func monthSpan(lang string, start, end int) string {
	abbr := monthAbbr[lang]
	validStart := start >= 1 && start <= 12
	validEnd := end >= 1 && end <= 12

	switch {
	case validStart && validEnd && start != end:
		return abbr[start-1] + "./" + abbr[end-1] + "."
	case validEnd:
		return abbr[end-1] + "."
	case validStart:
		return abbr[start-1] + "."
	default:
		return ""
	}
}
