package render

// Record templates for the legacy ID files. Field tags (!vNNN!) and the
// caret micro-format inside them follow the consumer's fixed layout.

// TitleRecord renders one journal entry of the title bundle.
const TitleRecord = `!ID 0
!v100!{{.title}}
!v940!{{.created}}
!v941!{{.updated}}
!v950!{{.creator}}
{{range .sponsors}}!v140!{{.}}
{{end}}{{range .pub_status_history}}!v051!{{range .}}^a{{.Date}}^b{{.Status}}{{end}}
{{end}}{{range .other_titles}}{{$lang := .Language}}{{range .Titles}}!v240!^l{{$lang}}^t{{.}}
{{end}}{{end}}`

// IssueRecord renders one entry of the issue bundle.
const IssueRecord = `!ID 0
!v036!{{.order}}
!v065!{{.publication_date}}
!v940!{{.created}}
!v941!{{.updated}}
!v030!{{.journal.title_iso}}
!v035!{{.journal.print_issn}}
{{range $lang, $label := .display}}!v043!{{$label}}
{{end}}{{range .sections}}{{$lang := .Language}}{{range .Titles}}!v049!^c{{.Code}}^l{{$lang}}^t{{.Title}}
{{end}}{{end}}`

// SectionRecord renders one journal's section taxonomy.
const SectionRecord = `!ID 0
!v100!{{.title}}
{{range .sections}}!v049!^c{{.code}}{{range .titles}}^l{{index . 0}}^t{{index . 1}}{{end}}
{{end}}`
