package model

import "strings"

// PageRecord is one page of the extracted corpus: the merge of the text pass
// and the table pass, tagged with its identity. Re-extracting the same page
// yields the same record.
type PageRecord struct {
	DocName string   `json:"doc_name"`
	PageNo  int      `json:"page_no"`
	Text    string   `json:"text"`
	Tables  []string `json:"tables,omitempty"`
}

// CombinedText joins the flowing text and the rendered tables into the single
// string that gets embedded and indexed for this page.
func (p *PageRecord) CombinedText() string {
	if len(p.Tables) == 0 {
		return p.Text
	}

	var builder strings.Builder
	builder.WriteString(p.Text)
	for _, table := range p.Tables {
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(table)
	}
	return builder.String()
}
