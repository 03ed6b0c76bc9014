package analysis

import (
	"github.com/horiken1977/roic-sub001/pkg/fiscal"
	"github.com/horiken1977/roic-sub001/pkg/xbrl"
)

// ContextInfo is a context as shown in debug output.
type ContextInfo struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Instant     string `json:"instant,omitempty"`
	Dimensional bool   `json:"dimensional,omitempty"`
}

// Debug describes the parsed document for diagnosing a failed or
// surprising extraction.
type Debug struct {
	Contexts  []ContextInfo  `json:"contexts"`
	FactStats xbrl.FactStats `json:"fact_stats"`
	Elements  []string       `json:"elements"`
}

const maxDebugElements = 200

func newDebug(doc *xbrl.Instance) *Debug {
	d := &Debug{FactStats: doc.Facts.Stats()}
	for _, id := range doc.Contexts.IDs() {
		c := doc.Contexts[id]
		info := ContextInfo{ID: c.ID, Kind: c.Kind.String(), Dimensional: c.Dimensional}
		switch c.Kind {
		case xbrl.Duration:
			info.StartDate = fiscal.Format(c.StartDate)
			info.EndDate = fiscal.Format(c.EndDate)
		case xbrl.Instant:
			info.Instant = fiscal.Format(c.Instant)
		}
		d.Contexts = append(d.Contexts, info)
	}
	d.Elements = doc.Facts.Names()
	if len(d.Elements) > maxDebugElements {
		d.Elements = d.Elements[:maxDebugElements]
	}
	return d
}
