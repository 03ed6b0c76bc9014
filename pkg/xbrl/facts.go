package xbrl

import (
	"sort"
	"strings"
)

// Fact is one reported value.
type Fact struct {
	ElementName string `json:"element"`
	Namespace   string `json:"namespace,omitempty"`
	ContextID   string `json:"context"`
	RawValue    string `json:"value"`
	UnitRef     string `json:"unit,omitempty"`
	Decimals    string `json:"decimals,omitempty"`
	Nil         bool   `json:"nil,omitempty"`
}

// FactTable groups facts by local element name.
type FactTable map[string][]Fact

// BuildFactTable walks the tree and records every element that carries a
// contextRef attribute, keyed by its namespace-stripped name.
func BuildFactTable(root *Node) FactTable {
	table := FactTable{}
	collectFacts(root, table)
	return table
}

func collectFacts(n *Node, table FactTable) {
	if n == nil {
		return
	}
	if contextRef, ok := n.Attr("contextRef"); ok {
		f := Fact{
			ElementName: n.Name.Local,
			Namespace:   n.Name.Space,
			ContextID:   strings.TrimSpace(contextRef),
			RawValue:    n.Text,
		}
		f.UnitRef, _ = n.Attr("unitRef")
		f.Decimals, _ = n.Attr("decimals")
		if v, ok := n.Attr("nil"); ok && (v == "true" || v == "1") {
			f.Nil = true
		}
		table[f.ElementName] = append(table[f.ElementName], f)
		return
	}
	for _, c := range n.Children {
		collectFacts(c, table)
	}
}

// Names returns the element names in lexical order.
func (t FactTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InContext returns the first fact for name recorded under contextID.
func (t FactTable) InContext(name, contextID string) (Fact, bool) {
	for _, f := range t[name] {
		if f.ContextID == contextID {
			return f, true
		}
	}
	return Fact{}, false
}

// FactStats summarises a fact table for diagnostics.
type FactStats struct {
	Elements int `json:"elements"`
	Facts    int `json:"facts"`
	Nil      int `json:"nil"`
}

// Stats counts elements and facts.
func (t FactTable) Stats() FactStats {
	var s FactStats
	s.Elements = len(t)
	for _, facts := range t {
		s.Facts += len(facts)
		for _, f := range facts {
			if f.Nil {
				s.Nil++
			}
		}
	}
	return s
}
