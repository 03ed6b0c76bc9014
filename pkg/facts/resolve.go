package facts

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/horiken1977/roic-sub001/pkg/xbrl"
)

// summaryMarker identifies cross-period highlight elements, which restate
// figures from other sections and are never used as a source.
const summaryMarker = "Summary"

// crossItemMarkers qualify an element name into a different line item, as in
// IncomeBeforeIncomeTaxes or NonOperatingIncome. The substring fallback skips
// keys carrying a marker that the candidate name itself lacks.
var crossItemMarkers = []string{"Before", "NonOperating"}

// ErrExtraction is matched by every ExtractionError.
var ErrExtraction = errors.New("extraction failed")

// ExtractionError reports that no candidate name produced a value for an item
// in the target context.
type ExtractionError struct {
	Item       string   `json:"item"`
	Candidates []string `json:"candidates"`
	ContextID  string   `json:"context"`
	// ContextsWithValues lists contexts in which the searched names did
	// carry a value.
	ContextsWithValues []string `json:"contexts_with_values"`
	// Reason, when set, replaces the not-found wording: a value was found
	// but could not be used.
	Reason string `json:"reason,omitempty"`
}

func (e *ExtractionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("extraction failed: %s in context %s: %s", e.Item, e.ContextID, e.Reason)
	}
	msg := fmt.Sprintf("extraction failed: %s not found in context %s (tried %s)",
		e.Item, e.ContextID, strings.Join(e.Candidates, ", "))
	if len(e.ContextsWithValues) > 0 {
		msg += fmt.Sprintf("; values exist in %s", strings.Join(e.ContextsWithValues, ", "))
	}
	return msg
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// Match is a resolved value and the element it was read from.
type Match struct {
	Element string
	Value   decimal.Decimal
}

// ResolveNumeric returns the value of the first candidate name reported in
// contextID. Each name is tried as an exact element name, then as a substring
// of the table's element names in lexical order. Names containing "Summary"
// are never used.
func ResolveNumeric(table xbrl.FactTable, item string, candidates []string, contextID string) (decimal.Decimal, error) {
	m, err := Resolve(table, item, candidates, contextID)
	return m.Value, err
}

// Resolve is ResolveNumeric that also reports the matched element.
func Resolve(table xbrl.FactTable, item string, candidates []string, contextID string) (Match, error) {
	var keys []string
	seen := map[string]bool{}

	for _, name := range candidates {
		if name == "" || strings.Contains(name, summaryMarker) {
			continue
		}

		if facts, ok := table[name]; ok {
			seen[name] = true
			if v, ok := valueIn(facts, contextID); ok {
				return Match{Element: name, Value: v}, nil
			}
		}

		if keys == nil {
			keys = table.Names()
		}
		for _, key := range keys {
			if key == name || !strings.Contains(key, name) || strings.Contains(key, summaryMarker) {
				continue
			}
			if crossesItem(key, name) {
				continue
			}
			seen[key] = true
			if v, ok := valueIn(table[key], contextID); ok {
				return Match{Element: key, Value: v}, nil
			}
		}
	}

	return Match{}, &ExtractionError{
		Item:               item,
		Candidates:         append([]string(nil), candidates...),
		ContextID:          contextID,
		ContextsWithValues: contextsWithValues(table, seen),
	}
}

func crossesItem(key, name string) bool {
	for _, marker := range crossItemMarkers {
		if strings.Contains(key, marker) && !strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

func valueIn(facts []xbrl.Fact, contextID string) (decimal.Decimal, bool) {
	for _, f := range facts {
		if f.ContextID != contextID || f.Nil {
			continue
		}
		if v, err := ParseAmount(f.RawValue); err == nil {
			return v, true
		}
	}
	return decimal.Zero, false
}

// ParseAmount parses a reported number, ignoring thousands separators.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(s)
}

func contextsWithValues(table xbrl.FactTable, names map[string]bool) []string {
	set := map[string]bool{}
	for name := range names {
		for _, f := range table[name] {
			if f.Nil {
				continue
			}
			if _, err := ParseAmount(f.RawValue); err == nil {
				set[f.ContextID] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
