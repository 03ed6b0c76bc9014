package xbrl

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/horiken1977/roic-sub001/pkg/fiscal"
)

// PeriodKind distinguishes flow (duration) from stock (instant) contexts.
type PeriodKind int

const (
	Forever PeriodKind = iota
	Duration
	Instant
)

func (k PeriodKind) String() string {
	switch k {
	case Duration:
		return "duration"
	case Instant:
		return "instant"
	default:
		return "forever"
	}
}

// Context is one xbrli:context. Exactly one of the date shapes is set,
// according to Kind.
type Context struct {
	ID        string
	Kind      PeriodKind
	StartDate time.Time
	EndDate   time.Time
	Instant   time.Time
	// Dimensional is set when the context carries segment or scenario
	// members, i.e. it qualifies the entity rather than describing it whole.
	Dimensional bool
}

// ContextTable indexes contexts by id.
type ContextTable map[string]Context

// IDs returns the context ids in lexical order.
func (t ContextTable) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BuildContextTable collects every context element in the tree.
func BuildContextTable(root *Node) (ContextTable, error) {
	table := ContextTable{}
	var walk func(n *Node) error
	walk = func(n *Node) error {
		if n.Name.Local == "context" {
			c, err := parseContext(n)
			if err != nil {
				return err
			}
			table[c.ID] = c
			return nil
		}
		for _, child := range n.Children {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return table, nil
}

func parseContext(n *Node) (Context, error) {
	id, _ := n.Attr("id")
	if id == "" {
		return Context{}, fmt.Errorf("context without id")
	}
	c := Context{ID: id}

	if entity := n.Child("entity"); entity != nil {
		if seg := entity.Child("segment"); seg != nil && len(seg.Children) > 0 {
			c.Dimensional = true
		}
	}
	if sc := n.Child("scenario"); sc != nil && len(sc.Children) > 0 {
		c.Dimensional = true
	}

	period := n.Child("period")
	if period == nil {
		return Context{}, fmt.Errorf("context %s has no period", id)
	}
	start, end, instant := period.Child("startDate"), period.Child("endDate"), period.Child("instant")

	var err error
	switch {
	case instant != nil && (start != nil || end != nil):
		return Context{}, fmt.Errorf("context %s has both instant and duration dates", id)
	case instant != nil:
		c.Kind = Instant
		if c.Instant, err = fiscal.ParseDate(instant.Text); err != nil {
			return Context{}, fmt.Errorf("context %s: bad instant: %w", id, err)
		}
	case start != nil && end != nil:
		c.Kind = Duration
		if c.StartDate, err = fiscal.ParseDate(start.Text); err != nil {
			return Context{}, fmt.Errorf("context %s: bad startDate: %w", id, err)
		}
		if c.EndDate, err = fiscal.ParseDate(end.Text); err != nil {
			return Context{}, fmt.Errorf("context %s: bad endDate: %w", id, err)
		}
	case period.Child("forever") != nil:
		c.Kind = Forever
	default:
		return Context{}, fmt.Errorf("context %s has an incomplete period", id)
	}
	return c, nil
}

// TargetContextPair names the contexts used for flow and stock measures.
type TargetContextPair struct {
	DurationContextID string `json:"duration_context"`
	InstantContextID  string `json:"instant_context"`
}

// Validate fails unless both slots are filled.
func (p TargetContextPair) Validate() error {
	if p.DurationContextID == "" || p.InstantContextID == "" {
		return fmt.Errorf("%w: incomplete context pair %+v", ErrContextResolution, p)
	}
	return nil
}

// Labels used by the pattern-match fallback in ResolveContexts.
const (
	CurrentYearDurationLabel = "CurrentYearDuration"
	CurrentYearInstantLabel  = "CurrentYearInstant"
)

// ErrContextResolution is matched by every ContextResolutionError.
var ErrContextResolution = errors.New("context resolution failed")

// ContextResolutionError reports that no context could be chosen for a slot.
type ContextResolutionError struct {
	Slot      string   // "duration" or "instant"
	Target    string   // the dates that were looked for
	Available []string // sample of context ids in the document
}

func (e *ContextResolutionError) Error() string {
	return fmt.Sprintf("context resolution failed: no %s context for %s (available: %s)",
		e.Slot, e.Target, strings.Join(e.Available, ", "))
}

func (e *ContextResolutionError) Is(target error) bool {
	return target == ErrContextResolution
}

const sampleSize = 10

// ResolveContexts picks the duration and instant contexts for year: an exact
// date match first, then a context whose id carries the current-year label
// and whose date falls inside the fiscal year. Anything else is an error.
func ResolveContexts(contexts ContextTable, year fiscal.Year) (TargetContextPair, error) {
	start, end := year.Start(), year.End()

	duration := pick(contexts, func(c Context) bool {
		return c.Kind == Duration && c.StartDate.Equal(start) && c.EndDate.Equal(end)
	})
	if duration == "" {
		duration = pick(contexts, func(c Context) bool {
			return c.Kind == Duration && strings.Contains(c.ID, CurrentYearDurationLabel) && year.Contains(c.EndDate)
		})
	}
	if duration == "" {
		return TargetContextPair{}, &ContextResolutionError{
			Slot:      "duration",
			Target:    fiscal.Format(start) + " to " + fiscal.Format(end),
			Available: sample(contexts),
		}
	}

	instant := pick(contexts, func(c Context) bool {
		return c.Kind == Instant && c.Instant.Equal(end)
	})
	if instant == "" {
		instant = pick(contexts, func(c Context) bool {
			return c.Kind == Instant && strings.Contains(c.ID, CurrentYearInstantLabel) && year.Contains(c.Instant)
		})
	}
	if instant == "" {
		return TargetContextPair{}, &ContextResolutionError{
			Slot:      "instant",
			Target:    fiscal.Format(end),
			Available: sample(contexts),
		}
	}

	return TargetContextPair{DurationContextID: duration, InstantContextID: instant}, nil
}

// pick returns the best matching context id: non-dimensional contexts first,
// then the shortest id, then lexical order.
func pick(contexts ContextTable, match func(Context) bool) string {
	var candidates []Context
	for _, c := range contexts {
		if match(c) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Dimensional != b.Dimensional {
			return !a.Dimensional
		}
		if len(a.ID) != len(b.ID) {
			return len(a.ID) < len(b.ID)
		}
		return a.ID < b.ID
	})
	return candidates[0].ID
}

func sample(contexts ContextTable) []string {
	ids := contexts.IDs()
	if len(ids) > sampleSize {
		ids = ids[:sampleSize]
	}
	return ids
}
