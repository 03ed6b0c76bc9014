// Package filing locates the annual securities report a company filed for a
// fiscal year by scanning EDINET's daily filing lists.
package filing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/horiken1977/roic-sub001/pkg/edinet"
	"github.com/horiken1977/roic-sub001/pkg/fiscal"
)

// Reference identifies one located annual report.
type Reference struct {
	CompanyID   string    `json:"company_id"`
	DocumentID  string    `json:"document_id"`
	FilerName   string    `json:"filer_name,omitempty"`
	PeriodEnd   time.Time `json:"period_end"`
	SubmittedAt time.Time `json:"submitted_at"`
	// Approximate is set when the filing was accepted by the permissive
	// year-and-month rule rather than an exact period end.
	Approximate bool `json:"approximate,omitempty"`
}

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("filing not found")

// NotFoundError reports that no annual report matched after the whole date
// range was searched.
type NotFoundError struct {
	CompanyID    string   `json:"company_id"`
	FiscalYear   int      `json:"fiscal_year"`
	PeriodEnd    string   `json:"period_end"`
	DatesScanned int      `json:"dates_scanned"`
	PeriodsSeen  []string `json:"periods_seen,omitempty"`
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no annual report for %s with period end %s (%d filing lists searched)",
		e.CompanyID, e.PeriodEnd, e.DatesScanned)
	if len(e.PeriodsSeen) > 0 {
		msg += "; annual reports found for periods ending " + strings.Join(e.PeriodsSeen, ", ")
	}
	return msg
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Lister fetches one day's filing list.
type Lister interface {
	FetchFilingList(ctx context.Context, date time.Time) ([]edinet.FilingSummary, error)
}

// Options configures a Locator.
type Options struct {
	// Concurrency bounds the filing-list fetches in flight.
	Concurrency int
	// AllowPermissive accepts a period end in the target year and month
	// when no exact match exists.
	AllowPermissive bool
	Logger          *log.Logger
	// Now is the clock used to skip future dates.
	Now func() time.Time
}

// Locator finds annual reports.
type Locator struct {
	lister      Lister
	concurrency int
	permissive  bool
	logger      *log.Logger
	now         func() time.Time
}

// NewLocator returns a Locator reading filing lists from lister.
func NewLocator(lister Lister, opts Options) *Locator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = &log.DefaultLogger
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Locator{
		lister:      lister,
		concurrency: opts.Concurrency,
		permissive:  opts.AllowPermissive,
		logger:      opts.Logger,
		now:         opts.Now,
	}
}

// Locate returns the annual report companyID filed for year. The period end
// must equal the fiscal year end; among several matches the latest
// submission wins.
func (l *Locator) Locate(ctx context.Context, companyID string, year fiscal.Year) (Reference, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return Reference{}, fmt.Errorf("empty company id")
	}
	priority, systematic := CandidateDates(year, l.now())
	l.logger.Debug().Str("company", companyID).Str("fiscal_year", year.String()).
		Int("priority_dates", len(priority)).Int("scan_dates", len(systematic)).Msg("locating filing")

	found, err := l.scan(ctx, companyID, priority)
	if err != nil {
		return Reference{}, err
	}
	if ref, ok := pickStrict(companyID, found, year); ok {
		l.logger.Info().Str("company", companyID).Str("doc_id", ref.DocumentID).Msg("filing found in priority dates")
		return ref, nil
	}

	more, err := l.scan(ctx, companyID, systematic)
	if err != nil {
		return Reference{}, err
	}
	found = append(found, more...)
	if ref, ok := pickStrict(companyID, found, year); ok {
		l.logger.Info().Str("company", companyID).Str("doc_id", ref.DocumentID).Msg("filing found in date scan")
		return ref, nil
	}

	if l.permissive {
		if ref, ok := pickPermissive(companyID, found, year); ok {
			l.logger.Warn().Str("company", companyID).Str("doc_id", ref.DocumentID).
				Str("period_end", fiscal.Format(ref.PeriodEnd)).Msg("using approximate period match")
			return ref, nil
		}
	}

	return Reference{}, &NotFoundError{
		CompanyID:    companyID,
		FiscalYear:   year.Year,
		PeriodEnd:    fiscal.Format(year.End()),
		DatesScanned: len(priority) + len(systematic),
		PeriodsSeen:  periodsSeen(found),
	}
}

// scan fetches the filing list for each date and keeps the company's annual
// reports. Any fetch failure aborts the scan.
func (l *Locator) scan(ctx context.Context, companyID string, dates []time.Time) ([]edinet.FilingSummary, error) {
	var (
		mu    sync.Mutex
		found []edinet.FilingSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for _, date := range dates {
		g.Go(func() error {
			list, err := l.lister.FetchFilingList(gctx, date)
			if err != nil {
				return fmt.Errorf("failed to fetch filing list for %s: %w", fiscal.Format(date), err)
			}
			var matched []edinet.FilingSummary
			for _, f := range list {
				if f.MatchesCompany(companyID) && f.IsAnnualReport() {
					matched = append(matched, f)
				}
			}
			if len(matched) > 0 {
				mu.Lock()
				found = append(found, matched...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

func pickStrict(companyID string, found []edinet.FilingSummary, year fiscal.Year) (Reference, bool) {
	target := year.End()
	return pick(companyID, found, func(periodEnd time.Time) bool {
		return periodEnd.Equal(target)
	}, false)
}

func pickPermissive(companyID string, found []edinet.FilingSummary, year fiscal.Year) (Reference, bool) {
	target := year.End()
	return pick(companyID, found, func(periodEnd time.Time) bool {
		return periodEnd.Year() == target.Year() && periodEnd.Month() == target.Month()
	}, true)
}

// pick returns the latest-submitted filing whose period end satisfies match.
func pick(companyID string, found []edinet.FilingSummary, match func(time.Time) bool, approximate bool) (Reference, bool) {
	var refs []Reference
	seen := map[string]bool{}
	for _, f := range found {
		if seen[f.DocumentID] {
			continue
		}
		periodEnd, err := f.PeriodEndDate()
		if err != nil || !match(periodEnd) {
			continue
		}
		submitted, err := f.SubmittedAt()
		if err != nil {
			continue
		}
		seen[f.DocumentID] = true
		refs = append(refs, Reference{
			CompanyID:   companyID,
			DocumentID:  f.DocumentID,
			FilerName:   f.FilerName,
			PeriodEnd:   periodEnd,
			SubmittedAt: submitted,
			Approximate: approximate,
		})
	}
	if len(refs) == 0 {
		return Reference{}, false
	}
	sort.Slice(refs, func(i, j int) bool {
		if !refs[i].SubmittedAt.Equal(refs[j].SubmittedAt) {
			return refs[i].SubmittedAt.After(refs[j].SubmittedAt)
		}
		return refs[i].DocumentID < refs[j].DocumentID
	})
	return refs[0], true
}

func periodsSeen(found []edinet.FilingSummary) []string {
	set := map[string]bool{}
	for _, f := range found {
		if f.PeriodEnd != "" {
			set[f.PeriodEnd] = true
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
