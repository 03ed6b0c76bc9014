// Package analysis runs the whole pipeline for one company and fiscal year:
// locate the annual report, retrieve its XBRL instance, resolve contexts,
// extract the financial facts and compute ROIC.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/horiken1977/roic-sub001/pkg/db"
	"github.com/horiken1977/roic-sub001/pkg/edinet"
	"github.com/horiken1977/roic-sub001/pkg/facts"
	"github.com/horiken1977/roic-sub001/pkg/filing"
	"github.com/horiken1977/roic-sub001/pkg/fiscal"
	"github.com/horiken1977/roic-sub001/pkg/roic"
	"github.com/horiken1977/roic-sub001/pkg/xbrl"
)

// Locator finds the annual report for a company and year.
type Locator interface {
	Locate(ctx context.Context, companyID string, year fiscal.Year) (filing.Reference, error)
}

// Retriever returns the XBRL instance text of a document.
type Retriever interface {
	Retrieve(ctx context.Context, docID string) (string, error)
}

// Cache stores finished extractions.
type Cache interface {
	GetFactSet(key db.FactSetKey, maxAge time.Duration) (*db.FactSetRecord, error)
	StoreFactSet(key db.FactSetKey, rec *db.FactSetRecord) error
}

// Request names one extraction.
type Request struct {
	CompanyID  string
	FiscalYear int
	// EndMonth is the fiscal-year-end month; zero means the service default.
	EndMonth time.Month
	// Debug adds the context table and fact statistics to the result and
	// bypasses the cache.
	Debug bool
}

// Extraction is the outcome of ExtractFinancials.
type Extraction struct {
	Facts     *facts.FinancialFactSet `json:"facts"`
	Breakdown *facts.Breakdown        `json:"breakdown,omitempty"`
	Filing    filing.Reference        `json:"filing"`
	Contexts  xbrl.TargetContextPair  `json:"contexts"`
	Cached    bool                    `json:"cached"`
	Debug     *Debug                  `json:"debug,omitempty"`
}

// Report is an Extraction with its ROIC results.
type Report struct {
	*Extraction
	ROIC roic.Results `json:"roic"`
}

// Options configures a Service.
type Options struct {
	Extractor *facts.Extractor
	// DefaultEndMonth applies to requests without an EndMonth.
	DefaultEndMonth time.Month
	Cache           Cache
	CacheMaxAge     time.Duration
	// Variant labels cache entries with the extraction policy in force.
	Variant string
	Logger  *log.Logger
}

// Service is the exposed core interface.
type Service struct {
	locator   Locator
	retriever Retriever
	extractor *facts.Extractor
	endMonth  time.Month
	cache     Cache
	maxAge    time.Duration
	variant   string
	logger    *log.Logger
}

// NewService wires a Service.
func NewService(locator Locator, retriever Retriever, opts Options) *Service {
	if opts.Extractor == nil {
		opts.Extractor = facts.NewExtractor(facts.Candidates{}, facts.TaxPolicy{})
	}
	if opts.DefaultEndMonth == 0 {
		opts.DefaultEndMonth = fiscal.DefaultEndMonth
	}
	if opts.Variant == "" {
		opts.Variant = Variant(false, opts.Extractor)
	}
	if opts.Logger == nil {
		opts.Logger = &log.DefaultLogger
	}
	return &Service{
		locator:   locator,
		retriever: retriever,
		extractor: opts.Extractor,
		endMonth:  opts.DefaultEndMonth,
		cache:     opts.Cache,
		maxAge:    opts.CacheMaxAge,
		variant:   opts.Variant,
		logger:    opts.Logger,
	}
}

// Variant names an extraction policy for cache keys: the matching mode, the
// tax default flag and a fingerprint of the extractor's settings.
func Variant(permissive bool, extractor *facts.Extractor) string {
	v := "strict"
	if permissive {
		v = "permissive"
	}
	if extractor.Tax.AllowDefault {
		v += "+taxdefault"
	}
	return v + "@" + extractor.Fingerprint()
}

// ExtractFinancials locates, retrieves and extracts the fact set for req.
// Failures keep their types: filing.ErrNotFound, edinet.ErrDocumentUnavailable,
// xbrl.ErrContextResolution, facts.ErrExtraction and facts.ErrTaxRateUndefined
// all match with errors.Is.
func (s *Service) ExtractFinancials(ctx context.Context, req Request) (*Extraction, error) {
	companyID := strings.TrimSpace(req.CompanyID)
	if companyID == "" {
		return nil, fmt.Errorf("%w: company id is required", ErrInvalidRequest)
	}
	endMonth := req.EndMonth
	if endMonth == 0 {
		endMonth = s.endMonth
	}
	year, err := fiscal.New(req.FiscalYear, endMonth)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	key := db.FactSetKey{CompanyID: companyID, Year: year, Variant: s.variant}

	if s.cache != nil && !req.Debug {
		rec, err := s.cache.GetFactSet(key, s.maxAge)
		if err == nil {
			s.logger.Debug().Str("company", companyID).Int("year", year.Year).Msg("fact set served from cache")
			return &Extraction{
				Facts:     rec.Facts,
				Breakdown: rec.Breakdown,
				Filing:    rec.Filing,
				Contexts:  rec.Contexts,
				Cached:    true,
			}, nil
		}
		if !errors.Is(err, db.ErrMiss) {
			s.logger.Warn().Err(err).Str("company", companyID).Msg("fact set cache read failed")
		}
	}

	start := time.Now()
	ref, err := s.locator.Locate(ctx, companyID, year)
	if err != nil {
		return nil, err
	}

	text, err := s.retriever.Retrieve(ctx, ref.DocumentID)
	if err != nil {
		return nil, err
	}

	doc, err := xbrl.ParseDocument(text)
	if err != nil {
		return nil, &edinet.DocumentUnavailableError{DocumentID: ref.DocumentID, Reason: "unparsable XBRL", Err: err}
	}

	pair, err := xbrl.ResolveContexts(doc.Contexts, year)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", ref.DocumentID, err)
	}

	filer := facts.Filer{CompanyID: companyID, FiscalYear: year.Year, Name: ref.FilerName}
	set, breakdown, err := s.extractor.Extract(doc.Facts, pair, filer)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", ref.DocumentID, err)
	}

	s.logger.Info().Str("company", companyID).Int("year", year.Year).Str("doc_id", ref.DocumentID).
		Dur("elapsed", time.Since(start)).Msg("financials extracted")

	out := &Extraction{
		Facts:     set,
		Breakdown: breakdown,
		Filing:    ref,
		Contexts:  pair,
	}
	if req.Debug {
		out.Debug = newDebug(doc)
	}

	if s.cache != nil {
		rec := &db.FactSetRecord{Facts: set, Breakdown: breakdown, Filing: ref, Contexts: pair}
		if err := s.cache.StoreFactSet(key, rec); err != nil {
			s.logger.Warn().Err(err).Str("company", companyID).Msg("failed to cache fact set")
		}
	}
	return out, nil
}

// ComputeROIC evaluates all four formulas.
func (s *Service) ComputeROIC(f *facts.FinancialFactSet) roic.Results {
	return roic.ComputeAll(f)
}

// Analyze is ExtractFinancials followed by ComputeROIC.
func (s *Service) Analyze(ctx context.Context, req Request) (*Report, error) {
	ex, err := s.ExtractFinancials(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Report{Extraction: ex, ROIC: s.ComputeROIC(ex.Facts)}, nil
}

// ErrInvalidRequest marks requests rejected before any lookup.
var ErrInvalidRequest = errors.New("invalid request")
