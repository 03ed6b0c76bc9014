// Package app wires the services described by a Config.
package app

import (
	"fmt"

	"github.com/phuslu/log"

	"github.com/horiken1977/roic-sub001/pkg/analysis"
	"github.com/horiken1977/roic-sub001/pkg/config"
	"github.com/horiken1977/roic-sub001/pkg/db"
	"github.com/horiken1977/roic-sub001/pkg/edinet"
	"github.com/horiken1977/roic-sub001/pkg/facts"
	"github.com/horiken1977/roic-sub001/pkg/filing"
)

// App holds the wired services.
type App struct {
	Service *analysis.Service
	// DB is nil when caching is disabled.
	DB *db.DB
}

// New builds the EDINET client, the optional sqlite cache, the locator and
// the analysis service.
func New(cfg *config.Config, logger *log.Logger) (*App, error) {
	if cfg.Edinet.APIKey == "" {
		logger.Warn().Msg("EDINET_API_KEY is not set; EDINET API v2 rejects unauthenticated requests")
	}
	client := edinet.NewClient(edinet.Options{
		BaseURL:      cfg.Edinet.BaseURL,
		APIKey:       cfg.Edinet.APIKey,
		RateLimit:    cfg.Edinet.RateLimit,
		Timeout:      cfg.Edinet.Timeout.Duration,
		MaxRetries:   cfg.Edinet.MaxRetries,
		RetryBackoff: cfg.Edinet.RetryBackoff.Duration,
		Logger:       logger,
	})

	var lister filing.Lister = client
	var retriever analysis.Retriever = edinet.NewRetriever(client, logger)
	var database *db.DB
	if cfg.Cache.Path != "" {
		var err error
		database, err = db.New(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		lister = db.NewCachingLister(database, client, cfg.Cache.RecentWindow.Duration, cfg.Cache.RecentListsAge.Duration, logger)
		retriever = db.NewCachingRetriever(database, retriever, logger)
		logger.Info().Str("path", cfg.Cache.Path).Msg("cache enabled")
	}

	locator := filing.NewLocator(lister, filing.Options{
		Concurrency:     cfg.Locator.Concurrency,
		AllowPermissive: cfg.Locator.AllowPermissive,
		Logger:          logger,
	})

	extractor := facts.NewExtractor(cfg.Candidates, cfg.Tax.Policy())
	opts := analysis.Options{
		Extractor:       extractor,
		DefaultEndMonth: cfg.EndMonth(),
		CacheMaxAge:     cfg.Cache.FactSetMaxAge.Duration,
		Variant:         analysis.Variant(cfg.Locator.AllowPermissive, extractor),
		Logger:          logger,
	}
	if database != nil {
		opts.Cache = database
	}

	return &App{
		Service: analysis.NewService(locator, retriever, opts),
		DB:      database,
	}, nil
}

// Close releases the cache.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
