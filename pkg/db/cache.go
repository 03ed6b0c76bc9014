package db

import (
	"context"
	"errors"
	"time"

	"github.com/phuslu/log"

	"github.com/horiken1977/roic-sub001/pkg/edinet"
	"github.com/horiken1977/roic-sub001/pkg/filing"
	"github.com/horiken1977/roic-sub001/pkg/fiscal"
)

// CachingLister serves filing lists from the database before asking the
// wrapped Lister. Lists for dates older than RecentWindow no longer change
// and are kept indefinitely; newer ones expire after RecentMaxAge.
type CachingLister struct {
	db           *DB
	next         filing.Lister
	recentWindow time.Duration
	recentMaxAge time.Duration
	logger       *log.Logger
}

// NewCachingLister wraps next.
func NewCachingLister(db *DB, next filing.Lister, recentWindow, recentMaxAge time.Duration, logger *log.Logger) *CachingLister {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &CachingLister{db: db, next: next, recentWindow: recentWindow, recentMaxAge: recentMaxAge, logger: logger}
}

// FetchFilingList implements filing.Lister.
func (c *CachingLister) FetchFilingList(ctx context.Context, date time.Time) ([]edinet.FilingSummary, error) {
	maxAge := time.Duration(0)
	if c.db.now().Sub(fiscal.Date(date)) < c.recentWindow {
		maxAge = c.recentMaxAge
		if maxAge <= 0 {
			// recent lists are not cached at all
			return c.fetch(ctx, date, false)
		}
	}

	list, err := c.db.GetFilingList(date, maxAge)
	if err == nil {
		return list, nil
	}
	if !errors.Is(err, ErrMiss) {
		c.logger.Warn().Err(err).Str("date", fiscal.Format(date)).Msg("filing list cache read failed")
	}
	return c.fetch(ctx, date, true)
}

func (c *CachingLister) fetch(ctx context.Context, date time.Time, store bool) ([]edinet.FilingSummary, error) {
	list, err := c.next.FetchFilingList(ctx, date)
	if err != nil {
		return nil, err
	}
	if store {
		if err := c.db.StoreFilingList(date, list); err != nil {
			c.logger.Warn().Err(err).Str("date", fiscal.Format(date)).Msg("failed to cache filing list")
		}
	}
	return list, nil
}

// DocumentSource returns the XBRL instance text for a document id.
type DocumentSource interface {
	Retrieve(ctx context.Context, docID string) (string, error)
}

// CachingRetriever keeps retrieved XBRL instances; a submitted document
// never changes, so entries do not expire.
type CachingRetriever struct {
	db     *DB
	next   DocumentSource
	logger *log.Logger
}

// NewCachingRetriever wraps next.
func NewCachingRetriever(db *DB, next DocumentSource, logger *log.Logger) *CachingRetriever {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &CachingRetriever{db: db, next: next, logger: logger}
}

// Retrieve implements DocumentSource.
func (c *CachingRetriever) Retrieve(ctx context.Context, docID string) (string, error) {
	text, err := c.db.GetDocument(docID)
	if err == nil {
		c.logger.Debug().Str("doc_id", docID).Msg("document served from cache")
		return text, nil
	}
	if !errors.Is(err, ErrMiss) {
		c.logger.Warn().Err(err).Str("doc_id", docID).Msg("document cache read failed")
	}

	text, err = c.next.Retrieve(ctx, docID)
	if err != nil {
		return "", err
	}
	if err := c.db.StoreDocument(docID, text); err != nil {
		c.logger.Warn().Err(err).Str("doc_id", docID).Msg("failed to cache document")
	}
	return text, nil
}
