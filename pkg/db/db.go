package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/horiken1977/roic-sub001/pkg/edinet"
	"github.com/horiken1977/roic-sub001/pkg/facts"
	"github.com/horiken1977/roic-sub001/pkg/filing"
	"github.com/horiken1977/roic-sub001/pkg/fiscal"
	"github.com/horiken1977/roic-sub001/pkg/xbrl"
)

// ErrMiss is returned when a cache entry is absent or stale.
var ErrMiss = errors.New("cache miss")

// DB wraps a SQLite database connection for EDINET data storage
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// New creates a new database connection and initializes tables
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer; the locator writes from several goroutines
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, now: time.Now}
	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) createTables() error {
	statements := []struct {
		name string
		sql  string
	}{
		{"filing_lists", `
			CREATE TABLE IF NOT EXISTS filing_lists (
				list_date TEXT PRIMARY KEY,
				data BLOB NOT NULL,
				fetched_at INTEGER NOT NULL
			);`},
		{"documents", `
			CREATE TABLE IF NOT EXISTS documents (
				doc_id TEXT PRIMARY KEY,
				xbrl BLOB NOT NULL,
				fetched_at INTEGER NOT NULL
			);`},
		{"fact_sets", `
			CREATE TABLE IF NOT EXISTS fact_sets (
				company_id TEXT NOT NULL,
				fiscal_year INTEGER NOT NULL,
				end_month INTEGER NOT NULL,
				variant TEXT NOT NULL,
				company_name TEXT DEFAULT '',
				data BLOB NOT NULL,
				updated_at INTEGER NOT NULL,
				PRIMARY KEY (company_id, fiscal_year, end_month, variant)
			);`},
		{"companies", `
			CREATE TABLE IF NOT EXISTS companies (
				edinet_code TEXT PRIMARY KEY,
				sec_code TEXT DEFAULT '',
				name TEXT NOT NULL
			);`},
		{"companies index", `CREATE INDEX IF NOT EXISTS idx_companies_sec_code ON companies(sec_code);`},
	}
	for _, s := range statements {
		if _, err := db.conn.Exec(s.sql); err != nil {
			return fmt.Errorf("failed to create %s table: %w", s.name, err)
		}
	}
	return nil
}

// StoreFilingList stores one day's filing list and records its filers.
func (db *DB) StoreFilingList(date time.Time, list []edinet.FilingSummary) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal filing list: %w", err)
	}
	query := `
		INSERT OR REPLACE INTO filing_lists (list_date, data, fetched_at)
		VALUES (?, ?, ?)
	`
	if _, err := db.conn.Exec(query, fiscal.Format(date), data, db.now().Unix()); err != nil {
		return fmt.Errorf("failed to store filing list: %w", err)
	}
	return db.storeCompanies(list)
}

// GetFilingList returns a cached filing list no older than maxAge. A zero
// maxAge accepts any age.
func (db *DB) GetFilingList(date time.Time, maxAge time.Duration) ([]edinet.FilingSummary, error) {
	query := "SELECT data, fetched_at FROM filing_lists WHERE list_date = ?"

	var data []byte
	var fetchedAt int64
	err := db.conn.QueryRow(query, fiscal.Format(date)).Scan(&data, &fetchedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to query filing list: %w", err)
	}
	if db.stale(fetchedAt, maxAge) {
		return nil, ErrMiss
	}

	var list []edinet.FilingSummary
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filing list: %w", err)
	}
	return list, nil
}

// StoreDocument stores a retrieved XBRL instance.
func (db *DB) StoreDocument(docID, xbrlText string) error {
	query := `
		INSERT OR REPLACE INTO documents (doc_id, xbrl, fetched_at)
		VALUES (?, ?, ?)
	`
	if _, err := db.conn.Exec(query, docID, []byte(xbrlText), db.now().Unix()); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

// GetDocument retrieves a stored XBRL instance.
func (db *DB) GetDocument(docID string) (string, error) {
	query := "SELECT xbrl FROM documents WHERE doc_id = ?"

	var data []byte
	err := db.conn.QueryRow(query, docID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrMiss
		}
		return "", fmt.Errorf("failed to query document: %w", err)
	}
	return string(data), nil
}

// FactSetRecord is a cached extraction: the fact set with the filing and
// contexts it came from.
type FactSetRecord struct {
	Facts     *facts.FinancialFactSet `json:"facts"`
	Breakdown *facts.Breakdown        `json:"breakdown,omitempty"`
	Filing    filing.Reference        `json:"filing"`
	Contexts  xbrl.TargetContextPair  `json:"contexts"`
}

// FactSetKey identifies a cached extraction. Variant distinguishes results
// produced under different extraction policies.
type FactSetKey struct {
	CompanyID string
	Year      fiscal.Year
	Variant   string
}

// StoreFactSet stores an extraction.
func (db *DB) StoreFactSet(key FactSetKey, rec *FactSetRecord) error {
	if rec == nil || rec.Facts == nil {
		return fmt.Errorf("fact set record must carry facts")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal fact set: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO fact_sets (company_id, fiscal_year, end_month, variant, company_name, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.conn.Exec(query, normalizeID(key.CompanyID), key.Year.Year, int(key.Year.EndMonth),
		key.Variant, rec.Facts.CompanyName, data, db.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store fact set: %w", err)
	}
	return nil
}

// GetFactSet retrieves an extraction no older than maxAge. A zero maxAge
// accepts any age.
func (db *DB) GetFactSet(key FactSetKey, maxAge time.Duration) (*FactSetRecord, error) {
	query := `
		SELECT data, updated_at FROM fact_sets
		WHERE company_id = ? AND fiscal_year = ? AND end_month = ? AND variant = ?
	`

	var data []byte
	var updatedAt int64
	err := db.conn.QueryRow(query, normalizeID(key.CompanyID), key.Year.Year, int(key.Year.EndMonth), key.Variant).
		Scan(&data, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to query fact set: %w", err)
	}
	if db.stale(updatedAt, maxAge) {
		return nil, ErrMiss
	}

	var rec FactSetRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fact set: %w", err)
	}
	return &rec, nil
}

// FactSetSummary is one row of ListFactSets.
type FactSetSummary struct {
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	FiscalYear  int       `json:"fiscal_year"`
	EndMonth    int       `json:"end_month"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFactSets returns every cached extraction ordered by company name.
func (db *DB) ListFactSets() ([]FactSetSummary, error) {
	query := `
		SELECT company_id, company_name, fiscal_year, end_month, MAX(updated_at)
		FROM fact_sets
		GROUP BY company_id, fiscal_year, end_month
		ORDER BY company_name, company_id, fiscal_year DESC
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fact sets: %w", err)
	}
	defer rows.Close()

	var out []FactSetSummary
	for rows.Next() {
		var s FactSetSummary
		var updatedAt int64
		if err := rows.Scan(&s.CompanyID, &s.CompanyName, &s.FiscalYear, &s.EndMonth, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fact set row: %w", err)
		}
		s.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// Company is a filer seen in a filing list.
type Company struct {
	EdinetCode string `json:"edinet_code"`
	SecCode    string `json:"sec_code,omitempty"`
	Name       string `json:"name"`
}

func (db *DB) storeCompanies(list []edinet.FilingSummary) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO companies (edinet_code, sec_code, name)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, f := range list {
		if f.EdinetCode == "" || f.FilerName == "" {
			continue
		}
		if _, err := stmt.Exec(f.EdinetCode, f.SecCode, f.FilerName); err != nil {
			return fmt.Errorf("failed to store company: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SearchCompanies finds filers whose name contains query or whose codes
// start with it.
func (db *DB) SearchCompanies(query string, limit int) ([]Company, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(query)

	sqlQuery := `
		SELECT edinet_code, sec_code, name
		FROM companies
		WHERE name LIKE ? ESCAPE '\' OR edinet_code LIKE ? ESCAPE '\' OR sec_code LIKE ? ESCAPE '\'
		ORDER BY name
		LIMIT ?
	`
	rows, err := db.conn.Query(sqlQuery, "%"+escaped+"%", strings.ToUpper(escaped)+"%", escaped+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search companies: %w", err)
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.EdinetCode, &c.SecCode, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan company row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) stale(unix int64, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return db.now().Sub(time.Unix(unix, 0)) > maxAge
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
