// Package facts resolves financial items from an XBRL fact table and
// assembles them into a FinancialFactSet.
package facts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/horiken1977/roic-sub001/pkg/xbrl"
)

// FinancialFactSet is the extracted input to the ROIC formulas. Amounts are
// in the filing's base unit (yen); TaxRate is a fraction in [0, 1].
type FinancialFactSet struct {
	CompanyID           string          `json:"company_id"`
	FiscalYear          int             `json:"fiscal_year"`
	CompanyName         string          `json:"company_name,omitempty"`
	NetSales            decimal.Decimal `json:"net_sales"`
	OperatingIncome     decimal.Decimal `json:"operating_income"`
	TotalAssets         decimal.Decimal `json:"total_assets"`
	CashAndEquivalents  decimal.Decimal `json:"cash_and_equivalents"`
	ShareholdersEquity  decimal.Decimal `json:"shareholders_equity"`
	InterestBearingDebt decimal.Decimal `json:"interest_bearing_debt"`
	TaxRate             decimal.Decimal `json:"tax_rate"`
	TaxRateSource       string          `json:"tax_rate_source"`
}

// Breakdown carries the intermediate values behind a FinancialFactSet.
type Breakdown struct {
	Debt Debt    `json:"debt"`
	Tax  TaxRate `json:"tax"`
}

// Extractor resolves every item of a FinancialFactSet.
type Extractor struct {
	Candidates Candidates
	Tax        TaxPolicy
}

// NewExtractor returns an Extractor using c, with empty lists taken from
// the built-in candidates.
func NewExtractor(c Candidates, tax TaxPolicy) *Extractor {
	return &Extractor{Candidates: c.WithDefaults(), Tax: tax}
}

// Filer identifies whose report is being extracted.
type Filer struct {
	CompanyID  string
	FiscalYear int
	// Name is used when the document carries no DEI filer name.
	Name string
}

// Fingerprint hashes the candidate lists and tax policy, so results produced
// under different settings can be told apart.
func (e *Extractor) Fingerprint() string {
	data, _ := json.Marshal(struct {
		Candidates   Candidates `json:"candidates"`
		AllowDefault bool       `json:"allow_default"`
		DefaultRate  string     `json:"default_rate"`
	}{e.Candidates, e.Tax.AllowDefault, e.Tax.DefaultRate.String()})
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// Extract resolves flow items in the duration context and stock items in the
// instant context. The first item that cannot be resolved fails the set.
func (e *Extractor) Extract(table xbrl.FactTable, pair xbrl.TargetContextPair, filer Filer) (*FinancialFactSet, *Breakdown, error) {
	if err := pair.Validate(); err != nil {
		return nil, nil, err
	}
	c := e.Candidates
	name := CompanyName(table)
	if name == "" {
		name = filer.Name
	}
	set := &FinancialFactSet{
		CompanyID:   filer.CompanyID,
		FiscalYear:  filer.FiscalYear,
		CompanyName: name,
	}

	items := []struct {
		item       string
		candidates []string
		contextID  string
		dst        *decimal.Decimal
	}{
		{"net_sales", c.NetSales, pair.DurationContextID, &set.NetSales},
		{"operating_income", c.OperatingIncome, pair.DurationContextID, &set.OperatingIncome},
		{"total_assets", c.TotalAssets, pair.InstantContextID, &set.TotalAssets},
		{"cash_and_equivalents", c.CashAndEquivalents, pair.InstantContextID, &set.CashAndEquivalents},
		{"shareholders_equity", c.ShareholdersEquity, pair.InstantContextID, &set.ShareholdersEquity},
	}
	for _, it := range items {
		v, err := ResolveNumeric(table, it.item, it.candidates, it.contextID)
		if err != nil {
			return nil, nil, err
		}
		*it.dst = v
	}

	debt, err := InterestBearingDebt(table, c, pair.InstantContextID)
	if err != nil {
		return nil, nil, err
	}
	set.InterestBearingDebt = debt.Total()

	tax, err := EffectiveTaxRate(table, c, pair.DurationContextID, e.Tax)
	if err != nil {
		return nil, nil, err
	}
	set.TaxRate = tax.Rate
	set.TaxRateSource = tax.Source

	return set, &Breakdown{Debt: debt, Tax: tax}, nil
}

var filerNameElements = []string{"FilerNameInJapaneseDEI", "FilerNameInEnglishDEI", "CompanyNameCoverPage"}

// CompanyName returns the filer name from the document's DEI facts, or "".
func CompanyName(table xbrl.FactTable) string {
	for _, name := range filerNameElements {
		for _, f := range table[name] {
			if v := strings.TrimSpace(f.RawValue); v != "" && !f.Nil {
				return v
			}
		}
	}
	return ""
}

// String renders the set for logs and the CLI.
func (s *FinancialFactSet) String() string {
	return fmt.Sprintf("%s FY%d sales=%s opInc=%s assets=%s cash=%s equity=%s debt=%s tax=%s(%s)",
		s.CompanyID, s.FiscalYear, s.NetSales, s.OperatingIncome, s.TotalAssets,
		s.CashAndEquivalents, s.ShareholdersEquity, s.InterestBearingDebt, s.TaxRate, s.TaxRateSource)
}
