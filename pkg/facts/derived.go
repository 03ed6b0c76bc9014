package facts

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/horiken1977/roic-sub001/pkg/xbrl"
)

// Debt is interest-bearing debt with its three components.
type Debt struct {
	ShortTermLoans decimal.Decimal `json:"short_term_loans"`
	LongTermLoans  decimal.Decimal `json:"long_term_loans"`
	Bonds          decimal.Decimal `json:"bonds"`
}

// Total is the sum of the components.
func (d Debt) Total() decimal.Decimal {
	return d.ShortTermLoans.Add(d.LongTermLoans).Add(d.Bonds)
}

// InterestBearingDebt resolves short-term loans, long-term loans and bonds
// in the instant context. All three are required; a missing component fails
// the whole metric.
func InterestBearingDebt(table xbrl.FactTable, c Candidates, instantContextID string) (Debt, error) {
	var d Debt
	var err error
	if d.ShortTermLoans, err = ResolveNumeric(table, "short_term_loans", c.ShortTermLoans, instantContextID); err != nil {
		return Debt{}, fmt.Errorf("interest-bearing debt: %w", err)
	}
	if d.LongTermLoans, err = ResolveNumeric(table, "long_term_loans", c.LongTermLoans, instantContextID); err != nil {
		return Debt{}, fmt.Errorf("interest-bearing debt: %w", err)
	}
	if d.Bonds, err = ResolveNumeric(table, "bonds", c.Bonds, instantContextID); err != nil {
		return Debt{}, fmt.Errorf("interest-bearing debt: %w", err)
	}
	return d, nil
}

// ErrTaxRateUndefined is returned when no effective rate can be computed and
// the caller has not opted into a default.
var ErrTaxRateUndefined = errors.New("effective tax rate undefined")

// Tax rate provenance recorded on a FinancialFactSet.
const (
	TaxRateEffective = "effective"
	TaxRateDefault   = "default"
)

// TaxPolicy controls what happens when the effective rate is undefined.
type TaxPolicy struct {
	AllowDefault bool
	DefaultRate  decimal.Decimal
}

// DefaultTaxRate is the statutory-like rate configured out of the box.
var DefaultTaxRate = decimal.RequireFromString("0.30")

// DefaultTaxPolicy allows the default at DefaultTaxRate.
func DefaultTaxPolicy() TaxPolicy {
	return TaxPolicy{AllowDefault: true, DefaultRate: DefaultTaxRate}
}

// TaxRate is an effective tax rate and where it came from.
type TaxRate struct {
	Rate         decimal.Decimal `json:"rate"`
	Source       string          `json:"source"`
	IncomeTaxes  decimal.Decimal `json:"income_taxes"`
	PretaxIncome decimal.Decimal `json:"pretax_income"`
}

// EffectiveTaxRate divides income taxes by pretax income, both from the
// duration context, clamping the result to [0, 1]. It is defined only for
// positive pretax income. Otherwise the policy's default is used if allowed,
// or ErrTaxRateUndefined (or the underlying ExtractionError) is returned.
func EffectiveTaxRate(table xbrl.FactTable, c Candidates, durationContextID string, policy TaxPolicy) (TaxRate, error) {
	taxMatch, err := Resolve(table, "income_taxes", c.IncomeTaxes, durationContextID)
	if err != nil {
		return fallbackRate(policy, fmt.Errorf("effective tax rate: %w", err))
	}
	pretaxMatch, err := Resolve(table, "pretax_income", c.PretaxIncome, durationContextID)
	if err != nil {
		return fallbackRate(policy, fmt.Errorf("effective tax rate: %w", err))
	}
	if taxMatch.Element == pretaxMatch.Element {
		return TaxRate{}, &ExtractionError{
			Item:       "income_taxes",
			Candidates: append([]string(nil), c.IncomeTaxes...),
			ContextID:  durationContextID,
			Reason:     fmt.Sprintf("%s resolved both income taxes and pretax income", taxMatch.Element),
		}
	}
	taxes, pretax := taxMatch.Value, pretaxMatch.Value
	if !pretax.IsPositive() {
		r, err := fallbackRate(policy, fmt.Errorf("%w: pretax income %s is not positive (income taxes %s)",
			ErrTaxRateUndefined, pretax, taxes))
		r.IncomeTaxes, r.PretaxIncome = taxes, pretax
		return r, err
	}
	return TaxRate{
		Rate:         clamp01(taxes.Div(pretax)),
		Source:       TaxRateEffective,
		IncomeTaxes:  taxes,
		PretaxIncome: pretax,
	}, nil
}

func fallbackRate(policy TaxPolicy, cause error) (TaxRate, error) {
	if !policy.AllowDefault {
		return TaxRate{}, cause
	}
	return TaxRate{Rate: clamp01(policy.DefaultRate), Source: TaxRateDefault}, nil
}

func clamp01(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return d
}
