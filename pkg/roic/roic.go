// Package roic computes return on invested capital from a FinancialFactSet
// under four formulas.
package roic

import (
	"github.com/shopspring/decimal"

	"github.com/horiken1977/roic-sub001/pkg/facts"
)

// Formula names.
const (
	Basic    = "basic"
	Detailed = "detailed"
	Asset    = "asset"
	Modified = "modified"
)

// Result is one formula's outcome. ROIC is a fraction and may be negative.
type Result struct {
	Formula         string                     `json:"formula"`
	ROIC            decimal.Decimal            `json:"roic"`
	NOPAT           decimal.Decimal            `json:"nopat"`
	InvestedCapital decimal.Decimal            `json:"invested_capital"`
	Breakdown       map[string]decimal.Decimal `json:"breakdown"`
}

// Results holds all four formulas for one fact set.
type Results struct {
	Basic    Result `json:"basic"`
	Detailed Result `json:"detailed"`
	Asset    Result `json:"asset"`
	Modified Result `json:"modified"`
}

// List returns the results in presentation order.
func (r Results) List() []Result {
	return []Result{r.Basic, r.Detailed, r.Asset, r.Modified}
}

var one = decimal.NewFromInt(1)

// ComputeAll evaluates every formula against f. A non-positive denominator
// yields a zero ratio rather than an error.
func ComputeAll(f *facts.FinancialFactSet) Results {
	taxFactor := one.Sub(f.TaxRate)
	nopat := f.OperatingIncome.Mul(taxFactor)

	return Results{
		Basic:    basic(f, nopat, taxFactor),
		Detailed: detailed(f, nopat, taxFactor),
		Asset:    asset(f, nopat, taxFactor),
		Modified: modified(f, nopat, taxFactor),
	}
}

// nopat / (total assets - cash)
func basic(f *facts.FinancialFactSet, nopat, taxFactor decimal.Decimal) Result {
	invested := f.TotalAssets.Sub(f.CashAndEquivalents)
	return Result{
		Formula:         Basic,
		ROIC:            safeDiv(nopat, invested),
		NOPAT:           nopat,
		InvestedCapital: invested,
		Breakdown: map[string]decimal.Decimal{
			"operating_income":     f.OperatingIncome,
			"tax_rate":             f.TaxRate,
			"tax_factor":           taxFactor,
			"total_assets":         f.TotalAssets,
			"cash_and_equivalents": f.CashAndEquivalents,
		},
	}
}

// nopat / (equity + interest-bearing debt)
func detailed(f *facts.FinancialFactSet, nopat, taxFactor decimal.Decimal) Result {
	invested := f.ShareholdersEquity.Add(f.InterestBearingDebt)
	return Result{
		Formula:         Detailed,
		ROIC:            safeDiv(nopat, invested),
		NOPAT:           nopat,
		InvestedCapital: invested,
		Breakdown: map[string]decimal.Decimal{
			"operating_income":      f.OperatingIncome,
			"tax_rate":              f.TaxRate,
			"tax_factor":            taxFactor,
			"shareholders_equity":   f.ShareholdersEquity,
			"interest_bearing_debt": f.InterestBearingDebt,
		},
	}
}

// nopat / gross total assets
func asset(f *facts.FinancialFactSet, nopat, taxFactor decimal.Decimal) Result {
	return Result{
		Formula:         Asset,
		ROIC:            safeDiv(nopat, f.TotalAssets),
		NOPAT:           nopat,
		InvestedCapital: f.TotalAssets,
		Breakdown: map[string]decimal.Decimal{
			"operating_income": f.OperatingIncome,
			"tax_rate":         f.TaxRate,
			"tax_factor":       taxFactor,
			"total_assets":     f.TotalAssets,
		},
	}
}

// operating margin x asset turnover x (1 - tax rate)
func modified(f *facts.FinancialFactSet, nopat, taxFactor decimal.Decimal) Result {
	margin := safeDiv(f.OperatingIncome, f.NetSales)
	turnover := safeDiv(f.NetSales, f.TotalAssets)
	return Result{
		Formula:         Modified,
		ROIC:            margin.Mul(turnover).Mul(taxFactor),
		NOPAT:           nopat,
		InvestedCapital: f.TotalAssets,
		Breakdown: map[string]decimal.Decimal{
			"net_sales":        f.NetSales,
			"operating_margin": margin,
			"asset_turnover":   turnover,
			"tax_factor":       taxFactor,
		},
	}
}

func safeDiv(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.Div(den)
}
