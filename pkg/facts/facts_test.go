package facts

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horiken1977/roic-sub001/pkg/xbrl"
)

const (
	dur  = "CurrentYearDuration"
	inst = "CurrentYearInstant"
)

func table(facts ...xbrl.Fact) xbrl.FactTable {
	t := xbrl.FactTable{}
	for _, f := range facts {
		t[f.ElementName] = append(t[f.ElementName], f)
	}
	return t
}

func fact(name, ctx, value string) xbrl.Fact {
	return xbrl.Fact{ElementName: name, ContextID: ctx, RawValue: value, UnitRef: "JPY"}
}

func TestResolveNumeric(t *testing.T) {
	tests := []struct {
		name       string
		table      xbrl.FactTable
		candidates []string
		ctx        string
		want       string
	}{
		{
			name: "earlier name wins",
			table: table(
				fact("NetSales", dur, "100"),
				fact("TotalNetRevenuesIFRS", dur, "200"),
			),
			candidates: []string{"TotalNetRevenuesIFRS", "NetSales"},
			want:       "200",
		},
		{
			name:       "thousands separators",
			table:      table(fact("NetSales", dur, " 1,234,567 ")),
			candidates: []string{"NetSales"},
			want:       "1234567",
		},
		{
			name:       "negative",
			table:      table(fact("OperatingIncome", dur, "-5,000")),
			candidates: []string{"OperatingIncome"},
			want:       "-5000",
		},
		{
			name: "substring fallback",
			table: table(
				fact("NetSalesOfCompletedConstructionContracts", dur, "300"),
			),
			candidates: []string{"NetSales"},
			want:       "300",
		},
		{
			name: "exact key in other context falls through to substring",
			table: table(
				fact("NetSales", "Prior1YearDuration", "90"),
				fact("NetSalesOfCompletedConstructionContracts", dur, "300"),
			),
			candidates: []string{"NetSales"},
			want:       "300",
		},
		{
			name: "substring of earlier name beats exact later name",
			table: table(
				fact("RevenueIFRSExtension", dur, "400"),
				fact("NetSales", dur, "100"),
			),
			candidates: []string{"RevenueIFRS", "NetSales"},
			want:       "400",
		},
		{
			name: "nil fact skipped",
			table: table(
				xbrl.Fact{ElementName: "BondsPayableIFRS", ContextID: inst, Nil: true},
				fact("BondsPayable", inst, "50"),
			),
			candidates: []string{"BondsPayableIFRS", "BondsPayable"},
			ctx:        inst,
			want:       "50",
		},
		{
			name: "unparsable value skipped",
			table: table(
				fact("Assets", inst, "n/a"),
				fact("AssetsIFRS", inst, "70"),
			),
			candidates: []string{"Assets"},
			ctx:        inst,
			want:       "70",
		},
		{
			name: "summary key skipped in substring scan",
			table: table(
				fact("NetSalesSummaryOfBusinessResults", dur, "999"),
				fact("NetSalesOfMerchandise", dur, "10"),
			),
			candidates: []string{"NetSales"},
			want:       "10",
		},
		{
			name: "substring scan skips pretax income for income taxes",
			table: table(
				fact("IncomeBeforeIncomeTaxes", dur, "1000"),
				fact("IncomeTaxesCurrent", dur, "300"),
			),
			candidates: DefaultCandidates().IncomeTaxes,
			want:       "300",
		},
		{
			name: "explicit candidate may carry a qualifier",
			table: table(
				fact("IncomeBeforeIncomeTaxesAndMinorityInterests", dur, "800"),
			),
			candidates: DefaultCandidates().PretaxIncome,
			want:       "800",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.ctx
			if ctx == "" {
				ctx = dur
			}
			got, err := ResolveNumeric(tt.table, "item", tt.candidates, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestResolveNumericNeverReturnsSummary(t *testing.T) {
	tbl := table(fact("RevenuesSummaryOfBusinessResults", dur, "31,379,500"))

	_, err := ResolveNumeric(tbl, "net_sales", DefaultCandidates().NetSales, dur)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))

	// a candidate that itself names a summary element is ignored too
	_, err = ResolveNumeric(tbl, "net_sales", []string{"RevenuesSummaryOfBusinessResults"}, dur)
	assert.True(t, errors.Is(err, ErrExtraction))
}

func TestResolveNumericDoesNotCrossItems(t *testing.T) {
	tbl := table(
		fact("NonOperatingIncome", dur, "50"),
		fact("OrdinaryIncome", dur, "900"),
	)

	_, err := ResolveNumeric(tbl, "operating_income", DefaultCandidates().OperatingIncome, dur)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))
}

func TestResolveReportsElement(t *testing.T) {
	tbl := table(fact("NetSalesOfCompletedConstructionContracts", dur, "300"))

	m, err := Resolve(tbl, "net_sales", []string{"NetSales"}, dur)
	require.NoError(t, err)
	assert.Equal(t, "NetSalesOfCompletedConstructionContracts", m.Element)
	assert.Equal(t, "300", m.Value.String())
}

func TestResolveNumericFailureDiagnostics(t *testing.T) {
	tbl := table(
		fact("NetSales", "Prior1YearDuration", "90"),
		fact("NetSales", "Prior2YearDuration", "80"),
		fact("OperatingIncome", dur, "10"),
	)

	_, err := ResolveNumeric(tbl, "net_sales", []string{"RevenueIFRS", "NetSales"}, dur)
	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "net_sales", ee.Item)
	assert.Equal(t, []string{"RevenueIFRS", "NetSales"}, ee.Candidates)
	assert.Equal(t, dur, ee.ContextID)
	assert.Equal(t, []string{"Prior1YearDuration", "Prior2YearDuration"}, ee.ContextsWithValues)
	assert.Contains(t, ee.Error(), "net_sales")
}

func TestInterestBearingDebt(t *testing.T) {
	c := DefaultCandidates()
	tbl := table(
		fact("ShortTermLoansPayable", inst, "100"),
		fact("LongTermLoansPayable", inst, "250"),
		fact("BondsPayable", inst, "50"),
	)

	d, err := InterestBearingDebt(tbl, c, inst)
	require.NoError(t, err)
	assert.Equal(t, "400", d.Total().String())
	assert.True(t, d.Total().Equal(d.ShortTermLoans.Add(d.LongTermLoans).Add(d.Bonds)))
}

func TestInterestBearingDebtMissingComponent(t *testing.T) {
	tbl := table(
		fact("ShortTermLoansPayable", inst, "100"),
		fact("LongTermLoansPayable", inst, "250"),
		xbrl.Fact{ElementName: "BondsPayable", ContextID: inst, Nil: true},
	)

	_, err := InterestBearingDebt(tbl, DefaultCandidates(), inst)
	require.Error(t, err)
	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "bonds", ee.Item)
}

func TestEffectiveTaxRate(t *testing.T) {
	c := DefaultCandidates()
	allow := DefaultTaxPolicy()

	tests := []struct {
		name    string
		table   xbrl.FactTable
		policy  TaxPolicy
		want    string
		source  string
		wantErr error
	}{
		{
			name:   "effective",
			table:  table(fact("IncomeTaxes", dur, "280"), fact("IncomeBeforeIncomeTaxes", dur, "1000")),
			want:   "0.28",
			source: TaxRateEffective,
		},
		{
			name:   "clamped high",
			table:  table(fact("IncomeTaxes", dur, "1500"), fact("IncomeBeforeIncomeTaxes", dur, "1000")),
			want:   "1",
			source: TaxRateEffective,
		},
		{
			name:   "clamped low",
			table:  table(fact("IncomeTaxes", dur, "-20"), fact("IncomeBeforeIncomeTaxes", dur, "1000")),
			want:   "0",
			source: TaxRateEffective,
		},
		{
			name:    "loss without default",
			table:   table(fact("IncomeTaxes", dur, "10"), fact("IncomeBeforeIncomeTaxes", dur, "-1000")),
			wantErr: ErrTaxRateUndefined,
		},
		{
			name:   "loss with default",
			table:  table(fact("IncomeTaxes", dur, "10"), fact("IncomeBeforeIncomeTaxes", dur, "0")),
			policy: allow,
			want:   "0.3",
			source: TaxRateDefault,
		},
		{
			name:    "missing pretax without default",
			table:   table(fact("IncomeTaxes", dur, "280")),
			wantErr: ErrExtraction,
		},
		{
			name:   "missing pretax with explicit default",
			table:  table(fact("IncomeTaxes", dur, "280")),
			policy: TaxPolicy{AllowDefault: true, DefaultRate: decimal.RequireFromString("0.25")},
			want:   "0.25",
			source: TaxRateDefault,
		},
		{
			name:   "zero default is kept",
			table:  table(fact("IncomeTaxes", dur, "280")),
			policy: TaxPolicy{AllowDefault: true, DefaultRate: decimal.Zero},
			want:   "0",
			source: TaxRateDefault,
		},
		{
			name:   "current taxes without a total",
			table:  table(fact("IncomeBeforeIncomeTaxes", dur, "1000"), fact("IncomeTaxesCurrent", dur, "300")),
			want:   "0.3",
			source: TaxRateEffective,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EffectiveTaxRate(tt.table, c, dur, tt.policy)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Rate.String())
			assert.Equal(t, tt.source, got.Source)
		})
	}
}

func TestEffectiveTaxRateRejectsSharedElement(t *testing.T) {
	c := DefaultCandidates()
	c.IncomeTaxes = []string{"IncomeBeforeIncomeTaxes"}
	tbl := table(fact("IncomeBeforeIncomeTaxes", dur, "1000"))

	_, err := EffectiveTaxRate(tbl, c, dur, DefaultTaxPolicy())
	var ee *ExtractionError
	require.True(t, errors.As(err, &ee), "got %v", err)
	assert.Equal(t, "income_taxes", ee.Item)
	assert.Contains(t, ee.Error(), "IncomeBeforeIncomeTaxes resolved both")
}

const extractDoc = `<?xml version="1.0" encoding="UTF-8"?>
<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance"
  xmlns:jppfs_cor="http://disclosure.edinet-fsa.go.jp/taxonomy/jppfs/2023-12-01/jppfs_cor"
  xmlns:jpdei_cor="http://disclosure.edinet-fsa.go.jp/taxonomy/jpdei/2013-08-31/jpdei_cor">
  <xbrli:context id="FilingDateInstant"><xbrli:period><xbrli:instant>2024-06-20</xbrli:instant></xbrli:period></xbrli:context>
  <xbrli:context id="CurrentYearDuration"><xbrli:period><xbrli:startDate>2023-04-01</xbrli:startDate><xbrli:endDate>2024-03-31</xbrli:endDate></xbrli:period></xbrli:context>
  <xbrli:context id="CurrentYearInstant"><xbrli:period><xbrli:instant>2024-03-31</xbrli:instant></xbrli:period></xbrli:context>
  <jpdei_cor:FilerNameInJapaneseDEI contextRef="FilingDateInstant">テスト工業株式会社</jpdei_cor:FilerNameInJapaneseDEI>
  <jppfs_cor:NetSales contextRef="CurrentYearDuration" unitRef="JPY" decimals="-6">31379500000000</jppfs_cor:NetSales>
  <jppfs_cor:OperatingIncome contextRef="CurrentYearDuration" unitRef="JPY" decimals="-6">2725000000000</jppfs_cor:OperatingIncome>
  <jppfs_cor:IncomeTaxes contextRef="CurrentYearDuration" unitRef="JPY" decimals="-6">840000000000</jppfs_cor:IncomeTaxes>
  <jppfs_cor:IncomeBeforeIncomeTaxes contextRef="CurrentYearDuration" unitRef="JPY" decimals="-6">3000000000000</jppfs_cor:IncomeBeforeIncomeTaxes>
  <jppfs_cor:Assets contextRef="CurrentYearInstant" unitRef="JPY" decimals="-6">53713000000000</jppfs_cor:Assets>
  <jppfs_cor:CashAndDeposits contextRef="CurrentYearInstant" unitRef="JPY" decimals="-6">4885000000000</jppfs_cor:CashAndDeposits>
  <jppfs_cor:ShareholdersEquity contextRef="CurrentYearInstant" unitRef="JPY" decimals="-6">23913000000000</jppfs_cor:ShareholdersEquity>
  <jppfs_cor:ShortTermLoansPayable contextRef="CurrentYearInstant" unitRef="JPY" decimals="-6">1826000000000</jppfs_cor:ShortTermLoansPayable>
  <jppfs_cor:LongTermLoansPayable contextRef="CurrentYearInstant" unitRef="JPY" decimals="-6">5000000000000</jppfs_cor:LongTermLoansPayable>
  <jppfs_cor:BondsPayable contextRef="CurrentYearInstant" unitRef="JPY" decimals="-6">2000000000000</jppfs_cor:BondsPayable>
</xbrli:xbrl>`

func TestExtract(t *testing.T) {
	doc, err := xbrl.ParseString(extractDoc)
	require.NoError(t, err)

	e := NewExtractor(Candidates{}, TaxPolicy{})
	filer := Filer{CompanyID: "E99999", FiscalYear: 2024, Name: "fallback"}
	set, breakdown, err := e.Extract(doc.Facts, xbrl.TargetContextPair{DurationContextID: dur, InstantContextID: inst}, filer)
	require.NoError(t, err)

	assert.Equal(t, "E99999", set.CompanyID)
	assert.Equal(t, 2024, set.FiscalYear)
	assert.Equal(t, "テスト工業株式会社", set.CompanyName)
	assert.Equal(t, "31379500000000", set.NetSales.String())
	assert.Equal(t, "2725000000000", set.OperatingIncome.String())
	assert.Equal(t, "53713000000000", set.TotalAssets.String())
	assert.Equal(t, "4885000000000", set.CashAndEquivalents.String())
	assert.Equal(t, "23913000000000", set.ShareholdersEquity.String())
	assert.Equal(t, "8826000000000", set.InterestBearingDebt.String())
	assert.Equal(t, "0.28", set.TaxRate.String())
	assert.Equal(t, TaxRateEffective, set.TaxRateSource)
	assert.Equal(t, "2000000000000", breakdown.Debt.Bonds.String())
}

func TestExtractRequiresContextPair(t *testing.T) {
	e := NewExtractor(Candidates{}, TaxPolicy{})
	_, _, err := e.Extract(xbrl.FactTable{}, xbrl.TargetContextPair{DurationContextID: dur}, Filer{})
	assert.True(t, errors.Is(err, xbrl.ErrContextResolution))
}

func TestExtractFailsOnMissingItem(t *testing.T) {
	doc, err := xbrl.ParseString(extractDoc)
	require.NoError(t, err)
	delete(doc.Facts, "ShareholdersEquity")

	e := NewExtractor(Candidates{}, TaxPolicy{})
	_, _, err = e.Extract(doc.Facts, xbrl.TargetContextPair{DurationContextID: dur, InstantContextID: inst}, Filer{})
	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "shareholders_equity", ee.Item)
}

func TestExtractFallsBackToFilerName(t *testing.T) {
	doc, err := xbrl.ParseString(extractDoc)
	require.NoError(t, err)
	delete(doc.Facts, "FilerNameInJapaneseDEI")

	e := NewExtractor(Candidates{}, TaxPolicy{})
	set, _, err := e.Extract(doc.Facts, xbrl.TargetContextPair{DurationContextID: dur, InstantContextID: inst},
		Filer{CompanyID: "E99999", FiscalYear: 2024, Name: "テスト工業"})
	require.NoError(t, err)
	assert.Equal(t, "テスト工業", set.CompanyName)
}

func TestCandidatesWithDefaults(t *testing.T) {
	c := Candidates{NetSales: []string{"CustomRevenue"}}.WithDefaults()
	assert.Equal(t, []string{"CustomRevenue"}, c.NetSales)
	assert.Equal(t, DefaultCandidates().Bonds, c.Bonds)
}
