package facts

// Candidates holds, per financial item, the element names searched for it,
// most authoritative first. IFRS tags precede their J-GAAP counterparts.
type Candidates struct {
	NetSales           []string `toml:"net_sales" json:"net_sales"`
	OperatingIncome    []string `toml:"operating_income" json:"operating_income"`
	TotalAssets        []string `toml:"total_assets" json:"total_assets"`
	CashAndEquivalents []string `toml:"cash_and_equivalents" json:"cash_and_equivalents"`
	ShareholdersEquity []string `toml:"shareholders_equity" json:"shareholders_equity"`
	ShortTermLoans     []string `toml:"short_term_loans" json:"short_term_loans"`
	LongTermLoans      []string `toml:"long_term_loans" json:"long_term_loans"`
	Bonds              []string `toml:"bonds" json:"bonds"`
	IncomeTaxes        []string `toml:"income_taxes" json:"income_taxes"`
	PretaxIncome       []string `toml:"pretax_income" json:"pretax_income"`
}

// DefaultCandidates returns the built-in name lists for the EDINET jppfs and
// IFRS taxonomies.
func DefaultCandidates() Candidates {
	return Candidates{
		NetSales: []string{
			"RevenueIFRS",
			"NetSalesIFRS",
			"TotalNetRevenuesIFRS",
			"NetSales",
			"OperatingRevenue1",
			"OperatingRevenue2",
			"Revenue",
		},
		OperatingIncome: []string{
			"OperatingProfitLossIFRS",
			"OperatingIncome",
		},
		TotalAssets: []string{
			"AssetsIFRS",
			"TotalAssetsIFRS",
			"Assets",
		},
		CashAndEquivalents: []string{
			"CashAndCashEquivalentsIFRS",
			"CashAndCashEquivalents",
			"CashAndDeposits",
		},
		ShareholdersEquity: []string{
			"EquityAttributableToOwnersOfParentIFRS",
			"ShareholdersEquity",
			"EquityIFRS",
			"NetAssets",
		},
		ShortTermLoans: []string{
			"ShortTermBorrowingsIFRS",
			"BorrowingsCLIFRS",
			"ShortTermLoansPayable",
			"ShortTermBorrowings",
		},
		LongTermLoans: []string{
			"LongTermBorrowingsIFRS",
			"BorrowingsNCLIFRS",
			"LongTermLoansPayable",
			"LongTermBorrowings",
		},
		Bonds: []string{
			"BondsPayableIFRS",
			"BondsPayable",
			"Bonds",
		},
		IncomeTaxes: []string{
			"IncomeTaxExpenseIFRS",
			"TotalIncomeTaxes",
			"IncomeTaxes",
		},
		PretaxIncome: []string{
			"ProfitLossBeforeTaxIFRS",
			"IncomeBeforeIncomeTaxes",
			"IncomeBeforeIncomeTaxesAndMinorityInterests",
		},
	}
}

// WithDefaults fills every empty list from DefaultCandidates.
func (c Candidates) WithDefaults() Candidates {
	d := DefaultCandidates()
	fill := func(dst *[]string, src []string) {
		if len(*dst) == 0 {
			*dst = src
		}
	}
	fill(&c.NetSales, d.NetSales)
	fill(&c.OperatingIncome, d.OperatingIncome)
	fill(&c.TotalAssets, d.TotalAssets)
	fill(&c.CashAndEquivalents, d.CashAndEquivalents)
	fill(&c.ShareholdersEquity, d.ShareholdersEquity)
	fill(&c.ShortTermLoans, d.ShortTermLoans)
	fill(&c.LongTermLoans, d.LongTermLoans)
	fill(&c.Bonds, d.Bonds)
	fill(&c.IncomeTaxes, d.IncomeTaxes)
	fill(&c.PretaxIncome, d.PretaxIncome)
	return c
}
