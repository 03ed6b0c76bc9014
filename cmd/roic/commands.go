package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/horiken1977/roic-sub001/pkg/analysis"
	"github.com/horiken1977/roic-sub001/pkg/roic"
)

var errNoCache = errors.New("cache is disabled; set [cache] path or ROIC_CACHE_PATH")

func newAnalyzeCmd(g *globalFlags) *cobra.Command {
	var (
		req    analysis.Request
		month  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Locate the annual report, extract its facts and compute ROIC",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()

			req.EndMonth = time.Month(month)
			report, err := a.Service.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return writeTable(cmd.OutOrStdout(), report, roic.NewFormatter(language.Japanese))
		},
	}
	cmd.Flags().StringVar(&req.CompanyID, "company", "", "EDINET code (E12345) or securities code (7203)")
	cmd.Flags().IntVar(&req.FiscalYear, "year", time.Now().Year()-1, "fiscal year")
	cmd.Flags().IntVar(&month, "fy-end-month", 0, "fiscal-year-end month (default from config)")
	cmd.Flags().BoolVar(&req.Debug, "debug", false, "include contexts and fact statistics, bypassing the cache")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	cmd.MarkFlagRequired("company")
	return cmd
}

func newSearchCmd(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <name or code>",
		Short: "Search filers seen in cached filing lists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()
			if a.DB == nil {
				return errNoCache
			}

			companies, err := a.DB.SearchCompanies(args[0], limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, c := range companies {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.EdinetCode, c.SecCode, c.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results")
	return cmd
}

func newCachedCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cached",
		Short: "List cached fact sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()
			if a.DB == nil {
				return errNoCache
			}

			sets, err := a.DB.ListFactSets()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, s := range sets {
				fmt.Fprintf(tw, "%s\tFY%d/%02d\t%s\t%s\n", s.CompanyID, s.FiscalYear, s.EndMonth, s.CompanyName, s.UpdatedAt.Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func writeJSON(w io.Writer, report *analysis.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeTable(w io.Writer, report *analysis.Report, f *roic.Formatter) error {
	set := report.Facts
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s (%s) FY%d\n", set.CompanyName, set.CompanyID, set.FiscalYear)
	fmt.Fprintf(tw, "document\t%s\n", report.Filing.DocumentID)
	if report.Filing.Approximate {
		fmt.Fprintf(tw, "match\tapproximate (period end %s)\n", report.Filing.PeriodEnd.Format(time.DateOnly))
	}
	if report.Cached {
		fmt.Fprintf(tw, "source\tcache\n")
	}
	fmt.Fprintln(tw)

	rows := []struct {
		label string
		value string
	}{
		{"net sales", f.Millions(set.NetSales)},
		{"operating income", f.Millions(set.OperatingIncome)},
		{"total assets", f.Millions(set.TotalAssets)},
		{"cash and equivalents", f.Millions(set.CashAndEquivalents)},
		{"shareholders' equity", f.Millions(set.ShareholdersEquity)},
		{"interest-bearing debt", f.Millions(set.InterestBearingDebt)},
		{"tax rate", roic.FormatPercent(set.TaxRate) + " (" + set.TaxRateSource + ")"},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r.label, r.value)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "formula\tROIC\tNOPAT\tinvested capital")
	for _, r := range report.ROIC.List() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Formula, roic.FormatPercent(r.ROIC), f.Millions(r.NOPAT), f.Millions(r.InvestedCapital))
	}
	return tw.Flush()
}
