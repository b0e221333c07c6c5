package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"bnb-living-costs/models"
)

// ReportPrinter renders a run to a terminal.
type ReportPrinter struct {
	out io.Writer
}

func NewReportPrinter(out io.Writer) *ReportPrinter {
	return &ReportPrinter{out: out}
}

func (p *ReportPrinter) Print(r *models.AnalysisResult) {
	sep := strings.Repeat("═", 66)
	thin := strings.Repeat("─", 66)

	fmt.Fprintf(p.out, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(p.out, "\033[1;35m  📊 SHORT-TERM RENTAL PRICE vs COST OF LIVING\033[0m\n")
	fmt.Fprintf(p.out, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(p.out, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(p.out, "  %s\n", thin)
	fmt.Fprintf(p.out, "  Run                : %s\n", r.RunID)
	fmt.Fprintf(p.out, "  Listings analysed  : \033[1m%d\033[0m\n", len(r.Listings))
	fmt.Fprintf(p.out, "  Cities             : \033[1m%d\033[0m\n", r.Summary.Len())
	if r.OutliersRemoved > 0 {
		fmt.Fprintf(p.out, "  Outliers removed   : %d\n", r.OutliersRemoved)
	}
	fmt.Fprintln(p.out)

	p.printSummary(r.Summary, thin)
	p.printReport("Per-listing correlation (price)", r.ListingReport, thin)
	p.printReport("Per-city correlation (avg_price)", r.CityReport, thin)

	fmt.Fprintf(p.out, "\033[1;35m%s\033[0m\n\n", sep)
}

func (p *ReportPrinter) printSummary(t *models.Table, thin string) {
	fmt.Fprintf(p.out, "\033[1;33m  Average and median prices by city\033[0m\n")
	fmt.Fprintf(p.out, "  %s\n", thin)

	cities, _ := t.Text(ColCity)
	avg, _ := t.Numeric(ColAvgPrice)
	med, _ := t.Numeric(ColMedianPrice)
	fee, _ := t.Numeric(ColAvgFee)

	order := make([]int, len(cities))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		x, y := avg[order[a]], avg[order[b]]
		if math.IsNaN(y) {
			return !math.IsNaN(x)
		}
		return x > y
	})

	fmt.Fprintf(p.out, "  %-14s %12s %12s %12s\n", "City", "Avg price", "Median", "Median fee")
	for _, i := range order {
		fmt.Fprintf(p.out, "  %-14s %12s %12s %12s\n",
			truncate(cities[i], 14), formatValue(avg[i], 2), formatValue(med[i], 2), formatValue(fee[i], 2))
	}
	fmt.Fprintln(p.out)
}

func (p *ReportPrinter) printReport(title string, r *models.CorrelationReport, thin string) {
	fmt.Fprintf(p.out, "\033[1;33m  %s\033[0m\n", title)
	fmt.Fprintf(p.out, "  %s\n", thin)
	if len(r.Rows) == 0 {
		fmt.Fprintf(p.out, "  No numeric categories\n\n")
		return
	}

	fmt.Fprintf(p.out, "  %-24s %10s %10s %10s\n", "Category", "Pearson", "Spearman", "Kendall")
	for _, row := range r.ByPearson() {
		fmt.Fprintf(p.out, "  %-24s %10s %10s %10s\n",
			truncate(row.Category, 24), formatValue(row.Pearson, 3),
			formatValue(row.Spearman, 3), formatValue(row.Kendall, 3))
	}
	fmt.Fprintln(p.out)
}

// formatValue renders undefined values as "n/a".
func formatValue(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", decimals, v)
}

// truncate shortens s to max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
