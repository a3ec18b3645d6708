package formatter

import (
	"io"
	"strings"

	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
	"github.com/shopspring/decimal"
)

// maxSummaryGroups bounds the breakdown printed under the summary.
const maxSummaryGroups = 10

// SummaryFormatter prints the summary card of a view.
type SummaryFormatter struct{}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

// Format prints the scalar metrics, then the leading groups when the
// report is grouped.
func (f *SummaryFormatter) Format(w io.Writer, r *Report) error {
	tw := &tableWriter{w: w}
	rule := strings.Repeat("=", 60)
	s := r.Summary

	tw.printf("%s\nCloud Cost Summary (%s)\n%s\n\n", rule, r.Capabilities.Profile, rule)

	if s.RecordCount == 0 {
		tw.printf("No cost data for the current filters\n\n%s\n", rule)
		return tw.err
	}

	if s.PeriodStart == s.PeriodEnd {
		tw.printf("Period:        %s\n", s.PeriodStart)
	} else {
		tw.printf("Period:        %s to %s (%d months)\n", s.PeriodStart, s.PeriodEnd, s.MonthCount)
	}
	tw.printf("Total Cost:    %s\n", util.FormatCurrency(s.TotalCost))
	tw.printf("Avg Monthly:   %s\n", util.FormatCurrency(s.AvgMonthly))
	tw.printf("Services:      %s\n", util.FormatCount(s.ServiceCount))
	tw.printf("Records:       %s\n", util.FormatCount(s.RecordCount))

	if r.Grouped() && len(r.Groups) > 0 {
		tw.printf("\nBy %s:\n%s\n", r.GroupLabel, strings.Repeat("-", 60))

		groups := r.Groups
		if len(groups) > maxSummaryGroups {
			groups = groups[:maxSummaryGroups]
		}
		keyWidth := 0
		for _, g := range groups {
			keyWidth = max(keyWidth, util.GetDisplayWidth(g.Key))
		}
		keyWidth = min(keyWidth, 40)
		for _, g := range groups {
			key := util.PadString(util.Truncate(g.Key, keyWidth), keyWidth, true)
			tw.printf("  %s  %14s  %6s\n", key, util.FormatCurrency(g.Cost), share(g.Cost, s.TotalCost))
		}
		if rest := len(r.Groups) - len(groups); rest > 0 {
			tw.printf("  ... %d more\n", rest)
		}
	}

	if r.Query != "" {
		tw.printf("\nQuery: ?%s\n", r.Query)
	}
	tw.printf("\n%s\n", rule)
	return tw.err
}

// share is cost as a percentage of total
func share(cost, total decimal.Decimal) string {
	if total.IsZero() {
		return "-"
	}
	return cost.Div(total).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}
