package layout

import (
	"fmt"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/view"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
	"github.com/shopspring/decimal"
)

const (
	breakdownRows = 5
	// fullChromeLines counts every line of the full layout except record rows.
	fullChromeLines = 13 + breakdownRows
	minRecordRows   = 3
)

// FullLayoutStrategy implements the full dashboard layout
type FullLayoutStrategy struct {
	BaseStrategy
}

func (s *FullLayoutStrategy) GetName() string {
	return "Full Dashboard"
}

func (s *FullLayoutStrategy) RecordRows(sizer *Sizer) int {
	return max(sizer.FrameHeight()-fullChromeLines, minRecordRows)
}

func (s *FullLayoutStrategy) Render(snap *view.Snapshot, param LayoutParam) []string {
	width := param.Sizer.FrameWidth()
	rows := s.RecordRows(param.Sizer)

	title := fmt.Sprintf("Cloud Cost Explorer · %s", snap.Capabilities.Profile)
	if !param.Now.IsZero() {
		title += " · " + param.Now.Format("15:04:05")
	}

	lines := []string{s.TopBorder(title, width)}
	lines = append(lines, s.summary(snap, width)...)
	lines = append(lines, s.Line(s.FilterLine(snap), width))

	lines = append(lines, s.Separator(width))
	lines = append(lines, s.breakdown(param, width)...)

	lines = append(lines, s.Separator(width))
	for _, l := range s.RecordTable(snap, param.Scroll, rows, width-4) {
		lines = append(lines, s.Line(l, width))
	}
	for i := len(visibleWindow(snap.Visible, param.Scroll, rows)); i < rows; i++ {
		lines = append(lines, s.Line("", width))
	}
	lines = append(lines, s.Line(s.PositionLine(snap, param.Scroll, rows), width))

	lines = append(lines, s.Separator(width))
	query := "Share: ?" + snap.Query
	if snap.Query == "" {
		query = "Share: (no filters)"
	}
	lines = append(lines, s.Line(query, width))
	lines = append(lines, s.Line(s.StatusLine(snap, param.StatusMessage), width))
	lines = append(lines, s.BottomBorder(width))
	return lines
}

func (s *FullLayoutStrategy) summary(snap *view.Snapshot, width int) []string {
	sum := snap.Summary
	totals := fmt.Sprintf("Total %s   Avg/month %s   Services %s   Records %s",
		util.FormatCurrency(sum.TotalCost),
		util.FormatCurrency(sum.AvgMonthly),
		util.FormatCount(sum.ServiceCount),
		util.FormatCount(sum.RecordCount))

	period := "Period: -"
	if !sum.PeriodStart.IsZero() {
		period = fmt.Sprintf("Period: %s → %s (%d months)", sum.PeriodStart, sum.PeriodEnd, sum.MonthCount)
	}
	return []string{s.Line(totals, width), s.Line(period, width)}
}

// breakdown always yields 1+breakdownRows lines so the layout does not jump
func (s *FullLayoutStrategy) breakdown(param LayoutParam, width int) []string {
	header := "By service"
	if param.SortLabel != "" {
		header += " (" + param.SortLabel + ")"
	}
	lines := []string{s.Line(header, width)}

	groups := param.Breakdown
	if len(groups) > breakdownRows {
		groups = groups[:breakdownRows]
	}

	inner := width - 4
	const costWidth = 12
	labelWidth := min(24, inner/3)
	barWidth := max(inner-labelWidth-costWidth-2, 0)

	var peak decimal.Decimal
	for _, g := range param.Breakdown {
		if g.Cost.GreaterThan(peak) {
			peak = g.Cost
		}
	}

	for _, g := range groups {
		label := param.Sizer.Fit(g.Key, labelWidth, true)
		bar := param.Sizer.Fit(s.Bar(g.Cost, peak, barWidth), barWidth, true)
		cost := util.PadString(util.FormatCurrency(g.Cost), costWidth, false)
		lines = append(lines, s.Line(label+" "+bar+" "+cost, width))
	}
	for i := len(groups); i < breakdownRows; i++ {
		lines = append(lines, s.Line("", width))
	}
	return lines
}
