package formatter

import (
	"io"
	"strings"

	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
	"github.com/shopspring/decimal"
)

const defaultChartWidth = 40

// seriesGlyphs fill the stacked segments, one per series, cycling.
var seriesGlyphs = []string{"█", "▓", "▒", "░", "■", "▪"}

// ChartFormatter draws the report's series table as horizontal stacked bars.
type ChartFormatter struct {
	width int
}

// NewChartFormatter creates a chart formatter with bars up to width cells.
func NewChartFormatter(width int) *ChartFormatter {
	if width <= 0 {
		width = defaultChartWidth
	}
	return &ChartFormatter{width: width}
}

func (f *ChartFormatter) Format(w io.Writer, r *Report) error {
	tw := &tableWriter{w: w}
	table := r.Series

	if len(table.Rows) == 0 {
		tw.printf("No cost data for the current filters\n")
		return tw.err
	}

	var peak decimal.Decimal
	labelWidth := util.GetDisplayWidth(table.RowLabel)
	for _, row := range table.Rows {
		if row.Total.GreaterThan(peak) {
			peak = row.Total
		}
		labelWidth = max(labelWidth, util.GetDisplayWidth(row.Key))
	}
	labelWidth = min(labelWidth, 32)

	if len(table.Series) > 1 {
		legend := make([]string, len(table.Series))
		for i, s := range table.Series {
			legend[i] = seriesGlyphs[i%len(seriesGlyphs)] + " " + s
		}
		tw.printf("%s\n\n", strings.Join(legend, "  "))
	}

	for _, row := range table.Rows {
		label := util.PadString(util.Truncate(row.Key, labelWidth), labelWidth, true)
		tw.printf("%s │%s %s\n", label, util.PadString(f.bar(row.Values, peak), f.width, true), util.FormatCurrency(row.Total))
	}
	return tw.err
}

// bar renders one row's stacked segments scaled against peak. Rounding is
// applied to the running total so segment widths add up to the row's width.
func (f *ChartFormatter) bar(values []decimal.Decimal, peak decimal.Decimal) string {
	if peak.IsZero() {
		return ""
	}
	width := decimal.NewFromInt(int64(f.width))

	var b strings.Builder
	var running decimal.Decimal
	drawn := 0
	for i, v := range values {
		running = running.Add(v)
		end := int(running.Div(peak).Mul(width).Round(0).IntPart())
		if end > drawn {
			b.WriteString(strings.Repeat(seriesGlyphs[i%len(seriesGlyphs)], end-drawn))
			drawn = end
		}
	}
	return b.String()
}
