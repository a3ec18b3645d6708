package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
	"github.com/shopspring/decimal"
)

const costHeader = "Cost (USD)"

type TableFormatter struct {
	minWidth int
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{minWidth: 6}
}

func (f *TableFormatter) Format(w io.Writer, r *Report) error {
	var headers []string
	var rows [][]string
	var total decimal.Decimal

	if r.Grouped() {
		headers = []string{r.GroupLabel, costHeader}
		for _, g := range r.Groups {
			rows = append(rows, []string{g.Key, util.FormatCurrency(g.Cost)})
			total = total.Add(g.Cost)
		}
	} else {
		cols := r.Capabilities.Columns()
		headers = append(columnLabels(cols), costHeader)
		for _, rec := range r.Records {
			rows = append(rows, append(recordRow(rec, cols), util.FormatCurrency(rec.CostUSD)))
			total = total.Add(rec.CostUSD)
		}
	}

	totalRow := make([]string, len(headers))
	totalRow[0] = "Total"
	totalRow[len(totalRow)-1] = util.FormatCurrency(total)

	widths := f.columnWidths(headers, rows, totalRow)
	tw := &tableWriter{w: w, widths: widths}

	tw.border("top")
	tw.row(headers)
	tw.border("middle")
	for _, row := range rows {
		tw.row(row)
	}
	tw.border("middle")
	tw.row(totalRow)
	tw.border("bottom")

	if !r.Grouped() {
		tw.printf("Showing %s of %s records", util.FormatCount(len(r.Records)), util.FormatCount(r.Total))
		if r.HasMore {
			tw.printf(" (more available)")
		}
		tw.printf("\n")
	}
	if r.Query != "" {
		tw.printf("Query: ?%s\n", r.Query)
	}
	return tw.err
}

// columnWidths sizes each column to its widest cell
func (f *TableFormatter) columnWidths(headers []string, rows [][]string, totalRow []string) []int {
	widths := make([]int, len(headers))
	measure := func(cells []string) {
		for i, c := range cells {
			if n := util.GetDisplayWidth(c); n > widths[i] {
				widths[i] = n
			}
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}
	measure(totalRow)

	for i := range widths {
		if widths[i] < f.minWidth {
			widths[i] = f.minWidth
		}
	}
	return widths
}

// tableWriter keeps the first write error so callers check once.
type tableWriter struct {
	w      io.Writer
	widths []int
	err    error
}

func (t *tableWriter) printf(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *tableWriter) border(kind string) {
	var left, middle, right string
	switch kind {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	default:
		left, middle, right = "└", "┴", "┘"
	}

	parts := make([]string, len(t.widths))
	for i, width := range t.widths {
		parts[i] = strings.Repeat("─", width+2)
	}
	t.printf("%s%s%s\n", left, strings.Join(parts, middle), right)
}

// row left-aligns text columns and right-aligns the trailing cost column
func (t *tableWriter) row(values []string) {
	var b strings.Builder
	b.WriteString("│")
	last := len(values) - 1
	for i, v := range values {
		b.WriteString(" ")
		b.WriteString(util.PadString(v, t.widths[i], i != last))
		b.WriteString(" │")
	}
	t.printf("%s\n", b.String())
}
