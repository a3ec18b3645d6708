package layout

import (
	"fmt"
	"strings"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/view"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
	"github.com/shopspring/decimal"
)

// BaseStrategy provides the box drawing and record table shared by layouts
type BaseStrategy struct{}

// TopBorder draws the top edge with a title set into it
func (b *BaseStrategy) TopBorder(title string, width int) string {
	title = " " + util.Truncate(title, width-6) + " "
	fill := width - 2 - util.GetDisplayWidth(title)
	left := 2
	return "╭" + strings.Repeat("─", left) + title + strings.Repeat("─", max(fill-left, 0)) + "╮"
}

// Separator draws an inner rule
func (b *BaseStrategy) Separator(width int) string {
	return "├" + strings.Repeat("─", width-2) + "┤"
}

// BottomBorder draws the bottom edge
func (b *BaseStrategy) BottomBorder(width int) string {
	return "╰" + strings.Repeat("─", width-2) + "╯"
}

// Line boxes one line of content, truncating what does not fit
func (b *BaseStrategy) Line(text string, width int) string {
	inner := width - 4
	return "│ " + util.PadString(util.Truncate(text, inner), inner, true) + " │"
}

// CenterText centers text within the given width
func (b *BaseStrategy) CenterText(text string, width int) string {
	padding := max(width-util.GetDisplayWidth(text), 0)
	left := padding / 2
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", padding-left)
}

// Bar draws a proportional bar of up to width cells
func (b *BaseStrategy) Bar(cost, peak decimal.Decimal, width int) string {
	if peak.IsZero() || width <= 0 {
		return ""
	}
	n := int(cost.Div(peak).Mul(decimal.NewFromInt(int64(width))).Round(0).IntPart())
	return strings.Repeat("█", n)
}

// FilterLine describes the active criteria in query field order
func (b *BaseStrategy) FilterLine(snap *view.Snapshot) string {
	var parts []string
	for _, f := range snap.Capabilities.Fields() {
		if snap.Criteria.Has(f) {
			parts = append(parts, fmt.Sprintf("%s=%s", f, snap.Criteria.Value(f)))
		}
	}
	if len(parts) == 0 {
		return "Filters: none"
	}
	return "Filters: " + strings.Join(parts, "  ")
}

// StatusLine reports loading, errors and ingest problems, most urgent
// first. Empty when there is nothing to say.
func (b *BaseStrategy) StatusLine(snap *view.Snapshot, message string) string {
	switch {
	case snap.Err != nil && snap.Loaded:
		return "Refresh failed, showing last data: " + snap.Err.Error()
	case snap.Err != nil:
		return "Failed to load cost data: " + snap.Err.Error()
	case snap.Loading && !snap.Loaded:
		return "Loading cost data..."
	case snap.Loading:
		return "Refreshing..."
	case message != "":
		return message
	case snap.Dropped > 0:
		return fmt.Sprintf("%d malformed records skipped", snap.Dropped)
	}
	return ""
}

// RecordTable lays out the rows of snap.Visible in [scroll, scroll+rows)
// plus a header, each line at most inner columns wide.
func (b *BaseStrategy) RecordTable(snap *view.Snapshot, scroll, rows, inner int) []string {
	cols := snap.Capabilities.Columns()
	window := visibleWindow(snap.Visible, scroll, rows)

	widths := make([]int, len(cols))
	for i, d := range cols {
		widths[i] = util.GetDisplayWidth(d.Label())
		for _, r := range window {
			widths[i] = max(widths[i], util.GetDisplayWidth(d.Value(r)))
		}
		widths[i] = min(widths[i], 28)
	}

	const costWidth = 12
	used := costWidth
	for _, w := range widths {
		used += w + 2
	}
	// Shrink the widest column until the row fits.
	for used > inner {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= 4 {
			break
		}
		widths[widest]--
		used--
	}

	format := func(cells []string, cost string) string {
		var sb strings.Builder
		for i, c := range cells {
			sb.WriteString(util.PadString(util.Truncate(c, widths[i]), widths[i], true))
			sb.WriteString("  ")
		}
		sb.WriteString(util.PadString(cost, costWidth, false))
		return sb.String()
	}

	header := make([]string, len(cols))
	for i, d := range cols {
		header[i] = d.Label()
	}

	lines := []string{format(header, "Cost (USD)")}
	for _, r := range window {
		cells := make([]string, len(cols))
		for i, d := range cols {
			cells[i] = d.Value(r)
		}
		lines = append(lines, format(cells, util.FormatCurrency(r.CostUSD)))
	}
	return lines
}

// PositionLine tells where the window sits in the revealed prefix
func (b *BaseStrategy) PositionLine(snap *view.Snapshot, scroll, rows int) string {
	if len(snap.Filtered) == 0 {
		if snap.Loaded {
			return "No cost data for the current filters"
		}
		return ""
	}
	window := visibleWindow(snap.Visible, scroll, rows)
	first := min(scroll+1, len(snap.Visible))
	last := scroll + len(window)
	line := fmt.Sprintf("Rows %s-%s of %s shown, %s matching",
		util.FormatCount(first), util.FormatCount(last),
		util.FormatCount(snap.RevealedCount), util.FormatCount(len(snap.Filtered)))
	if snap.HasMore {
		line += "  ▼ scroll for more"
	}
	return line
}

// visibleWindow clamps [scroll, scroll+rows) to the revealed records
func visibleWindow(visible []model.CostRecord, scroll, rows int) []model.CostRecord {
	if rows <= 0 || scroll >= len(visible) {
		return nil
	}
	scroll = max(scroll, 0)
	return visible[scroll:min(scroll+rows, len(visible))]
}

// SentinelVisible reports whether the end of the revealed prefix is on
// screen, which is when the next batch should be revealed.
func SentinelVisible(visibleCount, scroll, rows int) bool {
	return scroll+rows >= visibleCount
}

// ClampScroll keeps scroll inside the revealed records
func ClampScroll(scroll, visibleCount, rows int) int {
	return max(min(scroll, visibleCount-rows), 0)
}
