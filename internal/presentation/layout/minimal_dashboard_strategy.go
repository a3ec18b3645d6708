package layout

import (
	"fmt"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/view"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

// minimalChromeLines leaves one spare line so the cursor never scrolls the frame.
const minimalChromeLines = 4

// MinimalLayoutStrategy implements the minimal dashboard layout: one
// summary line, the records, and a footer.
type MinimalLayoutStrategy struct {
	BaseStrategy
}

func (s *MinimalLayoutStrategy) GetName() string {
	return "Minimal Dashboard"
}

func (s *MinimalLayoutStrategy) RecordRows(sizer *Sizer) int {
	return max(sizer.FrameHeight()-minimalChromeLines, minRecordRows)
}

func (s *MinimalLayoutStrategy) Render(snap *view.Snapshot, param LayoutParam) []string {
	width := param.Sizer.FrameWidth()
	rows := s.RecordRows(param.Sizer)

	head := fmt.Sprintf("%s | %s | %s records | ?%s",
		snap.Capabilities.Profile,
		util.FormatCurrency(snap.Summary.TotalCost),
		util.FormatCount(len(snap.Filtered)),
		snap.Query)

	lines := []string{util.Truncate(head, width)}
	lines = append(lines, s.RecordTable(snap, param.Scroll, rows, width)...)

	footer := s.PositionLine(snap, param.Scroll, rows)
	if status := s.StatusLine(snap, param.StatusMessage); status != "" {
		footer = status
	}
	lines = append(lines, util.Truncate(footer, width))
	return lines
}
