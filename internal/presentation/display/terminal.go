package display

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/view"
	"github.com/penwyp/go-cloud-cost-explorer/internal/presentation/interaction"
	"github.com/penwyp/go-cloud-cost-explorer/internal/presentation/layout"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

// TerminalDisplay draws explorer frames, rewriting only the lines that
// changed since the previous frame.
type TerminalDisplay struct {
	out               io.Writer
	measure           func() *layout.Sizer
	now               func() time.Time
	inAlternateScreen bool
	previousScreen    []string
}

// Option configures a TerminalDisplay
type Option func(*TerminalDisplay)

// WithOutput redirects drawing away from stdout
func WithOutput(w io.Writer) Option {
	return func(td *TerminalDisplay) {
		td.out = w
	}
}

// WithSizer fixes the drawable area instead of measuring the terminal
func WithSizer(s *layout.Sizer) Option {
	return func(td *TerminalDisplay) {
		td.measure = func() *layout.Sizer { return s }
	}
}

func NewTerminalDisplay(opts ...Option) *TerminalDisplay {
	td := &TerminalDisplay{
		out:     os.Stdout,
		measure: layout.TerminalSizer,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(td)
	}
	return td
}

// EnterAlternateScreen switches to alternate screen buffer
func (td *TerminalDisplay) EnterAlternateScreen() {
	if td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.out, util.EnterAltScreen+util.ClearScreen+util.MoveCursorHome+util.HideCursor)
	td.inAlternateScreen = true
	td.previousScreen = nil
}

// ExitAlternateScreen returns to normal screen buffer
func (td *TerminalDisplay) ExitAlternateScreen() {
	if !td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.out, util.ClearScreen+util.MoveCursorHome+util.ShowCursor+util.ExitAltScreen)
	td.inAlternateScreen = false
}

// ClearScreen clears the screen and forgets the previous frame
func (td *TerminalDisplay) ClearScreen() {
	fmt.Fprint(td.out, util.ClearScreen+util.MoveCursorHome)
	td.previousScreen = nil
}

// RecordRows is how many record rows the current layout shows
func (td *TerminalDisplay) RecordRows(state model.InteractionState) int {
	return layout.GetLayoutStrategy(state.LayoutStyle).RecordRows(td.measure())
}

// RenderWithState draws the snapshot, or the dialog or help screen when
// the interaction state asks for one.
func (td *TerminalDisplay) RenderWithState(snap view.Snapshot, state model.InteractionState) {
	var lines []string
	switch {
	case state.ConfirmDialog != nil:
		lines = td.dialogLines(state.ConfirmDialog)
	case state.ShowHelp:
		lines = helpLines()
	default:
		lines = td.Frame(snap, state)
	}
	td.draw(lines)
}

// Frame renders the snapshot into lines using the state's layout
func (td *TerminalDisplay) Frame(snap view.Snapshot, state model.InteractionState) []string {
	breakdown := make([]model.GroupRow, len(snap.ByService.Rows))
	for i, row := range snap.ByService.Rows {
		breakdown[i] = model.GroupRow{Key: row.Key, Cost: row.Total}
	}
	interaction.NewGroupSorter(state.GroupOrder).Sort(breakdown)

	param := layout.LayoutParam{
		Sizer:         td.measure(),
		Breakdown:     breakdown,
		SortLabel:     interaction.ModeLabel(state.GroupOrder),
		Scroll:        state.Scroll,
		StatusMessage: state.StatusMessage,
		Now:           td.now(),
	}
	return layout.GetLayoutStrategy(state.LayoutStyle).Render(&snap, param)
}

// draw writes the lines that differ from the previous frame in one write
func (td *TerminalDisplay) draw(lines []string) {
	var buf bytes.Buffer
	for i, line := range lines {
		if i < len(td.previousScreen) && td.previousScreen[i] == line {
			continue
		}
		fmt.Fprintf(&buf, "\033[%d;1H%s%s", i+1, util.ClearLine, line)
	}
	if len(lines) < len(td.previousScreen) {
		fmt.Fprintf(&buf, "\033[%d;1H\033[J", len(lines)+1)
	}
	if buf.Len() > 0 {
		td.out.Write(buf.Bytes())
	}
	td.previousScreen = lines
}

func helpLines() []string {
	rule := strings.Repeat("═", 60)
	return []string{
		"Cloud Cost Explorer - Help",
		rule,
		"",
		"Navigation:",
		"  j / ↓        - Scroll down one row",
		"  k / ↑        - Scroll up one row",
		"  space / PgDn - Scroll down one page",
		"  b / PgUp     - Scroll up one page",
		"  n            - Reveal the next batch of records",
		"",
		"Filters:",
		"  p            - Cycle provider filter",
		"  s            - Cycle service filter",
		"  x            - Reset all filters",
		"",
		"View:",
		"  o            - Cycle breakdown order",
		"  t            - Change layout style (Full → Minimal)",
		"  r            - Refetch cost data",
		"  h            - Show this help",
		"  q / Ctrl+C   - Quit",
		"",
		rule,
		"Press 'h' to return...",
	}
}

func (td *TerminalDisplay) dialogLines(dialog *model.ConfirmDialog) []string {
	const boxWidth = 60
	inner := boxWidth - 2
	center := func(s string) string {
		pad := max(inner-util.GetDisplayWidth(s), 0)
		return strings.Repeat(" ", pad/2) + s + strings.Repeat(" ", pad-pad/2)
	}

	lines := []string{
		"",
		"╔" + strings.Repeat("═", inner) + "╗",
		"║" + center(dialog.Title) + "║",
		"╠" + strings.Repeat("═", inner) + "╣",
		"║" + strings.Repeat(" ", inner) + "║",
	}
	for _, l := range wrapText(dialog.Message, inner-2) {
		lines = append(lines, "║ "+util.PadString(l, inner-2, true)+" ║")
	}
	lines = append(lines,
		"║"+strings.Repeat(" ", inner)+"║",
		"║"+center("(Y)es / (N)o")+"║",
		"╚"+strings.Repeat("═", inner)+"╝",
	)
	return lines
}

// wrapText wraps text to fit within the specified width
func wrapText(text string, width int) []string {
	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		switch {
		case current == "":
			current = word
		case util.GetDisplayWidth(current)+1+util.GetDisplayWidth(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
