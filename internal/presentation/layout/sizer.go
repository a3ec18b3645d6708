package layout

import (
	"os"

	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
	"golang.org/x/term"
)

const (
	fallbackWidth  = 100
	fallbackHeight = 30
	minWidth       = 40
	maxWidth       = 160
	minHeight      = 10
)

// Sizer holds the drawable area of the terminal
type Sizer struct {
	Width  int
	Height int
}

// NewSizer creates a sizer for a fixed area
func NewSizer(width, height int) *Sizer {
	return &Sizer{Width: width, Height: height}
}

// TerminalSizer measures stdout, falling back to a fixed area when stdout
// is not a terminal.
func TerminalSizer() *Sizer {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		width, height = fallbackWidth, fallbackHeight
	}
	util.LogDebugf("Terminal size %dx%d", width, height)
	return NewSizer(width, height)
}

// FrameWidth is the box width used for rendering, clamped to a readable
// range and never wider than the terminal.
func (s *Sizer) FrameWidth() int {
	w := min(s.Width, maxWidth)
	if w < minWidth {
		return max(s.Width, 1)
	}
	return w
}

// FrameHeight is the number of lines available, never below minHeight.
func (s *Sizer) FrameHeight() int {
	return max(s.Height, minHeight)
}

// PadString pads a string to a display width
func (s *Sizer) PadString(text string, width int, leftAlign bool) string {
	return util.PadString(text, width, leftAlign)
}

// Fit truncates then pads text to exactly width columns
func (s *Sizer) Fit(text string, width int, leftAlign bool) string {
	return util.PadString(util.Truncate(text, width), width, leftAlign)
}
