// Package vt replays terminal output into an in-memory screen so tests can
// assert on what a user would actually see after differential redraws.
package vt

import (
	"regexp"
	"strconv"
	"strings"
)

var csiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// StripANSI removes CSI escape sequences.
func StripANSI(s string) string {
	return csiPattern.ReplaceAllString(s, "")
}

// Screen is a fixed-size grid of runes with a cursor.
type Screen struct {
	rows, cols int
	cells      [][]rune
	x, y       int
}

func NewScreen(rows, cols int) *Screen {
	s := &Screen{rows: rows, cols: cols, cells: make([][]rune, rows)}
	for i := range s.cells {
		s.cells[i] = blank(cols)
	}
	return s
}

func blank(n int) []rune {
	r := make([]rune, n)
	for i := range r {
		r[i] = ' '
	}
	return r
}

// Write applies output to the screen. It never fails.
func (s *Screen) Write(p []byte) (int, error) {
	runes := []rune(string(p))
	for i := 0; i < len(runes); {
		switch ch := runes[i]; {
		case ch == '\x1b' && i+1 < len(runes) && runes[i+1] == '[':
			i = s.csi(runes, i+2)
			continue
		case ch == '\r':
			s.x = 0
		case ch == '\n':
			s.x = 0
			s.lineFeed()
		default:
			s.put(ch)
		}
		i++
	}
	return len(p), nil
}

// csi consumes one control sequence starting after "ESC [" and returns the
// index following its final byte.
func (s *Screen) csi(runes []rune, i int) int {
	start := i
	for i < len(runes) && !isFinal(runes[i]) {
		i++
	}
	if i >= len(runes) {
		return i
	}
	body := string(runes[start:i])
	if strings.HasPrefix(body, "?") {
		// private modes (cursor visibility, alternate screen) do not touch cells
		return i + 1
	}
	var params []int
	if body != "" {
		for _, part := range strings.Split(body, ";") {
			n, _ := strconv.Atoi(part)
			params = append(params, n)
		}
	}
	s.control(runes[i], params)
	return i + 1
}

func isFinal(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func param(params []int, idx, def int) int {
	if idx < len(params) && params[idx] > 0 {
		return params[idx]
	}
	return def
}

func (s *Screen) control(cmd rune, params []int) {
	switch cmd {
	case 'H', 'f':
		s.y = min(param(params, 0, 1), s.rows) - 1
		s.x = min(param(params, 1, 1), s.cols) - 1
	case 'J':
		mode := 0
		if len(params) > 0 {
			mode = params[0]
		}
		switch mode {
		case 0:
			copy(s.cells[s.y][s.x:], blank(s.cols-s.x))
			for r := s.y + 1; r < s.rows; r++ {
				s.cells[r] = blank(s.cols)
			}
		case 2:
			for r := range s.cells {
				s.cells[r] = blank(s.cols)
			}
		}
	case 'K':
		mode := 0
		if len(params) > 0 {
			mode = params[0]
		}
		switch mode {
		case 0:
			copy(s.cells[s.y][s.x:], blank(s.cols-s.x))
		case 2:
			s.cells[s.y] = blank(s.cols)
		}
	case 'A':
		s.y = max(0, s.y-param(params, 0, 1))
	case 'B':
		s.y = min(s.rows-1, s.y+param(params, 0, 1))
	case 'C':
		s.x = min(s.cols-1, s.x+param(params, 0, 1))
	case 'D':
		s.x = max(0, s.x-param(params, 0, 1))
	}
	// 'm' and anything else only affect attributes
}

// put writes a rune at the cursor. Text past the right edge is clipped.
func (s *Screen) put(ch rune) {
	if s.x >= s.cols {
		return
	}
	s.cells[s.y][s.x] = ch
	s.x++
}

func (s *Screen) lineFeed() {
	if s.y < s.rows-1 {
		s.y++
		return
	}
	copy(s.cells, s.cells[1:])
	s.cells[s.rows-1] = blank(s.cols)
}

// Line returns row i with trailing spaces trimmed.
func (s *Screen) Line(i int) string {
	if i < 0 || i >= s.rows {
		return ""
	}
	return strings.TrimRight(string(s.cells[i]), " ")
}

// Lines returns every row up to the last non-blank one.
func (s *Screen) Lines() []string {
	out := make([]string, s.rows)
	last := -1
	for i := range out {
		out[i] = s.Line(i)
		if out[i] != "" {
			last = i
		}
	}
	return out[:last+1]
}

// Contains reports whether any row contains text.
func (s *Screen) Contains(text string) bool {
	for i := 0; i < s.rows; i++ {
		if strings.Contains(s.Line(i), text) {
			return true
		}
	}
	return false
}
