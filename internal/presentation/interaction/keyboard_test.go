package interaction

import (
	"testing"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestKeyboardReaderParseInput(t *testing.T) {
	kr := &KeyboardReader{
		input: make(chan KeyEvent, 10),
		stop:  make(chan struct{}),
	}

	tests := []struct {
		name     string
		input    []byte
		expected *KeyEvent
	}{
		{"regular char", []byte{'a'}, &KeyEvent{Key: 'a', Type: KeyChar}},
		{"space", []byte{' '}, &KeyEvent{Key: ' ', Type: KeyChar}},
		{"ctrl+c", []byte{3}, &KeyEvent{Key: 3, Type: KeyChar}},
		{"escape", []byte{27}, &KeyEvent{Key: 27, Type: KeyEscape}},
		{"arrow up", []byte{27, '[', 'A'}, &KeyEvent{Type: KeyUp}},
		{"arrow down", []byte{27, '[', 'B'}, &KeyEvent{Type: KeyDown}},
		{"page down", []byte{27, '[', '6', '~'}, &KeyEvent{Type: KeyPageDown}},
		{"page up", []byte{27, '[', '5', '~'}, &KeyEvent{Type: KeyPageUp}},
		{"unknown sequence", []byte{27, '[', 'Z'}, nil},
		{"empty", []byte{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, kr.parseInput(tt.input))
		})
	}
}

func TestGroupSorter(t *testing.T) {
	rows := func() []model.GroupRow {
		return []model.GroupRow{
			{Key: "b", Cost: decimal.NewFromInt(5)},
			{Key: "a", Cost: decimal.NewFromInt(10)},
			{Key: "c", Cost: decimal.NewFromInt(5)},
		}
	}
	keys := func(rs []model.GroupRow) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.Key
		}
		return out
	}

	tests := []struct {
		mode int
		want []string
	}{
		{0, []string{"a", "b", "c"}},
		{1, []string{"b", "c", "a"}},
		{2, []string{"a", "b", "c"}},
		{3, []string{"a", "b", "c"}},
		{-1, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		rs := rows()
		NewGroupSorter(tt.mode).Sort(rs)
		assert.Equal(t, tt.want, keys(rs), "mode %d", tt.mode)
	}

	assert.Equal(t, "cost ↓", ModeLabel(0))
	assert.Equal(t, "name", ModeLabel(-1))
}
