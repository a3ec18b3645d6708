package interaction

import (
	"sort"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
)

// SortField represents the field to sort breakdown rows by
type SortField int

const (
	SortByCost SortField = iota
	SortByName
)

// SortOrder represents the sort order
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

// sortModes is the cycle the explorer steps through on each keypress.
var sortModes = []struct {
	field SortField
	order SortOrder
	label string
}{
	{SortByCost, SortDescending, "cost ↓"},
	{SortByCost, SortAscending, "cost ↑"},
	{SortByName, SortAscending, "name"},
}

// GroupSorter handles sorting of breakdown rows
type GroupSorter struct {
	field SortField
	order SortOrder
}

// NewGroupSorter creates a sorter for the given mode index; out-of-range
// modes wrap around.
func NewGroupSorter(mode int) *GroupSorter {
	m := sortModes[ModeIndex(mode)]
	return &GroupSorter{field: m.field, order: m.order}
}

// ModeIndex normalizes a mode counter into the sort mode cycle.
func ModeIndex(mode int) int {
	n := len(sortModes)
	return ((mode % n) + n) % n
}

// ModeLabel describes a sort mode for the status line.
func ModeLabel(mode int) string {
	return sortModes[ModeIndex(mode)].label
}

// Sort sorts rows in place. Ties keep their incoming order.
func (s *GroupSorter) Sort(rows []model.GroupRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		var c int
		switch s.field {
		case SortByCost:
			c = rows[i].Cost.Cmp(rows[j].Cost)
		case SortByName:
			switch {
			case rows[i].Key < rows[j].Key:
				c = -1
			case rows[i].Key > rows[j].Key:
				c = 1
			}
		}

		if s.order == SortDescending {
			return c > 0
		}
		return c < 0
	})
}
