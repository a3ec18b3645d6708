package layout

import (
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/view"
)

// LayoutParam carries per-frame display inputs not held by the snapshot
type LayoutParam struct {
	Sizer         *Sizer
	Breakdown     []model.GroupRow // already sorted
	SortLabel     string
	Scroll        int
	StatusMessage string
	Now           time.Time
}

// LayoutStrategy renders a snapshot into screen lines
type LayoutStrategy interface {
	Render(snap *view.Snapshot, param LayoutParam) []string
	// RecordRows is how many record rows fit on screen for the given sizer.
	RecordRows(sizer *Sizer) int
	GetName() string
}

// GetLayoutStrategy returns the appropriate layout strategy based on the style
func GetLayoutStrategy(layoutStyle int) LayoutStrategy {
	switch layoutStyle {
	case 1:
		return &MinimalLayoutStrategy{}
	default:
		return &FullLayoutStrategy{}
	}
}

// LayoutCount is the number of styles GetLayoutStrategy cycles through.
const LayoutCount = 2
