package pagination

import (
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

// Event is an inbound signal consumed by the Controller.
type Event interface {
	isEvent()
}

// SubsetChanged replaces the filtered subset. It is sent whenever the
// upstream subset identity changes, even if its length did not.
type SubsetChanged struct {
	Subset []model.CostRecord
}

// RevealMore fires when the end-of-table sentinel becomes visible. It
// carries no payload.
type RevealMore struct{}

func (SubsetChanged) isEvent() {}
func (RevealMore) isEvent()    {}

// Controller incrementally reveals a filtered subset in fixed-size batches.
// The visible window is always a prefix of the subset, grows by at most one
// batch per reveal and only shrinks when the subset itself is replaced.
type Controller struct {
	batchSize int
	subset    []model.CostRecord
	visible   []model.CostRecord
	keys      map[string]struct{}
	revealed  int
}

// NewController creates a controller; a non-positive batchSize falls back
// to model.DefaultBatchSize.
func NewController(batchSize int) *Controller {
	if batchSize <= 0 {
		batchSize = model.DefaultBatchSize
	}
	return &Controller{
		batchSize: batchSize,
		keys:      make(map[string]struct{}),
	}
}

// Handle dispatches an event. It reports whether the visible window changed.
func (c *Controller) Handle(e Event) bool {
	switch ev := e.(type) {
	case SubsetChanged:
		c.Reset(ev.Subset)
		return true
	case RevealMore:
		return c.Reveal()
	}
	return false
}

// Reset installs a new subset and shows its first batch.
func (c *Controller) Reset(subset []model.CostRecord) {
	c.subset = subset
	c.visible = make([]model.CostRecord, 0, min(c.batchSize, len(subset)))
	c.keys = make(map[string]struct{}, cap(c.visible))
	c.revealed = 0
	c.appendBatch()
}

// Reveal appends the next batch. Once everything is visible further calls
// are no-ops and return false.
func (c *Controller) Reveal() bool {
	if !c.HasMore() {
		return false
	}
	before := len(c.visible)
	c.appendBatch()
	util.LogDebug("Revealed next batch",
		util.F("from", before), util.F("to", len(c.visible)), util.F("total", len(c.subset)))
	return len(c.visible) > before
}

// appendBatch extends the window by up to one batch. Records whose identity
// key is already visible are skipped, which keeps a doubled reveal signal
// from duplicating rows while the window still advances through the subset.
func (c *Controller) appendBatch() {
	end := min(c.revealed+c.batchSize, len(c.subset))
	for _, r := range c.subset[c.revealed:end] {
		key := r.Key()
		if _, dup := c.keys[key]; dup {
			continue
		}
		c.keys[key] = struct{}{}
		c.visible = append(c.visible, r)
	}
	c.revealed = end
}

// Visible returns the visible window. Callers must not modify it.
func (c *Controller) Visible() []model.CostRecord {
	return c.visible
}

// RevealedCount is the number of subset positions revealed so far.
func (c *Controller) RevealedCount() int {
	return c.revealed
}

// Total is the length of the current subset.
func (c *Controller) Total() int {
	return len(c.subset)
}

// HasMore reports whether a reveal would show more rows.
func (c *Controller) HasMore() bool {
	return c.revealed < len(c.subset)
}

// BatchSize returns the configured batch size.
func (c *Controller) BatchSize() int {
	return c.batchSize
}
