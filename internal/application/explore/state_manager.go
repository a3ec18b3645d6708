package explore

import (
	"sync"
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/view"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/store"
	"github.com/penwyp/go-cloud-cost-explorer/internal/metrics"
)

// StateManager serializes access to the view engine and holds the
// interaction state. Fetch completions arrive from other goroutines.
type StateManager struct {
	mu sync.RWMutex

	engine           *view.Engine
	interactionState model.InteractionState

	// Timestamp of last successful data update
	lastDataUpdate int64
}

// NewStateManager creates a new StateManager around engine
func NewStateManager(engine *view.Engine) *StateManager {
	return &StateManager{engine: engine}
}

// Snapshot returns the current view snapshot
func (sm *StateManager) Snapshot() view.Snapshot {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.engine.Snapshot()
}

// InitFromQuery replaces the criteria with a decoded query string and
// reports whether a fetch is needed.
func (sm *StateManager) InitFromQuery(q string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.engine.InitFromQuery(q)
}

// SetCriteria replaces the criteria and reports whether a fetch is needed.
// The view scrolls back to the top since the subset changed.
func (sm *StateManager) SetCriteria(c model.FilterCriteria) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.interactionState.Scroll = 0
	return sm.engine.SetCriteria(c)
}

// ResetCriteria clears every filter
func (sm *StateManager) ResetCriteria() bool {
	return sm.SetCriteria(model.FilterCriteria{})
}

// NeedsFetch reports whether the snapshot is missing or out of scope
func (sm *StateManager) NeedsFetch() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.engine.NeedsFetch()
}

// BeginFetch starts a fetch, making any earlier one stale
func (sm *StateManager) BeginFetch() view.Ticket {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.engine.BeginFetch()
}

// IngestCounts describes one committed ingest.
type IngestCounts struct {
	Kept       int
	Dropped    int
	Duplicates int
}

// CompleteFetch applies a fetch outcome. When it was applied, the counts
// belong to this very commit since they are read under the same lock.
func (sm *StateManager) CompleteFetch(t view.Ticket, raw []store.RawRecord, err error) (IngestCounts, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.engine.CompleteFetch(t, raw, err) {
		return IngestCounts{}, false
	}
	var counts IngestCounts
	if err == nil {
		sm.lastDataUpdate = time.Now().Unix()
		counts.Kept, counts.Dropped, counts.Duplicates = sm.engine.LastIngest()
	}
	return counts, true
}

// Reveal shows the next batch of the filtered subset
func (sm *StateManager) Reveal() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.engine.Reveal() {
		return false
	}
	metrics.RecordReveal()
	return true
}

// Window returns the revealed count and whether more records are hidden
func (sm *StateManager) Window() (revealed int, hasMore bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.engine.RevealedCount(), sm.engine.HasMore()
}

// Criteria returns the active criteria
func (sm *StateManager) Criteria() model.FilterCriteria {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.engine.Criteria()
}

// Leave drops the data and invalidates in-flight fetches
func (sm *StateManager) Leave() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.engine.Leave()
}

// GetInteractionState returns current interaction state
func (sm *StateManager) GetInteractionState() model.InteractionState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.interactionState
}

// SetInteractionState updates interaction state
func (sm *StateManager) SetInteractionState(state model.InteractionState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.interactionState = state
}

// UpdateInteractionState updates specific fields of interaction state
func (sm *StateManager) UpdateInteractionState(updateFunc func(*model.InteractionState)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	updateFunc(&sm.interactionState)
}

// GetLastDataUpdate returns timestamp of last successful data update
func (sm *StateManager) GetLastDataUpdate() int64 {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.lastDataUpdate
}
