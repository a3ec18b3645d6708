package explore

import (
	"context"
	"sync"
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/metrics"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
	"golang.org/x/time/rate"
)

// RefreshController runs fetches against the state manager. Fetches may
// overlap; the engine's generations make the last one begun win.
type RefreshController struct {
	dataLoader *DataLoader
	state      *StateManager

	// watchLimiter throttles refetches triggered by file events
	watchLimiter *rate.Limiter
	wg           sync.WaitGroup
}

// NewRefreshController creates a new RefreshController instance
func NewRefreshController(dataLoader *DataLoader, state *StateManager, minWait time.Duration) *RefreshController {
	return &RefreshController{
		dataLoader:   dataLoader,
		state:        state,
		watchLimiter: rate.NewLimiter(rate.Every(minWait), 1),
	}
}

// Refresh fetches the current scope and applies the outcome. It reports
// whether the outcome was applied (false when a later fetch superseded
// it) together with the fetch error, if any.
func (rc *RefreshController) Refresh(ctx context.Context) (bool, error) {
	ticket := rc.state.BeginFetch()
	raw, err := rc.dataLoader.Load(ctx, ticket.Scope)

	counts, applied := rc.state.CompleteFetch(ticket, raw, err)
	if !applied {
		metrics.RecordStaleFetch()
		return false, err
	}
	if err != nil {
		return true, err
	}

	metrics.RecordIngest(counts.Kept, counts.Dropped, counts.Duplicates)
	util.LogInfo("Cost data refreshed",
		util.F("generation", ticket.Generation),
		util.F("records", counts.Kept),
		util.F("dropped", counts.Dropped),
		util.F("duplicates", counts.Duplicates))
	return true, nil
}

// RefreshAsync runs Refresh in the background and signals done when it
// finishes, applied or not.
func (rc *RefreshController) RefreshAsync(ctx context.Context, done chan<- struct{}) {
	rc.wg.Add(1)
	go func() {
		defer rc.wg.Done()
		if _, err := rc.Refresh(ctx); err != nil && ctx.Err() == nil {
			util.LogError("Failed to refresh cost data", util.F("error", err.Error()))
		}
		select {
		case done <- struct{}{}:
		case <-ctx.Done():
		}
	}()
}

// OnFileChange starts a refetch for a changed export unless one was
// triggered within the minimum wait.
func (rc *RefreshController) OnFileChange(ctx context.Context, event model.FileEvent, done chan<- struct{}) bool {
	if !rc.watchLimiter.Allow() {
		util.LogDebug("Skipping refetch, too soon after the last one", util.F("path", event.Path))
		return false
	}
	util.LogDebug("Export changed, refetching", util.F("path", event.Path), util.F("op", event.Operation))
	rc.RefreshAsync(ctx, done)
	return true
}

// Wait blocks until background refreshes have finished
func (rc *RefreshController) Wait() {
	rc.wg.Wait()
}
