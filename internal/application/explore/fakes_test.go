package explore

import (
	"context"
	"fmt"
	"sync"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/view"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/store"
	"github.com/penwyp/go-cloud-cost-explorer/internal/presentation/interaction"
)

// fakeSource serves canned records. When gate is set, the first call
// blocks until it is closed, after signalling started.
type fakeSource struct {
	mu           sync.Mutex
	serverFields []model.Field
	responses    [][]store.RawRecord
	err          error
	scopes       []model.FilterCriteria

	gate    chan struct{}
	started chan struct{}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) ServerFields() []model.Field { return f.serverFields }

func (f *fakeSource) Fetch(ctx context.Context, scope model.FilterCriteria) ([]store.RawRecord, error) {
	f.mu.Lock()
	call := len(f.scopes)
	f.scopes = append(f.scopes, scope)
	gate := f.gate
	f.mu.Unlock()

	if call == 0 && gate != nil {
		close(f.started)
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, &model.FetchError{Source: "fake", Status: 500, Err: f.err}
	}
	if len(f.responses) == 0 {
		return nil, nil
	}
	return f.responses[min(call, len(f.responses)-1)], nil
}

func (f *fakeSource) calls() []model.FilterCriteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.FilterCriteria(nil), f.scopes...)
}

func raw(provider, service, date, cost string) store.RawRecord {
	return store.RawRecord{
		Provider: store.V(provider),
		Service:  store.V(service),
		Date:     store.V(date),
		CostUSD:  store.V(cost),
	}
}

// records builds n distinct records over three providers and five services
func records(n int) []store.RawRecord {
	out := make([]store.RawRecord, n)
	for i := range out {
		provider := []string{"AWS", "Azure", "GCP"}[i%3]
		out[i] = raw(provider, fmt.Sprintf("svc-%d", i%5), fmt.Sprintf("2025-01-%02d", 1+i%28), fmt.Sprintf("%d.50", i+1))
	}
	return out
}

type fakeDisplay struct {
	mu       sync.Mutex
	rows     int
	entered  bool
	exited   bool
	cleared  int
	renders  int
	lastSnap view.Snapshot
}

func (d *fakeDisplay) EnterAlternateScreen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entered = true
}

func (d *fakeDisplay) ExitAlternateScreen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exited = true
}

func (d *fakeDisplay) ClearScreen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cleared++
}

func (d *fakeDisplay) RenderWithState(snap view.Snapshot, _ model.InteractionState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.renders++
	d.lastSnap = snap
}

func (d *fakeDisplay) RecordRows(model.InteractionState) int {
	return d.rows
}

type fakeInput struct {
	events chan interaction.KeyEvent
	closed bool
}

func newFakeInput() *fakeInput {
	return &fakeInput{events: make(chan interaction.KeyEvent, 10)}
}

func (f *fakeInput) Events() <-chan interaction.KeyEvent { return f.events }

func (f *fakeInput) Close() error {
	f.closed = true
	return nil
}

func char(r rune) interaction.KeyEvent {
	return interaction.KeyEvent{Key: r, Type: interaction.KeyChar}
}
