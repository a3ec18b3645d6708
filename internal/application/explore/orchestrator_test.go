package explore

import (
	"context"
	"testing"
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/source"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/store"
	"github.com/penwyp/go-cloud-cost-explorer/internal/presentation/interaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrchestrator(t *testing.T, src *fakeSource, rows, batch int) (*Orchestrator, *fakeDisplay) {
	t.Helper()
	display := &fakeDisplay{rows: rows}
	o, err := NewOrchestrator(&ExploreConfig{
		Source:    source.Spec{Kind: source.KindFile},
		BatchSize: batch,
	}, src, display)
	require.NoError(t, err)
	return o, display
}

// loaded returns an orchestrator whose first fetch has completed
func loaded(t *testing.T, n, rows, batch int) (*Orchestrator, *fakeDisplay) {
	t.Helper()
	o, display := newOrchestrator(t, &fakeSource{responses: [][]store.RawRecord{records(n)}}, rows, batch)
	_, err := o.refreshCtrl.Refresh(context.Background())
	require.NoError(t, err)
	o.updateDisplay()
	return o, display
}

func press(t *testing.T, o *Orchestrator, events ...interaction.KeyEvent) {
	t.Helper()
	for _, ev := range events {
		require.False(t, o.handleKeyboard(context.Background(), ev))
	}
}

func waitFetch(t *testing.T, o *Orchestrator) {
	t.Helper()
	select {
	case <-o.fetchDone:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not complete")
	}
}

func TestScrollingRevealsNextBatch(t *testing.T) {
	o, _ := loaded(t, 25, 5, 10)

	revealed, hasMore := o.State().Window()
	require.Equal(t, 10, revealed)
	require.True(t, hasMore)

	// Rows 0-4 of 10: the end of the table is still off screen
	press(t, o, char('j'), char('j'), char('j'), char('j'))
	revealed, _ = o.State().Window()
	assert.Equal(t, 10, revealed)

	press(t, o, char('j'))
	revealed, _ = o.State().Window()
	assert.Equal(t, 20, revealed)
	assert.Equal(t, 5, o.State().GetInteractionState().Scroll)

	pageDown := interaction.KeyEvent{Type: interaction.KeyPageDown}
	press(t, o, pageDown, pageDown, pageDown)
	revealed, hasMore = o.State().Window()
	assert.Equal(t, 25, revealed)
	assert.False(t, hasMore)
	assert.Equal(t, 20, o.State().GetInteractionState().Scroll)

	press(t, o, char('k'), interaction.KeyEvent{Type: interaction.KeyPageUp}, char('b'), char('b'), char('b'))
	assert.Zero(t, o.State().GetInteractionState().Scroll)
}

func TestRevealFillsTallScreen(t *testing.T) {
	o, _ := loaded(t, 25, 30, 10)
	o.revealWhileSentinelVisible()

	revealed, hasMore := o.State().Window()
	assert.Equal(t, 25, revealed)
	assert.False(t, hasMore)
}

func TestRevealKey(t *testing.T) {
	o, _ := loaded(t, 25, 5, 10)
	press(t, o, char('n'))

	revealed, _ := o.State().Window()
	assert.Equal(t, 20, revealed)
}

func TestCycleProvider(t *testing.T) {
	o, display := loaded(t, 12, 5, 10)

	var seen []model.Provider
	for i := 0; i < 4; i++ {
		press(t, o, char('p'))
		seen = append(seen, o.State().Criteria().Provider)
	}
	assert.Equal(t, []model.Provider{model.ProviderAWS, model.ProviderAzure, model.ProviderGCP, ""}, seen)

	// Provider is filtered client-side by this source
	assert.False(t, o.State().NeedsFetch())

	press(t, o, char('p'))
	o.updateDisplay()
	assert.Len(t, display.lastSnap.Filtered, 4)
	assert.Equal(t, "provider=AWS", display.lastSnap.Query)
}

func TestCycleServiceRefetchesServerSideFilter(t *testing.T) {
	src := &fakeSource{
		serverFields: []model.Field{model.FieldService},
		responses:    [][]store.RawRecord{records(10), records(10)[:2]},
	}
	o, _ := newOrchestrator(t, src, 5, 10)
	_, err := o.refreshCtrl.Refresh(context.Background())
	require.NoError(t, err)
	o.updateDisplay()
	require.Equal(t, []string{"svc-0", "svc-1", "svc-2", "svc-3", "svc-4"}, o.serviceOptions)

	press(t, o, char('s'))
	assert.Equal(t, "svc-0", o.State().Criteria().Service)
	waitFetch(t, o)

	calls := src.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "svc-0", calls[1].Service)
	assert.False(t, o.State().NeedsFetch())

	// The narrowed snapshot must not shrink the option list
	o.updateDisplay()
	press(t, o, char('s'))
	assert.Equal(t, "svc-1", o.State().Criteria().Service)
	waitFetch(t, o)
}

func TestResetDialog(t *testing.T) {
	o, display := loaded(t, 12, 5, 10)
	press(t, o, char('p'))

	press(t, o, char('x'))
	require.NotNil(t, o.State().GetInteractionState().ConfirmDialog)

	// Other keys are ignored while the dialog is open
	press(t, o, char('p'))
	assert.Equal(t, model.ProviderAWS, o.State().Criteria().Provider)

	press(t, o, char('n'))
	assert.Nil(t, o.State().GetInteractionState().ConfirmDialog)
	assert.Equal(t, model.ProviderAWS, o.State().Criteria().Provider)

	press(t, o, char('x'), char('y'))
	state := o.State().GetInteractionState()
	assert.Nil(t, state.ConfirmDialog)
	assert.Equal(t, "Filters reset", state.StatusMessage)
	assert.True(t, o.State().Criteria().IsEmpty())
	assert.Equal(t, 2, display.cleared)
}

func TestResetWithoutFiltersIsNoop(t *testing.T) {
	o, _ := loaded(t, 12, 5, 10)
	press(t, o, char('x'))
	assert.Nil(t, o.State().GetInteractionState().ConfirmDialog)
}

func TestViewKeys(t *testing.T) {
	o, _ := loaded(t, 12, 5, 10)

	press(t, o, char('o'), char('t'), char('h'))
	state := o.State().GetInteractionState()
	assert.Equal(t, 1, state.GroupOrder)
	assert.Equal(t, 1, state.LayoutStyle)
	assert.True(t, state.ShowHelp)

	press(t, o, interaction.KeyEvent{Type: interaction.KeyEscape})
	assert.False(t, o.State().GetInteractionState().ShowHelp)

	assert.True(t, o.handleKeyboard(context.Background(), interaction.KeyEvent{Type: interaction.KeyEscape}))
	assert.True(t, o.handleKeyboard(context.Background(), char('q')))
	assert.True(t, o.handleKeyboard(context.Background(), char(3)))
}

func TestRefetchKey(t *testing.T) {
	src := &fakeSource{responses: [][]store.RawRecord{records(3), records(6)}}
	o, _ := newOrchestrator(t, src, 5, 10)
	_, err := o.refreshCtrl.Refresh(context.Background())
	require.NoError(t, err)

	press(t, o, char('r'))
	waitFetch(t, o)
	assert.Len(t, o.State().Snapshot().Records, 6)
}

func TestNextOption(t *testing.T) {
	options := []string{"a", "b", "c"}
	tests := []struct {
		current  string
		expected string
	}{
		{"", "a"},
		{"a", "b"},
		{"c", ""},
		{"zzz", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, nextOption(tt.current, options), tt.current)
	}
	assert.Equal(t, "", nextOption("", nil))
}

func TestRunWithInput(t *testing.T) {
	src := &fakeSource{responses: [][]store.RawRecord{records(8)}}
	o, display := newOrchestrator(t, src, 5, 10)
	o.config.Query = "provider=GCP"

	input := newFakeInput()
	errCh := make(chan error, 1)
	go func() {
		errCh <- o.RunWithInput(context.Background(), input)
	}()

	require.Eventually(t, func() bool {
		return len(src.calls()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	input.events <- char('q')

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop on quit")
	}

	assert.True(t, display.entered)
	assert.True(t, display.exited)
	assert.True(t, input.closed)
	assert.Equal(t, model.ProviderGCP, o.State().Criteria().Provider)
	assert.False(t, o.State().Snapshot().Loaded, "leaving the view drops the snapshot")
}
