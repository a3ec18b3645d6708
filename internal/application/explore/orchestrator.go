package explore

import (
	"context"
	"fmt"
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/view"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/source"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/watcher"
	"github.com/penwyp/go-cloud-cost-explorer/internal/presentation/interaction"
	"github.com/penwyp/go-cloud-cost-explorer/internal/presentation/layout"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

// Orchestrator coordinates all components for the explore command
type Orchestrator struct {
	config *ExploreConfig

	// Core components
	dataLoader   *DataLoader
	refreshCtrl  *RefreshController
	stateManager *StateManager

	// UI components
	display DisplayController
	input   InputHandler

	// Monitoring
	watcher FileMonitor

	// fetchDone is signalled whenever a background fetch finishes
	fetchDone chan struct{}

	// Service options seen while no service filter was active. The
	// source may filter services itself, so the snapshot alone cannot
	// offer the alternatives once one is selected.
	serviceOptions []string
}

// NewOrchestrator creates a new Orchestrator instance
func NewOrchestrator(config *ExploreConfig, src source.Source, display DisplayController) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	engine := view.New(view.Options{
		Capabilities: config.Capabilities,
		ServerFields: src.ServerFields(),
		BatchSize:    config.BatchSize,
	})
	stateManager := NewStateManager(engine)
	dataLoader := NewDataLoader(src)

	return &Orchestrator{
		config:       config,
		dataLoader:   dataLoader,
		refreshCtrl:  NewRefreshController(dataLoader, stateManager, config.RefreshMinWait),
		stateManager: stateManager,
		display:      display,
		fetchDone:    make(chan struct{}, 8),
	}, nil
}

// State exposes the state manager
func (o *Orchestrator) State() *StateManager {
	return o.stateManager
}

// Run reads the keyboard from the terminal and runs the main loop
func (o *Orchestrator) Run(ctx context.Context) error {
	keyboard, err := interaction.NewKeyboardReader()
	if err != nil {
		return fmt.Errorf("failed to initialize keyboard: %w", err)
	}
	return o.RunWithInput(ctx, keyboard)
}

// RunWithInput runs the main loop until quit is requested or ctx ends
func (o *Orchestrator) RunWithInput(ctx context.Context, input InputHandler) error {
	util.LogInfo("Starting Cloud Cost Explorer...", util.F("source", o.dataLoader.Source().Name()))

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		// Leaving the view makes any fetch still in flight stale
		o.stateManager.Leave()
		cancel()
		o.refreshCtrl.Wait()
	}()
	defer o.Close()

	o.input = input
	defer o.input.Close()

	o.display.EnterAlternateScreen()
	defer o.display.ExitAlternateScreen()

	// Phase 1: Initial criteria and first fetch
	if o.stateManager.InitFromQuery(o.config.Query) {
		o.refreshCtrl.RefreshAsync(ctx, o.fetchDone)
	}
	o.updateDisplay()

	// Phase 2: File monitoring
	var watchEvents <-chan model.FileEvent
	if o.config.Watch {
		if err := o.startWatcher(); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		watchEvents = o.watcher.Events()
	}

	// Phase 3: Main event loop
	uiTicker := time.NewTicker(time.Duration(1000/o.config.UIRefreshRate) * time.Millisecond)
	defer uiTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Shutting down Cloud Cost Explorer...")
			return nil

		case <-uiTicker.C:
			o.updateDisplay()

		case <-o.fetchDone:
			o.revealWhileSentinelVisible()
			o.updateDisplay()

		case event, ok := <-watchEvents:
			if !ok {
				watchEvents = nil
				continue
			}
			o.refreshCtrl.OnFileChange(ctx, event, o.fetchDone)

		case keyEvent := <-o.input.Events():
			if o.handleKeyboard(ctx, keyEvent) {
				return nil
			}
			o.updateDisplay()
		}
	}
}

// updateDisplay renders the current snapshot
func (o *Orchestrator) updateDisplay() {
	snap := o.stateManager.Snapshot()
	if snap.Criteria.Service == "" && snap.Loaded {
		o.serviceOptions = snap.Services
	}
	o.display.RenderWithState(snap, o.stateManager.GetInteractionState())
}

// refetch starts a background fetch when the criteria left the fetched scope
func (o *Orchestrator) refetch(ctx context.Context, needed bool) {
	if needed {
		o.refreshCtrl.RefreshAsync(ctx, o.fetchDone)
	}
}

// setCriteria applies new criteria and refetches or reveals as required
func (o *Orchestrator) setCriteria(ctx context.Context, c model.FilterCriteria) {
	o.refetch(ctx, o.stateManager.SetCriteria(c))
	o.revealWhileSentinelVisible()
}

// scrollBy moves the record table and reveals more records once the end
// of the revealed prefix comes into view.
func (o *Orchestrator) scrollBy(delta int) {
	state := o.stateManager.GetInteractionState()
	rows := o.display.RecordRows(state)
	revealed, _ := o.stateManager.Window()

	o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
		s.Scroll = layout.ClampScroll(s.Scroll+delta, revealed, rows)
	})
	o.revealWhileSentinelVisible()
}

// revealWhileSentinelVisible reveals batches until the end of the revealed
// prefix is off screen or nothing is left to reveal.
func (o *Orchestrator) revealWhileSentinelVisible() {
	state := o.stateManager.GetInteractionState()
	rows := o.display.RecordRows(state)
	for {
		revealed, hasMore := o.stateManager.Window()
		if !hasMore || !layout.SentinelVisible(revealed, state.Scroll, rows) {
			return
		}
		if !o.stateManager.Reveal() {
			return
		}
	}
}

// handleKeyboard handles keyboard events; true means quit
func (o *Orchestrator) handleKeyboard(ctx context.Context, event interaction.KeyEvent) bool {
	state := o.stateManager.GetInteractionState()

	// Handle confirm dialog inputs first
	if state.ConfirmDialog != nil {
		switch {
		case event.Type == interaction.KeyChar && (event.Key == 'y' || event.Key == 'Y'):
			if state.ConfirmDialog.OnConfirm != nil {
				state.ConfirmDialog.OnConfirm()
			}
			o.display.ClearScreen()
		case event.Type == interaction.KeyEscape,
			event.Type == interaction.KeyChar && (event.Key == 'n' || event.Key == 'N'):
			if state.ConfirmDialog.OnCancel != nil {
				state.ConfirmDialog.OnCancel()
			}
			o.display.ClearScreen()
		}
		return false
	}

	page := o.display.RecordRows(state)

	switch event.Type {
	case interaction.KeyEscape:
		if state.ShowHelp {
			o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
				s.ShowHelp = false
			})
			return false
		}
		return true
	case interaction.KeyUp:
		o.scrollBy(-1)
	case interaction.KeyDown:
		o.scrollBy(1)
	case interaction.KeyPageUp:
		o.scrollBy(-page)
	case interaction.KeyPageDown:
		o.scrollBy(page)
	case interaction.KeyChar:
		switch event.Key {
		case 'q', 'Q', 3:
			return true
		case 'j', 'J':
			o.scrollBy(1)
		case 'k', 'K':
			o.scrollBy(-1)
		case ' ':
			o.scrollBy(page)
		case 'b', 'B':
			o.scrollBy(-page)
		case 'n', 'N':
			o.stateManager.Reveal()
		case 'p', 'P':
			o.cycleProvider(ctx)
		case 's', 'S':
			o.cycleService(ctx)
		case 'x', 'X':
			o.confirmReset(ctx)
		case 'o', 'O':
			o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
				s.GroupOrder = interaction.ModeIndex(s.GroupOrder + 1)
			})
		case 'r', 'R':
			o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
				s.ForceRefresh = true
				s.StatusMessage = ""
			})
			o.refreshCtrl.RefreshAsync(ctx, o.fetchDone)
		case 'h', 'H':
			o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
				s.ShowHelp = !s.ShowHelp
			})
		case 't', 'T':
			o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
				s.LayoutStyle = (s.LayoutStyle + 1) % layout.LayoutCount
			})
			o.revealWhileSentinelVisible()
		}
	}

	return false
}

// cycleProvider steps the provider filter through the known providers and
// back to none. Single-provider views have no provider filter.
func (o *Orchestrator) cycleProvider(ctx context.Context) {
	if !o.config.Capabilities.HasProvider {
		return
	}
	options := make([]string, len(model.Providers))
	for i, p := range model.Providers {
		options[i] = string(p)
	}

	c := o.stateManager.Criteria()
	c.Provider = model.Provider(nextOption(string(c.Provider), options))
	o.setCriteria(ctx, c)
}

// cycleService steps the service filter through the services of the last
// unfiltered snapshot and back to none.
func (o *Orchestrator) cycleService(ctx context.Context) {
	if len(o.serviceOptions) == 0 {
		return
	}
	c := o.stateManager.Criteria()
	c.Service = nextOption(c.Service, o.serviceOptions)
	o.setCriteria(ctx, c)
}

// confirmReset asks before clearing every filter
func (o *Orchestrator) confirmReset(ctx context.Context) {
	if o.stateManager.Criteria().IsEmpty() {
		return
	}
	closeDialog := func(message string) {
		o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
			s.ConfirmDialog = nil
			s.StatusMessage = message
		})
	}
	o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
		s.ConfirmDialog = &model.ConfirmDialog{
			Title:   "Reset Filters",
			Message: "This will clear every active filter and show all cost records. Continue?",
			OnConfirm: func() {
				closeDialog("Filters reset")
				o.refetch(ctx, o.stateManager.ResetCriteria())
				o.revealWhileSentinelVisible()
			},
			OnCancel: func() {
				closeDialog("")
			},
		}
	})
}

// nextOption returns the option after current. "" (no filter) leads to
// the first option; the last option or an unknown one lead back to "".
func nextOption(current string, options []string) string {
	if current == "" {
		if len(options) == 0 {
			return ""
		}
		return options[0]
	}
	for i, opt := range options {
		if opt == current && i+1 < len(options) {
			return options[i+1]
		}
	}
	return ""
}

// startWatcher watches the file source's paths
func (o *Orchestrator) startWatcher() error {
	fw, err := watcher.NewFileWatcher(o.config.Source.Paths)
	if err != nil {
		return err
	}
	o.watcher = fw
	return nil
}

// Close releases the file watcher
func (o *Orchestrator) Close() error {
	if o.watcher != nil {
		if err := o.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close file watcher: %w", err)
		}
		o.watcher = nil
	}
	return nil
}
