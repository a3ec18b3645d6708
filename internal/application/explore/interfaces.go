package explore

import (
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/view"
	"github.com/penwyp/go-cloud-cost-explorer/internal/presentation/interaction"
)

// DisplayController handles terminal display operations
type DisplayController interface {
	EnterAlternateScreen()
	ExitAlternateScreen()
	ClearScreen()
	// RenderWithState renders a snapshot with the given interaction state
	RenderWithState(snap view.Snapshot, state model.InteractionState)
	// RecordRows is how many record rows fit on screen for the state's layout
	RecordRows(state model.InteractionState) int
}

// InputHandler processes keyboard and other input events
type InputHandler interface {
	Events() <-chan interaction.KeyEvent
	Close() error
}

// FileMonitor watches for file changes
type FileMonitor interface {
	Events() <-chan model.FileEvent
	Close() error
}
