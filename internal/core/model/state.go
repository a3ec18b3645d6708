package model

// FileEvent represents a file system event on a watched billing export
type FileEvent struct {
	Path      string
	Operation string
}

// ConfirmDialog represents a yes/no prompt shown over the explorer
type ConfirmDialog struct {
	Title     string
	Message   string
	OnConfirm func()
	OnCancel  func()
}

// InteractionState represents the current UI interaction state of the explorer
type InteractionState struct {
	ShowHelp      bool
	ForceRefresh  bool
	LayoutStyle   int // 0: full, 1: minimal
	GroupOrder    int // breakdown ordering, see interaction.GroupSorter
	Scroll        int // index of the first record row on screen
	ConfirmDialog *ConfirmDialog
	StatusMessage string // Status message to display
}
