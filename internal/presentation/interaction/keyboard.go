package interaction

import (
	"os"

	"golang.org/x/sys/unix"
)

// KeyboardReader feeds the explorer with key presses read from a raw-mode
// terminal.
type KeyboardReader struct {
	oldState *unix.Termios
	input    chan KeyEvent
	stop     chan struct{}
}

// KeyEvent is one key press. Key is set only for KeyChar and KeyEscape.
type KeyEvent struct {
	Key  rune
	Type KeyType
}

// KeyType tells printable keys apart from the navigation keys the explorer
// scrolls with.
type KeyType int

const (
	KeyChar KeyType = iota
	KeyEscape
	KeyUp
	KeyDown
	KeyPageUp
	KeyPageDown
)

const (
	ctrlC = 3
	esc   = 27
)

// NewKeyboardReader puts stdin in raw mode and starts reading keys. Close
// must be called to give the terminal back.
func NewKeyboardReader() (*KeyboardReader, error) {
	kr := &KeyboardReader{
		input: make(chan KeyEvent, 10),
		stop:  make(chan struct{}),
	}

	if err := kr.enableRawMode(); err != nil {
		return nil, err
	}

	go kr.readInput()

	return kr, nil
}

func (kr *KeyboardReader) readInput() {
	buf := make([]byte, 4)

	for {
		select {
		case <-kr.stop:
			return
		default:
			n, err := os.Stdin.Read(buf)
			if err != nil || n == 0 {
				continue
			}

			event := kr.parseInput(buf[:n])
			if event != nil {
				select {
				case kr.input <- *event:
				case <-kr.stop:
					return
				}
			}
		}
	}
}

// parseInput maps one read to an event. Escape sequences other than the
// arrow and page keys yield nil.
func (kr *KeyboardReader) parseInput(buf []byte) *KeyEvent {
	if len(buf) == 0 {
		return nil
	}

	if buf[0] == ctrlC {
		return &KeyEvent{Key: ctrlC, Type: KeyChar}
	}

	if buf[0] == esc {
		if len(buf) == 1 {
			return &KeyEvent{Key: esc, Type: KeyEscape}
		}
		if len(buf) >= 3 && buf[1] == '[' {
			switch buf[2] {
			case 'A':
				return &KeyEvent{Type: KeyUp}
			case 'B':
				return &KeyEvent{Type: KeyDown}
			case '5':
				return &KeyEvent{Type: KeyPageUp}
			case '6':
				return &KeyEvent{Type: KeyPageDown}
			}
		}
		return nil
	}

	return &KeyEvent{Key: rune(buf[0]), Type: KeyChar}
}

// Events delivers key presses until Close.
func (kr *KeyboardReader) Events() <-chan KeyEvent {
	return kr.input
}

// Close stops reading and restores the terminal mode saved at start.
func (kr *KeyboardReader) Close() error {
	close(kr.stop)
	return kr.disableRawMode()
}
