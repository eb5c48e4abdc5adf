// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and carries key presses to the player
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/resonate-hal/internal/app"
)

// Control carries user requests from the TUI to the player
type Control struct {
	Volume chan int
	Pause  chan bool
	Quit   chan struct{}
}

// NewControl creates a control with buffered channels
func NewControl() *Control {
	return &Control{
		Volume: make(chan int, 10),
		Pause:  make(chan bool, 1),
		Quit:   make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Control) Model {
	return Model{
		volume: 100,
		ctrl:   ctrl,
	}
}

// TUI runs the player display
type TUI struct {
	program *tea.Program
	ctrl    *Control
}

// New creates a TUI sending key presses to ctrl
func New(ctrl *Control) *TUI {
	return &TUI{
		program: tea.NewProgram(NewModel(ctrl), tea.WithAltScreen()),
		ctrl:    ctrl,
	}
}

// Follow forwards player status updates until the channel closes or the
// done channel fires.
func (t *TUI) Follow(status <-chan app.Status, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case s, ok := <-status:
			if !ok {
				return
			}
			t.program.Send(StatusMsg(s))
		}
	}
}

// Run blocks until the user quits or Stop is called
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Stop ends the program
func (t *TUI) Stop() {
	t.program.Quit()
}
