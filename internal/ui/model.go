// ABOUTME: Bubbletea model for player TUI
// ABOUTME: Defines display state, key handling and lipgloss rendering
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Resonate-Protocol/resonate-hal/internal/app"
	"github.com/Resonate-Protocol/resonate-hal/pkg/audio"
)

const volumeStep = 5

// StatusMsg updates TUI state
type StatusMsg app.Status

// Model represents the TUI state
type Model struct {
	// Source
	title  string
	source audio.Format

	// Output
	useCase   string
	devices   string
	outFormat string
	open      bool
	powerLock bool
	frames    uint64
	latencyMs uint32
	retries   uint64

	// Playback
	volume   int
	paused   bool
	finished bool

	ctrl     *Control
	quitting bool

	// Dimensions
	width  int
	height int
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	stateStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping playback...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Resonate HAL Player"))
	b.WriteString("\n\n")

	field(&b, "Playing", truncate(m.title, 48))
	if m.source.SampleRate > 0 {
		field(&b, "Source", fmt.Sprintf("%s %dHz %s %d-bit",
			m.source.Codec, m.source.SampleRate, channelName(m.source.Channels), m.source.BitDepth))
	}
	b.WriteString("\n")

	device := "standby"
	if m.open {
		device = "open"
	}
	field(&b, "Output", fmt.Sprintf("%s (%s)", m.outFormat, device))
	field(&b, "Use case", orNone(m.useCase))
	field(&b, "Devices", orNone(m.devices))
	field(&b, "Latency", fmt.Sprintf("%dms", m.latencyMs))
	field(&b, "Frames", fmt.Sprintf("%d", m.frames))
	field(&b, "Wake lock", heldName(m.powerLock))
	if m.retries > 0 {
		field(&b, "Retries", fmt.Sprintf("%d", m.retries))
	}
	b.WriteString("\n")

	field(&b, "Volume", fmt.Sprintf("[%s] %d%%", renderBar(m.volume, 100, 20), m.volume))
	b.WriteString(stateStyle.Render(m.state()))
	b.WriteString("\n\n")

	b.WriteString(helpStyle.Render("↑/↓: volume  space: pause  q: quit"))
	b.WriteString("\n")

	return b.String()
}

func field(b *strings.Builder, name, value string) {
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s", name+":")))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

func (m Model) state() string {
	switch {
	case m.finished:
		return "Finished"
	case m.paused:
		return "Paused"
	default:
		return "Playing"
	}
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.ctrl != nil {
			select {
			case m.ctrl.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.volume = min(100, m.volume+volumeStep)
		m.sendVolume()
	case "down":
		m.volume = max(0, m.volume-volumeStep)
		m.sendVolume()
	case " ":
		m.paused = !m.paused
		if m.ctrl != nil {
			select {
			case <-m.ctrl.Pause:
			default:
			}
			m.ctrl.Pause <- m.paused
		}
	}

	return m, nil
}

func (m Model) sendVolume() {
	if m.ctrl == nil {
		return
	}
	select {
	case m.ctrl.Volume <- m.volume:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	m.title = msg.Title
	m.source = msg.Source
	m.useCase = string(msg.Stream.UseCase)
	m.devices = msg.Stream.Devices.String()
	m.outFormat = fmt.Sprintf("%dHz %s %v", msg.Params.Rate, channelName(int(msg.Params.Channels)), msg.Params.Format)
	m.open = msg.Stream.Open
	m.powerLock = msg.Stream.PowerLockHeld
	m.frames = msg.Stream.FramesWritten
	m.latencyMs = msg.Stream.LatencyMs
	m.retries = msg.Retries
	m.volume = msg.Volume
	m.paused = msg.Paused
	m.finished = msg.Finished
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}

func heldName(held bool) string {
	if held {
		return "held"
	}
	return "released"
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
