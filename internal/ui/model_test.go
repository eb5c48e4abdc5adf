// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling, and rendering helpers
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/resonate-hal/internal/app"
	"github.com/Resonate-Protocol/resonate-hal/pkg/audio"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/stream"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/ucm"
)

func testStatus() StatusMsg {
	return StatusMsg(app.Status{
		Title:  "track.flac",
		Source: audio.Format{Codec: "flac", SampleRate: 44100, Channels: 2, BitDepth: 24},
		Stream: stream.Status{
			UseCase:       ucm.UseCase(ucm.VerbHiFi),
			Devices:       driver.DeviceOutSpeaker,
			Open:          true,
			PowerLockHeld: true,
			FramesWritten: 4096,
			LatencyMs:     93,
		},
		Params: stream.Params{
			Devices:  driver.DeviceOutSpeaker,
			Format:   driver.FormatS16LE,
			Channels: 2,
			Rate:     48000,
		},
		Volume: 80,
	})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil)

	if model.volume != 100 {
		t.Errorf("expected default volume 100, got %d", model.volume)
	}
	if model.paused {
		t.Error("expected paused to be false initially")
	}
	if model.state() != "Playing" {
		t.Errorf("expected Playing state, got %s", model.state())
	}
}

func TestApplyStatus(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(testStatus())

	if model.title != "track.flac" {
		t.Errorf("expected title track.flac, got %s", model.title)
	}
	if model.useCase != ucm.VerbHiFi {
		t.Errorf("expected use case %s, got %s", ucm.VerbHiFi, model.useCase)
	}
	if model.devices != "Speaker" {
		t.Errorf("expected Speaker, got %s", model.devices)
	}
	if model.frames != 4096 {
		t.Errorf("expected 4096 frames, got %d", model.frames)
	}
	if model.latencyMs != 93 {
		t.Errorf("expected latency 93, got %d", model.latencyMs)
	}
	if !model.powerLock || !model.open {
		t.Error("expected open device with wake lock held")
	}
	if model.volume != 80 {
		t.Errorf("expected volume 80, got %d", model.volume)
	}
}

func TestStatusStates(t *testing.T) {
	model := NewModel(nil)

	msg := testStatus()
	msg.Paused = true
	model.applyStatus(msg)
	if model.state() != "Paused" {
		t.Errorf("expected Paused, got %s", model.state())
	}

	msg.Finished = true
	model.applyStatus(msg)
	if model.state() != "Finished" {
		t.Errorf("expected Finished, got %s", model.state())
	}
}

func TestVolumeKeys(t *testing.T) {
	ctrl := NewControl()
	var m tea.Model = NewModel(ctrl)

	m, _ = m.Update(key("down"))
	if got := m.(Model).volume; got != 95 {
		t.Errorf("expected volume 95, got %d", got)
	}
	if v := <-ctrl.Volume; v != 95 {
		t.Errorf("expected volume request 95, got %d", v)
	}

	m, _ = m.Update(key("up"))
	m, _ = m.Update(key("up"))
	if got := m.(Model).volume; got != 100 {
		t.Errorf("expected volume clamped to 100, got %d", got)
	}
}

func TestPauseKeyKeepsLatestRequest(t *testing.T) {
	ctrl := NewControl()
	var m tea.Model = NewModel(ctrl)

	m, _ = m.Update(key(" "))
	m, _ = m.Update(key(" "))
	m, _ = m.Update(key(" "))

	if !m.(Model).paused {
		t.Error("expected paused after three presses")
	}
	if paused := <-ctrl.Pause; !paused {
		t.Error("expected latest pause request to be true")
	}
	select {
	case <-ctrl.Pause:
		t.Error("expected a single queued pause request")
	default:
	}
}

func TestQuitKey(t *testing.T) {
	ctrl := NewControl()
	m, cmd := NewModel(ctrl).Update(key("q"))

	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !m.(Model).quitting {
		t.Error("expected quitting state")
	}
	select {
	case <-ctrl.Quit:
	default:
		t.Error("expected quit signal")
	}
}

func TestKeysWithoutControl(t *testing.T) {
	var m tea.Model = NewModel(nil)
	m, _ = m.Update(key("down"))
	m, _ = m.Update(key(" "))
	if !m.(Model).paused || m.(Model).volume != 95 {
		t.Error("model state should change without a control attached")
	}
}

func TestViewShowsStatus(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(testStatus())
	view := model.View()

	for _, want := range []string{"track.flac", "HiFi", "Speaker", "93ms", "held", "80%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTruncateFunction(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is too long", 10, "this is..."},
	}

	for _, tt := range tests {
		if result := truncate(tt.input, tt.length); result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.length, result, tt.expected)
		}
	}
}

func TestChannelNameFunction(t *testing.T) {
	tests := []struct {
		channels int
		expected string
	}{
		{1, "Mono"},
		{2, "Stereo"},
		{6, "6ch"},
	}

	for _, tt := range tests {
		if result := channelName(tt.channels); result != tt.expected {
			t.Errorf("channelName(%d) = %q, want %q", tt.channels, result, tt.expected)
		}
	}
}

func TestRenderBar(t *testing.T) {
	bar := renderBar(50, 100, 10)
	if bar != "█████░░░░░" {
		t.Errorf("unexpected bar %q", bar)
	}
}
