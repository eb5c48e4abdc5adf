// ABOUTME: Tests for the hardware interface
// ABOUTME: Covers modes, single output ownership and teardown
package hal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver/drivertest"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/stream"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/ucm"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/wakelock"
)

var testDriverConfig = driver.Config{
	Rate:        44100,
	Channels:    2,
	Format:      driver.FormatS16LE,
	PeriodSize:  128,
	PeriodCount: 4,
}

var testParams = stream.Params{
	Devices:  driver.DeviceOutSpeaker,
	Format:   driver.FormatS16LE,
	Channels: 2,
	Rate:     44100,
}

func newHardware(t *testing.T) (*Hardware, *drivertest.Module, *wakelock.Recorder, *ucm.Mgr) {
	t.Helper()
	module := drivertest.NewModule()
	locks := wakelock.NewRecorder()
	mgr := ucm.New("test")
	hw, err := New(Config{
		Card:   "test",
		Driver: testDriverConfig,
		Module: module,
		UCM:    mgr,
		Locker: locks,
	})
	require.NoError(t, err)
	return hw, module, locks, mgr
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{Driver: testDriverConfig})
	assert.Error(t, err, "module required")

	_, err = New(Config{Module: drivertest.NewModule()})
	assert.Error(t, err, "driver config required")

	hw, err := New(Config{Driver: testDriverConfig, Module: drivertest.NewModule()})
	require.NoError(t, err)
	assert.Equal(t, driver.ModeNormal, hw.Mode())
	assert.Equal(t, driver.TTYOff, hw.TTYMode())
}

func TestModes(t *testing.T) {
	hw, _, _, _ := newHardware(t)

	require.NoError(t, hw.SetMode(driver.ModeInCall))
	assert.Equal(t, driver.ModeInCall, hw.Mode())
	assert.Error(t, hw.SetMode(driver.Mode(-1)))

	hw.SetTTYMode(driver.TTYFull)
	assert.Equal(t, driver.TTYFull, hw.TTYMode())
}

func TestOpenOutputStream(t *testing.T) {
	hw, _, _, _ := newHardware(t)

	s, err := hw.OpenOutputStream(testParams)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())

	_, err = hw.OpenOutputStream(testParams)
	assert.ErrorIs(t, err, ErrStreamBusy)

	bad := testParams
	bad.Rate = 8000
	require.NoError(t, hw.CloseOutputStream(s))
	_, err = hw.OpenOutputStream(bad)
	assert.ErrorIs(t, err, stream.ErrUnsupportedFormat)
}

func TestStreamRoutesWithHardwareModes(t *testing.T) {
	hw, _, _, mgr := newHardware(t)
	require.NoError(t, hw.SetMode(driver.ModeInCall))
	hw.SetTTYMode(driver.TTYFull)

	s, err := hw.OpenOutputStream(testParams)
	require.NoError(t, err)

	_, err = s.Write(bytes.Repeat([]byte{1}, 512))
	require.NoError(t, err)
	assert.Equal(t, []string{"Headset"}, mgr.Devices(), "TTY in call routes to the headset")
}

func TestCloseReleasesEverything(t *testing.T) {
	hw, module, locks, _ := newHardware(t)

	s, err := hw.OpenOutputStream(testParams)
	require.NoError(t, err)
	_, err = s.Write(bytes.Repeat([]byte{1}, 512))
	require.NoError(t, err)
	assert.True(t, locks.Held(stream.DefaultLockTag))

	require.NoError(t, hw.Close())
	assert.False(t, locks.Held(stream.DefaultLockTag))
	assert.Nil(t, hw.Handle().Conn)
	_, closes, _, _ := module.Counts()
	assert.Equal(t, 1, closes)

	assert.NoError(t, hw.Close(), "close with no stream is a no-op")
	assert.ErrorIs(t, hw.CloseOutputStream(s), ErrUnknownStream)

	// A new stream can be opened after teardown.
	_, err = hw.OpenOutputStream(testParams)
	assert.NoError(t, err)
}
