package transport

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tarm "github.com/tarm/serial"
	"go.bug.st/serial"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, "E", cfg.Parity)
	assert.Equal(t, DriverBugst, cfg.Driver)
	assert.Zero(t, cfg.ReadTimeout)
}

func TestBugstMode(t *testing.T) {
	tests := []struct {
		parity   string
		expected serial.Parity
	}{
		{parity: "", expected: serial.EvenParity},
		{parity: "e", expected: serial.EvenParity},
		{parity: "N", expected: serial.NoParity},
		{parity: "odd", expected: serial.OddParity},
	}

	for _, tt := range tests {
		cfg := DefaultConfig("/dev/null")
		cfg.Parity = tt.parity
		mode, err := bugstMode(cfg)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, mode.Parity, "parity %q", tt.parity)
		assert.Equal(t, 8, mode.DataBits)
		assert.Equal(t, serial.OneStopBit, mode.StopBits)
	}
}

func TestTarmConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyS0")
	cfg.ReadTimeout = 500 * time.Millisecond
	c, err := tarmConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, tarm.ParityEven, c.Parity)
	assert.Equal(t, tarm.Stop1, c.StopBits)
	assert.Equal(t, byte(8), c.Size)
	assert.Equal(t, 500*time.Millisecond, c.ReadTimeout)

	cfg.Parity = "none"
	c, err = tarmConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, tarm.ParityNone, c.Parity)
}

func TestOpenErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "ttyMissing")

	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "nil config", cfg: nil},
		{name: "empty device", cfg: &Config{Baud: 115200}},
		{name: "bad baud", cfg: &Config{Device: missing}},
		{name: "unknown driver", cfg: &Config{Device: missing, Baud: 9600, Driver: "usb"}},
		{name: "unknown parity", cfg: &Config{Device: missing, Baud: 9600, Parity: "X"}},
		{name: "missing device bugst", cfg: &Config{Device: missing, Baud: 9600, Driver: DriverBugst}},
		{name: "missing device tarm", cfg: &Config{Device: missing, Baud: 9600, Driver: DriverTarm}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port, err := Open(tt.cfg)
			assert.Error(t, err)
			assert.Nil(t, port)
		})
	}
}

type timeoutRecorder struct {
	serial.Port
	timeouts []time.Duration
}

func (r *timeoutRecorder) SetReadTimeout(t time.Duration) error {
	r.timeouts = append(r.timeouts, t)
	return nil
}

func TestBugstReadDeadline(t *testing.T) {
	rec := &timeoutRecorder{}
	port := &bugstPort{Port: rec}
	var _ LineController = port

	require.NoError(t, port.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, port.SetReadDeadline(time.Now().Add(-time.Second)))
	require.Len(t, rec.timeouts, 2)
	assert.InDelta(t, float64(time.Second), float64(rec.timeouts[0]), float64(100*time.Millisecond))
	assert.Equal(t, time.Millisecond, rec.timeouts[1])
}
