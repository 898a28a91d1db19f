package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tocurd/stm32-isp-sim/emulator"
	"github.com/tocurd/stm32-isp-sim/protocol"
)

func TestDumpImage(t *testing.T) {
	input := bytes.NewBuffer([]byte{protocol.Init})
	input.Write(protocol.CommandWriteMemory.Bytes())
	input.Write([]byte{0x08, 0x00, 0x00, 0x02, 0x0A})
	input.Write([]byte{0x00, 0x5A, 0x5A})
	rw := &pipe{in: input}
	emu := emulator.New(rw, emulator.WithFlashSize(8))
	require.NoError(t, emu.Serve())

	path := filepath.Join(t.TempDir(), "flash.bin")
	require.NoError(t, dumpImage(emu, path))
	image, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0x5A, 0, 0, 0, 0, 0}, image)
}

type pipe struct {
	in  *bytes.Buffer
	out bytes.Buffer
}

func (p *pipe) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *pipe) Write(b []byte) (int, error) { return p.out.Write(b) }

func TestFlagHelpers(t *testing.T) {
	require.NoError(t, serveCmd.ParseFlags([]string{"--base", "0x20000000", "--flash-size", "1024", "--dialect", "an3155"}))
	assert.Equal(t, uint32(0x20000000), getAddress(serveCmd, "base"))
	assert.Equal(t, 1024, getInt(serveCmd, "flash-size"))
	assert.Equal(t, protocol.DialectAN3155, getDialect(serveCmd))
	assert.False(t, getFlag(serveCmd, "double-nack"))
	assert.Equal(t, byte(0x20), getByte(serveCmd, "bl-version"))

	cfg := portConfig(serveCmd)
	assert.Equal(t, "bugst", cfg.Driver)
	assert.Equal(t, 115200, cfg.Baud)
}

func TestParseByte(t *testing.T) {
	tests := []struct {
		in       string
		expected byte
		fail     bool
	}{
		{in: "0x20", expected: 0x20},
		{in: "49", expected: 49},
		{in: "0xFF", expected: 0xFF},
		{in: "0x120", fail: true},
		{in: "256", fail: true},
		{in: "-1", fail: true},
		{in: "v2", fail: true},
	}

	for _, tt := range tests {
		got, err := parseByte(tt.in)
		if tt.fail {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.expected, got, tt.in)
	}
}
