package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXOR(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected byte
	}{
		{name: "empty data", data: nil, expected: 0x00},
		{name: "single byte", data: []byte{0x5A}, expected: 0x5A},
		{name: "base address", data: []byte{0x08, 0x00, 0x00, 0x00}, expected: 0x08},
		{name: "payload", data: []byte{0xDE, 0xAD}, expected: 0x73},
		{name: "cancels out", data: []byte{0x31, 0x31}, expected: 0x00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, XOR(tt.data...))
			assert.True(t, VerifyXOR(tt.data, tt.expected))
			assert.False(t, VerifyXOR(tt.data, tt.expected^0x01))
		})
	}
}

func TestComplement(t *testing.T) {
	assert.Equal(t, byte(0xFF), Complement(0x00))
	assert.Equal(t, byte(0xCE), Complement(0x31))
	assert.Equal(t, byte(0xBC), Complement(0x43))
	assert.Equal(t, []byte{0x03, 0xFC}, CommandReset.Bytes())
}

func TestDialectPayloadChecksum(t *testing.T) {
	payload := []byte{0xDE, 0xAD}
	assert.Equal(t, byte(0x73), DialectSimulator.PayloadChecksum(0x01, payload))
	assert.Equal(t, byte(0x72), DialectAN3155.PayloadChecksum(0x01, payload))
	assert.Equal(t, byte(0x73), DialectFlasher.PayloadChecksum(0x01, payload))
}

func TestDialectCount(t *testing.T) {
	id := DefaultIdentity()
	assert.Equal(t, byte(12), DialectSimulator.CountByte(id))
	assert.Equal(t, 12, DialectSimulator.BlockLength(12))
	assert.Equal(t, byte(11), DialectAN3155.CountByte(id))
	assert.Equal(t, 12, DialectAN3155.BlockLength(11))
	assert.Equal(t, byte(11), DialectFlasher.CountByte(id))
	assert.Equal(t, 12, DialectFlasher.BlockLength(11))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("AN3155")
	assert.NoError(t, err)
	assert.Equal(t, DialectAN3155, d)

	d, err = ParseDialect("")
	assert.NoError(t, err)
	assert.Equal(t, DialectSimulator, d)

	d, err = ParseDialect("flasher")
	assert.NoError(t, err)
	assert.Equal(t, DialectFlasher, d)
	assert.Equal(t, "flasher", d.String())

	_, err = ParseDialect("usb")
	assert.Error(t, err)
}
