package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		c0, c1   byte
		expected CommandKind
	}{
		{name: "get", c0: 0x00, c1: 0xFF, expected: GetCommands},
		{name: "write memory", c0: 0x31, c1: 0xCE, expected: WriteMemory},
		{name: "erase", c0: 0x43, c1: 0xBC, expected: EraseMemory},
		{name: "reset", c0: 0x03, c1: 0xFC, expected: Reset},
		{name: "read memory is not emulated", c0: 0x11, c1: 0xEE, expected: Unknown},
		{name: "extended erase is not emulated", c0: 0x44, c1: 0xBB, expected: Unknown},
		{name: "bad complement", c0: 0x31, c1: 0xCF, expected: Unknown},
		{name: "swapped bytes", c0: 0xCE, c1: 0x31, expected: Unknown},
		{name: "init byte as token", c0: 0x7F, c1: 0x7F, expected: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decode(tt.c0, tt.c1))
			assert.Equal(t, tt.expected, Token{Opcode: tt.c0, Checksum: tt.c1}.Kind())
		})
	}
}

func TestTokenValid(t *testing.T) {
	assert.True(t, Token{Opcode: 0x11, Checksum: 0xEE}.Valid())
	assert.False(t, Token{Opcode: 0x11, Checksum: 0xEF}.Valid())
	assert.Equal(t, "31 CE", Token{Opcode: 0x31, Checksum: 0xCE}.String())
}

func TestIdentityBlock(t *testing.T) {
	id := DefaultIdentity()
	assert.Equal(t, 12, id.Count())
	assert.Equal(t,
		[]byte{0x20, 0x00, 0x01, 0x02, 0x11, 0x21, 0x31, 0x43, 0x63, 0x73, 0x82, 0x92},
		id.Block())
}
