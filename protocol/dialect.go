package protocol

import (
	"strings"

	"github.com/pkg/errors"
)

// Dialect 几种细节不同的帧格式, 区别在 GET 数量字节和写数据校验两处
//
// DialectSimulator: 数量字节为命令总数 (12), 数据校验只覆盖数据本身.
// DialectAN3155: 与芯片 ROM 一致, 数量字节为 N-1 (11), 数据校验包含长度字节.
// DialectFlasher: 配套烧录器 (App/flasher) 使用, 数量字节为 N-1 (11), 数据校验只覆盖数据本身.
type Dialect int

const (
	DialectSimulator Dialect = iota
	DialectAN3155
	DialectFlasher
)

func (d Dialect) String() string {
	switch d {
	case DialectAN3155:
		return "an3155"
	case DialectFlasher:
		return "flasher"
	}
	return "simulator"
}

// ParseDialect 解析命令行参数
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "", "sim", "simulator":
		return DialectSimulator, nil
	case "an3155", "rom":
		return DialectAN3155, nil
	case "flasher":
		return DialectFlasher, nil
	}
	return DialectSimulator, errors.Errorf("unknown dialect %q", s)
}

// countMinusOne 数量字节是否为 N-1
func (d Dialect) countMinusOne() bool {
	return d == DialectAN3155 || d == DialectFlasher
}

// LengthInChecksum 数据校验是否包含长度字节
func (d Dialect) LengthInChecksum() bool {
	return d == DialectAN3155
}

// CountByte GET 应答中的数量字节
func (d Dialect) CountByte(id Identity) byte {
	if d.countMinusOne() {
		return byte(id.Count() - 1)
	}
	return byte(id.Count())
}

// BlockLength 根据数量字节计算后续身份块长度
func (d Dialect) BlockLength(count byte) int {
	if d.countMinusOne() {
		return int(count) + 1
	}
	return int(count)
}

// PayloadChecksum 写命令数据块的校验值, n 为长度字节 (字节数-1)
func (d Dialect) PayloadChecksum(n byte, payload []byte) byte {
	if d.LengthInChecksum() {
		return n ^ XOR(payload...)
	}
	return XOR(payload...)
}
