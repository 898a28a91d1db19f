package emulator

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/tocurd/stm32-isp-sim/flash"
)

// 错误类型
//
// ErrFraming 是致命错误, 其余三种回复 NACK 后继续处理下一条命令.
var (
	ErrFraming          = errors.New("framing error")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrUnsupported      = errors.New("unsupported operation")
	ErrOutOfRangeWrite  = flash.ErrOutOfRange

	// 在命令边界处通道被关闭
	ErrClosed = errors.New("channel closed")
)

// FramingError 对码字节错误
type FramingError struct {
	Got byte
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("incorrect init byte 0x%02X != 0x7F", e.Got)
}

func (e *FramingError) Is(target error) bool {
	return target == ErrFraming
}

// ChecksumError 地址或数据校验失败
type ChecksumError struct {
	Field    string
	Received byte
	Computed byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("invalid %s checksum 0x%02X != 0x%02X", e.Field, e.Received, e.Computed)
}

func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksumMismatch
}

// recoverable 是否可以回复 NACK 后继续
func recoverable(err error) bool {
	return errors.Is(err, ErrChecksumMismatch) ||
		errors.Is(err, ErrUnsupported) ||
		errors.Is(err, ErrOutOfRangeWrite)
}
