package emulator

import (
	log "github.com/sirupsen/logrus"
	"github.com/tocurd/stm32-isp-sim/flash"
	"github.com/tocurd/stm32-isp-sim/protocol"
)

// Config 模拟器配置
type Config struct {
	// Flash 容量 (字节)
	FlashSize int

	// Flash 起始地址
	BaseAddress uint32

	// GET 应答中的版本字节
	Version byte

	// 帧格式
	Dialect protocol.Dialect

	// 数据校验失败时回复两次 NACK, 兼容旧的测试数据
	DoubleNack bool

	Logger *log.Entry

	// 每个会话结束时调用 (可选)
	SessionHook func(SessionEvent)
}

func defaultConfig() Config {
	return Config{
		FlashSize:   flash.DefaultSize,
		BaseAddress: flash.DefaultBase,
		Version:     protocol.DefaultVersion,
		Dialect:     protocol.DialectSimulator,
		Logger:      log.NewEntry(log.StandardLogger()),
	}
}

// Option 配置选项
type Option func(*Config)

func WithFlashSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.FlashSize = size
		}
	}
}

func WithBaseAddress(base uint32) Option {
	return func(c *Config) {
		c.BaseAddress = base
	}
}

func WithVersion(version byte) Option {
	return func(c *Config) {
		c.Version = version
	}
}

func WithDialect(d protocol.Dialect) Option {
	return func(c *Config) {
		c.Dialect = d
	}
}

// WithDoubleNack 数据校验失败时回复 NACK, NACK
func WithDoubleNack(enabled bool) Option {
	return func(c *Config) {
		c.DoubleNack = enabled
	}
}

func WithLogger(logger *log.Entry) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithSessionHook 会话结束回调
//
// Example:
//
//	emu := emulator.New(port, emulator.WithSessionHook(func(ev emulator.SessionEvent) {
//	    fmt.Printf("session %d: %d writes\n", ev.Session, ev.Stats.Writes)
//	}))
func WithSessionHook(hook func(SessionEvent)) Option {
	return func(c *Config) {
		c.SessionHook = hook
	}
}
