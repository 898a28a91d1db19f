// Package transport 打开模拟器或主机工具使用的串口.
//
// 支持两种驱动:
//   - bugst: go.bug.st/serial (默认, 支持 DTR/RTS)
//   - tarm:  github.com/tarm/serial
package transport

import (
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	DriverBugst = "bugst"
	DriverTarm  = "tarm"
)

// Port 串口
type Port interface {
	io.ReadWriteCloser
}

// LineController 可以控制 DTR/RTS 的串口, 用于让芯片进入 ISP 模式
type LineController interface {
	SetDTR(dtr bool) error
	SetRTS(rts bool) error
}

// Config 串口配置
type Config struct {
	// 设备路径, 如 "/dev/ttyUSB0", "COM4"
	Device string

	Baud int

	// N, E, O (自举程序使用偶校验)
	Parity string

	// bugst 或 tarm
	Driver string

	// 读超时, 0 表示阻塞读
	ReadTimeout time.Duration
}

// DefaultConfig 115200 8E1, 阻塞读
func DefaultConfig(device string) *Config {
	return &Config{
		Device: device,
		Baud:   115200,
		Parity: "E",
		Driver: DriverBugst,
	}
}

/*
 * @Description: 打开串口
 * @param cfg 配置
 * @return Port
 * @return error
 */
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Device == "" {
		return nil, errors.New("device cannot be empty")
	}
	if cfg.Baud <= 0 {
		return nil, errors.Errorf("invalid baud rate %d", cfg.Baud)
	}

	switch strings.ToLower(cfg.Driver) {
	case "", DriverBugst:
		return openBugst(cfg)
	case DriverTarm:
		return openTarm(cfg)
	}
	return nil, errors.Errorf("unknown serial driver %q", cfg.Driver)
}

func normalizeParity(p string) (byte, error) {
	switch strings.ToUpper(p) {
	case "", "E", "EVEN":
		return 'E', nil
	case "N", "NONE":
		return 'N', nil
	case "O", "ODD":
		return 'O', nil
	}
	return 0, errors.Errorf("unknown parity %q", p)
}
