package transport

import (
	"io"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// tarmPort 超时读时 tarm 返回 io.EOF, 这里改为 (0, nil), 与 bugst 行为一致
type tarmPort struct {
	port    *serial.Port
	timeout bool
}

func (p *tarmPort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if n == 0 && err == io.EOF && p.timeout {
		return 0, nil
	}
	return n, err
}

func (p *tarmPort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *tarmPort) Close() error {
	return p.port.Close()
}

func tarmConfig(cfg *Config) (*serial.Config, error) {
	parity, err := normalizeParity(cfg.Parity)
	if err != nil {
		return nil, err
	}
	return &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
		Size:        8,
		Parity:      serial.Parity(parity),
		StopBits:    serial.Stop1,
	}, nil
}

func openTarm(cfg *Config) (Port, error) {
	c, err := tarmConfig(cfg)
	if err != nil {
		return nil, err
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", cfg.Device)
	}
	return &tarmPort{port: port, timeout: cfg.ReadTimeout > 0}, nil
}
