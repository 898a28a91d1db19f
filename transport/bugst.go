package transport

import (
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// bugstPort 把读截止时间换算成 bugst 的读超时
type bugstPort struct {
	serial.Port
}

func (p *bugstPort) SetReadDeadline(t time.Time) error {
	timeout := time.Until(t)
	if timeout < time.Millisecond {
		timeout = time.Millisecond
	}
	return p.Port.SetReadTimeout(timeout)
}

func bugstMode(cfg *Config) (*serial.Mode, error) {
	parity, err := normalizeParity(cfg.Parity)
	if err != nil {
		return nil, err
	}
	mode := &serial.Mode{
		BaudRate:          cfg.Baud,
		DataBits:          8,
		StopBits:          serial.OneStopBit,
		Parity:            serial.EvenParity,
		InitialStatusBits: &serial.ModemOutputBits{RTS: false, DTR: false},
	}
	switch parity {
	case 'N':
		mode.Parity = serial.NoParity
	case 'O':
		mode.Parity = serial.OddParity
	}
	return mode, nil
}

func openBugst(cfg *Config) (Port, error) {
	mode, err := bugstMode(cfg)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", cfg.Device)
	}
	if cfg.ReadTimeout > 0 {
		if err = port.SetReadTimeout(cfg.ReadTimeout); err != nil {
			port.Close()
			return nil, errors.Wrap(err, "set read timeout")
		}
	}
	return &bugstPort{Port: port}, nil
}
