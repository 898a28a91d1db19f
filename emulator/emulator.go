// Package emulator 模拟 STM32 ROM 中的串口自举程序 (AN3155).
//
// 模拟器从通道逐条读取命令, 同步应答 ACK/NACK, 一次只处理一条命令.
// 写命令和擦除命令作用于内存中的 Flash 模型. RESET (0x03 0xFC) 是模拟器
// 扩展命令: 不回复任何字节, 会话回到等待对码状态, Flash 内容保留.
package emulator

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tocurd/stm32-isp-sim/flash"
	"github.com/tocurd/stm32-isp-sim/protocol"
)

// State 会话状态
type State int

const (
	AwaitingInit State = iota
	ProcessingCommands
)

func (s State) String() string {
	if s == ProcessingCommands {
		return "ProcessingCommands"
	}
	return "AwaitingInit"
}

// Stats 计数
type Stats struct {
	Sessions     int
	Commands     int
	Writes       int
	BytesWritten int
	Erases       int
	Nacks        int
}

func (s *Stats) add(o Stats) {
	s.Sessions += o.Sessions
	s.Commands += o.Commands
	s.Writes += o.Writes
	s.BytesWritten += o.BytesWritten
	s.Erases += o.Erases
	s.Nacks += o.Nacks
}

// SessionEvent 一次会话的结果, Err 为 nil 表示收到 RESET 正常结束
type SessionEvent struct {
	// 已完成对码的会话数
	Session int
	Stats   Stats
	Err     error
}

// Emulator 自举程序模拟器, 独占通道和 Flash
type Emulator struct {
	ch       io.ReadWriter
	cfg      Config
	store    *flash.Store
	identity protocol.Identity
	state    State
	total    Stats
	session  Stats
	log      *log.Entry
}

/*
 * @Description: 创建模拟器
 * @param ch 字节通道 (串口或测试用管道)
 * @param opts 配置
 * @return *Emulator
 */
func New(ch io.ReadWriter, opts ...Option) *Emulator {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	identity := protocol.DefaultIdentity()
	identity.Version = cfg.Version

	return &Emulator{
		ch:       ch,
		cfg:      cfg,
		store:    flash.New(cfg.FlashSize, cfg.BaseAddress),
		identity: identity,
		state:    AwaitingInit,
		log:      cfg.Logger,
	}
}

func (e *Emulator) State() State {
	return e.state
}

// Flash 返回 Flash 模型, 仅用于检查
func (e *Emulator) Flash() *flash.Store {
	return e.store
}

// Stats 返回累计计数
func (e *Emulator) Stats() Stats {
	return e.total
}

/*
 * @Description: 连续处理会话, 直到通道关闭或出现致命错误
 * @return error 通道在命令边界处关闭时返回 nil
 */
func (e *Emulator) Serve() error {
	for {
		err := e.RunSession()
		if err == nil {
			continue
		}
		if errors.Is(err, ErrClosed) {
			e.log.Info("channel closed, stopping")
			return nil
		}
		return err
	}
}

/*
 * @Description: 运行一次会话: 等待对码, 处理命令直到 RESET
 * @return error RESET 时返回 nil
 */
func (e *Emulator) RunSession() (err error) {
	e.session = Stats{}
	defer func() {
		e.state = AwaitingInit
		e.total.add(e.session)
		if e.cfg.SessionHook != nil {
			e.cfg.SessionHook(SessionEvent{Session: e.total.Sessions, Stats: e.session, Err: err})
		}
	}()

	if err = e.awaitInit(); err != nil {
		return err
	}
	e.session.Sessions = 1
	e.state = ProcessingCommands

	for {
		token, err := e.readToken()
		if err != nil {
			return err
		}
		kind := token.Kind()
		e.session.Commands++
		e.log.WithFields(log.Fields{"token": token.String(), "cmd": kind.String()}).Debug("received command")

		switch kind {
		case protocol.GetCommands:
			err = e.getCommands()
		case protocol.WriteMemory:
			err = e.writeMemory()
		case protocol.EraseMemory:
			err = e.eraseMemory()
		case protocol.Reset:
			e.log.Info("reset done, waiting for init")
			return nil
		default:
			err = e.nack(errors.Wrapf(ErrUnsupported, "command %s", token))
		}

		if err == nil {
			continue
		}
		if !recoverable(err) {
			return err
		}
		e.log.WithField("cmd", kind.String()).Warn(err)
	}
}

/*
 * @Description: 等待对码字节 0x7F
 * @return error
 */
func (e *Emulator) awaitInit() error {
	buf, err := e.read(1, true)
	if err != nil {
		return err
	}
	if buf[0] != protocol.Init {
		e.log.Errorf("incorrect init byte, %02X != %02X", buf[0], protocol.Init)
		return &FramingError{Got: buf[0]}
	}
	e.log.Debug("init received")
	return e.send(protocol.ACK)
}

func (e *Emulator) readToken() (protocol.Token, error) {
	buf, err := e.read(2, true)
	if err != nil {
		return protocol.Token{}, err
	}
	return protocol.Token{Opcode: buf[0], Checksum: buf[1]}, nil
}

/*
 * @Description: GET 命令: ACK, 数量, 版本+命令列表, ACK
 * @return error
 */
func (e *Emulator) getCommands() error {
	frame := []byte{protocol.ACK, e.cfg.Dialect.CountByte(e.identity)}
	frame = append(frame, e.identity.Block()...)
	frame = append(frame, protocol.ACK)
	return e.send(frame...)
}

/*
 * @Description: 写存储器命令
 * 地址校验失败时只回复 NACK, 不再读取后续的长度和数据
 * @return error
 */
func (e *Emulator) writeMemory() error {
	if err := e.send(protocol.ACK); err != nil {
		return err
	}

	buf, err := e.read(protocol.AddressSize+1, false)
	if err != nil {
		return err
	}
	addr := binary.BigEndian.Uint32(buf[:protocol.AddressSize])
	if sum := protocol.XOR(buf[:protocol.AddressSize]...); sum != buf[protocol.AddressSize] {
		return e.nack(&ChecksumError{Field: "address", Received: buf[protocol.AddressSize], Computed: sum})
	}
	if err = e.send(protocol.ACK); err != nil {
		return err
	}

	length, err := e.read(1, false)
	if err != nil {
		return err
	}
	// 数据 n+1 字节, 最后 1 字节为校验
	buf, err = e.read(int(length[0])+2, false)
	if err != nil {
		return err
	}
	payload, received := buf[:len(buf)-1], buf[len(buf)-1]

	if sum := e.cfg.Dialect.PayloadChecksum(length[0], payload); sum != received {
		err = &ChecksumError{Field: "payload", Received: received, Computed: sum}
		if e.cfg.DoubleNack {
			e.session.Nacks++
			if sendErr := e.send(protocol.NACK); sendErr != nil {
				return sendErr
			}
		}
		return e.nack(err)
	}

	if err = e.store.Write(addr, payload); err != nil {
		return e.nack(errors.WithStack(err))
	}
	e.session.Writes++
	e.session.BytesWritten += len(payload)
	e.log.WithFields(log.Fields{"addr": fmt.Sprintf("0x%08X", addr), "len": len(payload)}).Debug("bytes flashed")
	return e.send(protocol.ACK)
}

/*
 * @Description: 擦除命令, 只支持全片擦除 (0xFF 0x00)
 * @return error
 */
func (e *Emulator) eraseMemory() error {
	if err := e.send(protocol.ACK); err != nil {
		return err
	}
	scope, err := e.read(2, false)
	if err != nil {
		return err
	}
	if scope[0] != protocol.MassErase[0] || scope[1] != protocol.MassErase[1] {
		return e.nack(errors.Wrapf(ErrUnsupported, "erase scope %02X %02X", scope[0], scope[1]))
	}
	e.store.EraseAll()
	e.session.Erases++
	e.log.Info("flash erased")
	return e.send(protocol.ACK)
}

// nack 回复 NACK, 返回原始错误
func (e *Emulator) nack(cause error) error {
	e.session.Nacks++
	if err := e.send(protocol.NACK); err != nil {
		return err
	}
	return cause
}

func (e *Emulator) send(data ...byte) error {
	_, err := e.ch.Write(data)
	return errors.Wrap(err, "write to channel")
}

/*
 * @Description: 读取 n 个字节, 不足 n 个视为协议错误
 * @param n 字节数
 * @param boundary 是否处于命令边界 (此时通道关闭是正常结束)
 * @return []byte
 * @return error
 */
func (e *Emulator) read(n int, boundary bool) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(e.ch, buf); err != nil {
		if err == io.EOF {
			if boundary {
				return nil, ErrClosed
			}
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrapf(err, "read %d bytes", n)
	}
	return buf, nil
}
