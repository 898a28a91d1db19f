package isp

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/tocurd/stm32-isp-sim/protocol"
)

// readDeadliner 支持读截止时间的端口, 如 net.Conn 和 transport 打开的 bugst 串口
type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

func (t *ISP) checkSum(data []byte) byte {
	return protocol.XOR(data...)
}

func sumBytes(data []byte) byte {
	result := byte(0)
	for index := 0; index < len(data); index++ {
		result += data[index]
	}
	return result
}

/*
 * @Description: 读取一个字节, timeout 后返回 ErrTimeout
 * 端口支持 SetReadDeadline 时先设置截止时间, 否则依赖端口自身的读超时
 * @return byte
 * @return error
 */
func (t *ISP) readByte(timeout time.Duration) (byte, error) {
	deadline := time.Now().Add(timeout)
	if d, ok := t.Port.(readDeadliner); ok {
		if err := d.SetReadDeadline(deadline); err != nil {
			return 0, err
		}
	}
	buff := make([]byte, 1)
	for {
		n, err := t.Port.Read(buff)
		if n == 1 {
			return buff[0], nil
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, ErrTimeout
		}
		if err != nil {
			return 0, err
		}
		if time.Now().After(deadline) {
			return 0, ErrTimeout
		}
	}
}

/*
 * @Description: 丢弃残留的应答字节, 直到 quiet 时间内没有新数据
 * @return error
 */
func (t *ISP) drain(quiet time.Duration) error {
	for {
		if _, err := t.readByte(quiet); err != nil {
			if errors.Is(err, ErrTimeout) {
				return nil
			}
			return err
		}
	}
}

/*
 * @Description: 接收 size 个字节
 * @return []byte
 * @return error
 */
func (t *ISP) receivePack(size int, timeout time.Duration) ([]byte, error) {
	pack := make([]byte, 0, size)
	for len(pack) < size {
		b, err := t.readByte(timeout)
		if err != nil {
			return nil, err
		}
		pack = append(pack, b)
	}
	return pack, nil
}

/*
 * @Description: 发送数据并等待确认帧
 * @return error
 */
func (t *ISP) ack(data []byte, after time.Duration) error {
	if _, err := t.Port.Write(data); err != nil {
		return err
	}
	if err := t.waitACK(after); err != nil {
		if err == ErrTimeout {
			return errors.Wrapf(err, "0x%02X", data)
		}
		return err
	}
	return nil
}

/*
 * @Description: 等待确认帧, 忽略其他字节
 * @return error
 */
func (t *ISP) waitACK(after time.Duration) error {
	deadline := time.Now().Add(after)
	for {
		b, err := t.readByte(time.Until(deadline))
		if err != nil {
			return err
		}
		switch b {
		case protocol.ACK:
			return nil
		case protocol.NACK:
			return NACKError
		}
	}
}

/*
 * @Description: 执行带数量字节应答的指令 (GET)
 * @param command
 * @return []byte 应答数据, 不含数量字节和首尾 ACK
 * @return error
 */
func (t *ISP) command(command protocol.Command) ([]byte, error) {
	if err := t.ack(command.Bytes(), 5*time.Second); err != nil {
		return nil, err
	}
	count, err := t.readByte(5 * time.Second)
	if err != nil {
		return nil, err
	}
	pack, err := t.receivePack(t.Dialect.BlockLength(count), 5*time.Second)
	if err != nil {
		return nil, err
	}
	if err = t.waitACK(5 * time.Second); err != nil {
		return nil, err
	}
	return pack, nil
}

func hexCharToBytes(hexStr string) ([]byte, error) {
	if len(hexStr)%2 != 0 {
		return nil, fmt.Errorf("hex string length must be even")
	}

	bytes := make([]byte, len(hexStr)/2)
	for i := 0; i < len(hexStr); i += 2 {
		val, err := strconv.ParseUint(hexStr[i:i+2], 16, 8)
		if err != nil {
			return nil, err
		}
		bytes[i/2] = byte(val)
	}
	return bytes, nil
}
