// Package isp 是 STM32 串口自举程序 (AN3155) 的主机端工具,
// 可以连接真实芯片, 也可以连接本仓库的模拟器.
package isp

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tocurd/stm32-isp-sim/protocol"
	"github.com/tocurd/stm32-isp-sim/transport"
)

var NACKError = errors.New("NACK")
var ErrTimeout = errors.New("timeout")
var ErrNoLineControl = errors.New("port does not support DTR/RTS")

const WriteBlockSize = 256
const WriteMaxRetryCount = 5

// 写失败后等待残留应答的静默时间
const DrainQuiet = 50 * time.Millisecond

// ISP 主机端
//
// 所有等待都带超时, 前提是端口能让 Read 按时返回: 实现 SetReadDeadline
// (net.Conn, transport.Open 打开的 bugst 串口), 或者打开时设置了读超时
// (transport.Config.ReadTimeout). 两者都没有的阻塞端口上, 对端不应答时会一直等待.
type ISP struct {
	Port      io.ReadWriter
	Dialect   protocol.Dialect
	Version   byte
	Supported []protocol.Command
}

func (t *ISP) lines() (transport.LineController, error) {
	lc, ok := t.Port.(transport.LineController)
	if !ok {
		return nil, ErrNoLineControl
	}
	return lc, nil
}

/*
 * @Description: 激活ISP (BOOT0 接 RTS, NRST 接 DTR)
 * @return error
 */
func (t *ISP) Activation() error {
	lc, err := t.lines()
	if err != nil {
		return err
	}
	if err := lc.SetDTR(false); err != nil {
		return err
	}
	if err := lc.SetRTS(false); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)

	if err := lc.SetDTR(false); err != nil {
		return err
	}
	if err := lc.SetRTS(true); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	if err := lc.SetDTR(true); err != nil {
		return err
	}
	if err := lc.SetRTS(false); err != nil {
		return err
	}
	return lc.SetRTS(true)
}

/*
 * @Description: 重置芯片
 * @return error
 */
func (t *ISP) Reset() error {
	lc, err := t.lines()
	if err != nil {
		return err
	}
	if err := lc.SetDTR(false); err != nil {
		return err
	}
	if err := lc.SetRTS(true); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	return lc.SetRTS(false)
}

/*
 * @Description: 对码
 * @return error
 */
func (t *ISP) RightCode() error {
	return t.ack([]byte{protocol.Init}, 5*time.Second)
}

/*
 * @Description: 结束模拟器会话 (模拟器扩展命令, 无应答)
 * @return error
 */
func (t *ISP) ResetSession() error {
	_, err := t.Port.Write(protocol.CommandReset.Bytes())
	return err
}

/*
 * @Description: 获取bootloader版本号及支持的命令
 * @return error
 */
func (t *ISP) GetCommand() error {
	pack, err := t.command(protocol.CommandGet)
	if err != nil {
		return err
	}
	t.Version = pack[0]
	t.Supported = []protocol.Command{}
	for _, c := range pack[1:] {
		t.Supported = append(t.Supported, protocol.Command(c))
	}
	return nil
}

// IsSupported GetCommand 之后判断命令是否可用
func (t *ISP) IsSupported(command protocol.Command) bool {
	for _, c := range t.Supported {
		if c == command {
			return true
		}
	}
	return false
}

/*
 * @Description: 全片擦除
 * @return error
 */
func (t *ISP) EraseMemoryAll() error {
	if err := t.ack(protocol.CommandErase.Bytes(), 5*time.Second); err != nil {
		return err
	}
	return t.ack(protocol.MassErase[:], time.Minute)
}

/*
 * @Description: 将数据写入任意有效存储器地址
 * @param addr 写入地址
 * @param data 写入数据 (1-256 字节)
 * @return error
 */
func (t *ISP) WriteMemory(addr uint32, data []byte) error {
	if len(data) == 0 || len(data) > protocol.MaxWriteSize {
		return errors.Errorf("invalid write size %d", len(data))
	}
	if err := t.ack(protocol.CommandWriteMemory.Bytes(), 5*time.Second); err != nil {
		return err
	}

	temp := make([]byte, protocol.AddressSize, protocol.AddressSize+1)
	binary.BigEndian.PutUint32(temp, addr)
	temp = append(temp, t.checkSum(temp))
	if err := t.ack(temp, 5*time.Second); err != nil {
		return err
	}

	// 4字节对齐
	if remainder := len(data) % 4; remainder != 0 && len(data)+4-remainder <= protocol.MaxWriteSize {
		padded := make([]byte, len(data), len(data)+4-remainder)
		copy(padded, data)
		for index := remainder; index < 4; index++ {
			padded = append(padded, 0xFF)
		}
		data = padded
	}

	n := byte(len(data) - 1)
	temp = []byte{n}
	temp = append(temp, data...)
	temp = append(temp, t.Dialect.PayloadChecksum(n, data))
	return t.ack(temp, 5*time.Second)
}

/*
 * @Description: 将文件写入flash (.bin 或 .hex)
 * @param addr 起始地址, hex 文件中没有扩展地址记录时作为基地址
 * @param path 文件路径
 * @param progress 进度回调 (百分比)
 * @return error
 */
func (t *ISP) WriteFile(addr uint32, path string, progress func(float64)) error {
	if progress == nil {
		progress = func(float64) {}
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var blocks []block
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex":
		blocks, err = readHex(f, addr)
	case ".bin":
		blocks, err = readBin(f, addr)
	default:
		err = errors.Errorf("unsupported file type %s", path)
	}
	if err != nil {
		return err
	}

	for index, b := range blocks {
		progress(float64(index) / float64(len(blocks)) * 100.0)
		if err = t.writeWithRetry(b.addr, b.data); err != nil {
			return err
		}
	}
	progress(100.0)
	return nil
}

func (t *ISP) writeWithRetry(addr uint32, data []byte) error {
	var err error
	for retry := 0; retry < WriteMaxRetryCount; retry++ {
		if err = t.WriteMemory(addr, data); err == nil {
			return nil
		}
		log.WithField("addr", fmt.Sprintf("0x%08X", addr)).Warnf("write failed: %v", err)
		// 对端可能回复了不止一个 NACK, 清掉后再重试
		if errors.Is(err, NACKError) {
			if drainErr := t.drain(DrainQuiet); drainErr != nil {
				return errors.Wrap(drainErr, "drain after NACK")
			}
		}
	}
	return errors.Wrapf(err, "write addr 0x%08X fail", addr)
}

type block struct {
	addr uint32
	data []byte
}

func readBin(r io.Reader, addr uint32) ([]block, error) {
	var blocks []block
	reader := bufio.NewReaderSize(r, WriteBlockSize)
	for {
		buffer := make([]byte, WriteBlockSize)
		n, err := io.ReadFull(reader, buffer)
		if n > 0 {
			blocks = append(blocks, block{addr: addr, data: buffer[:n]})
			addr += uint32(n)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return blocks, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

/*
 * @Description: 解析 Intel HEX, 只处理数据记录和扩展线性地址记录
 * @param r 文件
 * @param addr 没有扩展地址记录时的基地址
 * @return []block
 * @return error
 */
func readHex(r io.Reader, addr uint32) ([]block, error) {
	var blocks []block
	var upper uint32
	extended := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineStr := strings.TrimSpace(scanner.Text())
		if len(lineStr) <= 0 || lineStr[0] != ':' {
			continue
		}
		line, err := hexCharToBytes(lineStr[1:])
		if err != nil {
			return nil, err
		}
		if len(line) < 5 || int(line[0])+5 != len(line) {
			return nil, errors.Errorf("malformed hex record %q", lineStr)
		}
		if sum := sumBytes(line); sum != 0 {
			return nil, errors.Errorf("hex record checksum error %q", lineStr)
		}

		dataOffset := uint32(line[1])<<8 | uint32(line[2])
		data := line[4 : len(line)-1]
		switch line[3] {
		case 0x00:
			base := addr
			if extended {
				base = upper
			}
			blocks = append(blocks, block{addr: base + dataOffset, data: data})
		case 0x01:
			return blocks, nil
		case 0x04:
			if len(data) != 2 {
				return nil, errors.Errorf("malformed extended address %q", lineStr)
			}
			upper = uint32(data[0])<<24 | uint32(data[1])<<16
			extended = true
		}
	}
	return blocks, scanner.Err()
}
