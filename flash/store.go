// Package flash 模拟芯片内部 Flash: 固定大小的字节数组, 带基地址偏移.
//
// 所有写入都先检查范围, 越界写入返回 ErrOutOfRange 且不修改任何字节.
package flash

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// STM32 主 Flash 起始地址
const DefaultBase uint32 = 0x08000000

// 默认容量 62KB
const DefaultSize = 62000

var ErrOutOfRange = errors.New("address out of flash range")

// RangeError 描述越界的访问
type RangeError struct {
	Addr   uint32
	Length int
	Base   uint32
	Size   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("0x%08X+%d outside flash 0x%08X-0x%08X",
		e.Addr, e.Length, e.Base, uint64(e.Base)+uint64(e.Size))
}

func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// Store 模拟 Flash, 由会话独占, 不做并发保护
type Store struct {
	bytes []byte
	base  uint32
}

// New 创建全 0 的 Flash
func New(size int, base uint32) *Store {
	if size < 0 {
		size = 0
	}
	return &Store{bytes: make([]byte, size), base: base}
}

func (s *Store) Size() int {
	return len(s.bytes)
}

func (s *Store) Base() uint32 {
	return s.base
}

// EraseAll 全部清零
func (s *Store) EraseAll() {
	for index := range s.bytes {
		s.bytes[index] = 0
	}
}

/*
 * @Description: 地址转换为数组下标并检查范围
 * @param addr 地址
 * @param length 长度
 * @return offset
 * @return err
 */
func (s *Store) offset(addr uint32, length int) (int, error) {
	if length < 0 || addr < s.base {
		return 0, &RangeError{Addr: addr, Length: length, Base: s.base, Size: len(s.bytes)}
	}
	index := uint64(addr - s.base)
	if index+uint64(length) > uint64(len(s.bytes)) {
		return 0, &RangeError{Addr: addr, Length: length, Base: s.base, Size: len(s.bytes)}
	}
	return int(index), nil
}

/*
 * @Description: 写入数据
 * @param addr 写入地址
 * @param data 写入数据
 * @return error
 */
func (s *Store) Write(addr uint32, data []byte) error {
	index, err := s.offset(addr, len(data))
	if err != nil {
		return err
	}
	copy(s.bytes[index:], data)
	return nil
}

/*
 * @Description: 读取一段数据的副本
 * @param addr 读取地址
 * @param size 读取长度
 * @return data
 * @return err
 */
func (s *Store) ReadRange(addr uint32, size int) ([]byte, error) {
	index, err := s.offset(addr, size)
	if err != nil {
		return nil, err
	}
	data := make([]byte, size)
	copy(data, s.bytes[index:index+size])
	return data, nil
}

// Snapshot 整片数据的副本
func (s *Store) Snapshot() []byte {
	data := make([]byte, len(s.bytes))
	copy(data, s.bytes)
	return data
}

// WriteTo 导出原始镜像
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.bytes)
	return int64(n), errors.Wrap(err, "dump flash image")
}
