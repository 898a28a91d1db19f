package isp

import "github.com/tocurd/stm32-isp-sim/protocol"

type Interface interface {
	// 激活ISP
	Activation() error

	// 重置芯片
	Reset() error

	// 波特率对码
	RightCode() error

	// 获取支持指令
	GetCommand() error

	// 指令是否可用
	IsSupported(command protocol.Command) bool

	// 全片擦除
	EraseMemoryAll() error

	// 写入到某个地址数据
	WriteMemory(addr uint32, data []byte) error

	// 将文件写入到flash内
	WriteFile(addr uint32, path string, progress func(float64)) error

	// 结束模拟器会话
	ResetSession() error
}

var _ Interface = (*ISP)(nil)
