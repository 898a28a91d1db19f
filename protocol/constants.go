package protocol

// 帧字节
const (
	Init byte = 0x7F // 主机发送的对码字节
	ACK  byte = 0x79
	NACK byte = 0x1F
)

// 全片擦除的页描述 (0xFF, 0x00)
var MassErase = [2]byte{0xFF, 0x00}

// 地址字段长度 (MSB在前)
const AddressSize = 4

// 单次写入最大字节数
const MaxWriteSize = 256

type Command byte

const (
	CommandGet              Command = 0x00 // 获取当前自举程序版本及允许使用的命令
	CommandGetVersion       Command = 0x01 // 获取自举程序版本及 Flash 的读保护状态
	CommandGetID            Command = 0x02 // 获取芯片 ID
	CommandReset            Command = 0x03 // 模拟器扩展: 结束会话, 重新等待对码
	CommandReadMemory       Command = 0x11 // 从指定地址开始读取最多 256 个字节
	CommandGo               Command = 0x21 // 跳转到内部 Flash 或 SRAM 内的应用程序代码
	CommandWriteMemory      Command = 0x31 // 从指定地址开始写入最多 256 个字节
	CommandErase            Command = 0x43 // 擦除一个到全部 Flash 页面
	CommandWriteProtect     Command = 0x63 // 使能某些扇区的写保护
	CommandWriteUnProtect   Command = 0x73 // 禁止所有 Flash 扇区的写保护
	CommandReadoutProtect   Command = 0x82 // 使能读保护
	CommandReadoutUnprotect Command = 0x92 // 禁止读保护
)

// Bytes 返回命令字节及其补码
func (c Command) Bytes() []byte {
	return []byte{byte(c), Complement(byte(c))}
}
