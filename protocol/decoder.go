package protocol

import "fmt"

// CommandKind 模拟器能识别的命令
type CommandKind int

const (
	Unknown CommandKind = iota
	GetCommands
	WriteMemory
	EraseMemory
	Reset
)

func (k CommandKind) String() string {
	switch k {
	case GetCommands:
		return "GET_COMMANDS"
	case WriteMemory:
		return "WRITE_MEMORY"
	case EraseMemory:
		return "ERASE_MEMORY"
	case Reset:
		return "RESET"
	default:
		return "UNKNOWN"
	}
}

// 支持的命令表, 命令字节必须与补码成对出现
var commandTable = map[[2]byte]CommandKind{
	{byte(CommandGet), 0xFF}:         GetCommands,
	{byte(CommandWriteMemory), 0xCE}: WriteMemory,
	{byte(CommandErase), 0xBC}:       EraseMemory,
	{byte(CommandReset), 0xFC}:       Reset,
}

// Token 从通道读到的两字节命令
type Token struct {
	Opcode   byte
	Checksum byte
}

func (t Token) String() string {
	return fmt.Sprintf("%02X %02X", t.Opcode, t.Checksum)
}

// Valid 补码是否匹配, 与命令是否受支持无关
func (t Token) Valid() bool {
	return t.Checksum == Complement(t.Opcode)
}

// Decode 按固定命令表识别命令, 表外的一律为 Unknown
func Decode(c0, c1 byte) CommandKind {
	if kind, ok := commandTable[[2]byte{c0, c1}]; ok {
		return kind
	}
	return Unknown
}

// Kind 识别命令
func (t Token) Kind() CommandKind {
	return Decode(t.Opcode, t.Checksum)
}
