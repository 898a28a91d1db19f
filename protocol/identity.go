package protocol

// 模拟的自举程序版本 (v2.0)
const DefaultVersion byte = 0x20

// GET 命令应答里的命令列表, 顺序固定
var DefaultCommands = [11]Command{
	CommandGet, CommandGetVersion, CommandGetID, CommandReadMemory, CommandGo,
	CommandWriteMemory, CommandErase, CommandWriteProtect, CommandWriteUnProtect,
	CommandReadoutProtect, CommandReadoutUnprotect,
}

// Identity 自举程序的版本和命令列表
type Identity struct {
	Version  byte
	Commands [11]Command
}

// DefaultIdentity 返回默认身份
func DefaultIdentity() Identity {
	return Identity{Version: DefaultVersion, Commands: DefaultCommands}
}

// Block 版本字节加 11 个命令字节
func (i Identity) Block() []byte {
	block := make([]byte, 0, 1+len(i.Commands))
	block = append(block, i.Version)
	for _, c := range i.Commands {
		block = append(block, byte(c))
	}
	return block
}

// Count 应答中的命令总数 (含版本字节)
func (i Identity) Count() int {
	return 1 + len(i.Commands)
}
