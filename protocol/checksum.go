package protocol

// XOR 计算所有字节的异或校验, 空输入返回 0
func XOR(data ...byte) byte {
	result := byte(0)
	for index := 0; index < len(data); index++ {
		result ^= data[index]
	}
	return result
}

// VerifyXOR 校验 data 的异或值是否等于 sum
func VerifyXOR(data []byte, sum byte) bool {
	return XOR(data...) == sum
}

// Complement 按位取反
func Complement(b byte) byte {
	return 0xFF ^ b
}
