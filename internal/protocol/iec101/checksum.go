package iec101

// Checksum 计算链路层校验和：控制域、地址域与用户数据逐字节累加，取模 256。
// 使用 uint8 自然回绕实现取模，属于协议定义而非溢出缺陷。
func Checksum(control byte, address []byte, payload []byte) byte {
	sum := control
	for _, b := range address {
		sum += b
	}
	for _, b := range payload {
		sum += b
	}
	return sum
}

// VerifyChecksum 比较接收到的校验字节与重新计算的结果
func VerifyChecksum(control byte, address []byte, payload []byte, received byte) bool {
	return Checksum(control, address, payload) == received
}
