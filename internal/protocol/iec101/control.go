package iec101

import "fmt"

// 控制域位定义，仅在 ParseControl / Control.Byte 中使用
const (
	bitDIR      byte = 0x80
	bitPRM      byte = 0x40
	bitFCBACD   byte = 0x20
	bitFCVDFC   byte = 0x10
	maskFuncode byte = 0x0F
)

// Direction 传输方向（DIR 位）
type Direction uint8

const (
	DirFromMaster Direction = 0 // 控制站 -> 子站
	DirFromSlave  Direction = 1 // 子站 -> 控制站
)

func (d Direction) String() string {
	if d == DirFromSlave {
		return "from_slave"
	}
	return "from_master"
}

// FunctionCode 控制域低 4 位功能码，含义取决于 PRM
type FunctionCode uint8

// 启动站（PRM=1）功能码
const (
	FuncResetRemoteLink   FunctionCode = 0
	FuncSendLinkStatus    FunctionCode = 2
	FuncSendUserData      FunctionCode = 3
	FuncSendNoAnswerData  FunctionCode = 4
	FuncAccessRequest     FunctionCode = 8
	FuncRequestLinkStatus FunctionCode = 9
	FuncRequestClass1Data FunctionCode = 10
	FuncRequestClass2Data FunctionCode = 11
)

// 从动站（PRM=0）功能码
const (
	FuncConfirmAck        FunctionCode = 0
	FuncConfirmNack       FunctionCode = 1
	FuncRespondUserData   FunctionCode = 8
	FuncRespondNoData     FunctionCode = 9
	FuncRespondLinkStatus FunctionCode = 11
)

var primaryFuncNames = map[FunctionCode]string{
	FuncResetRemoteLink:   "reset_remote_link",
	FuncSendLinkStatus:    "send_link_status",
	FuncSendUserData:      "send_user_data",
	FuncSendNoAnswerData:  "send_no_answer_data",
	FuncAccessRequest:     "access_request",
	FuncRequestLinkStatus: "request_link_status",
	FuncRequestClass1Data: "request_class1_data",
	FuncRequestClass2Data: "request_class2_data",
}

var secondaryFuncNames = map[FunctionCode]string{
	FuncConfirmAck:        "confirm_ack",
	FuncConfirmNack:       "confirm_nack",
	FuncRespondUserData:   "respond_user_data",
	FuncRespondNoData:     "respond_no_data",
	FuncRespondLinkStatus: "respond_link_status",
}

// IsPrimaryFunction 是否为启动站合法功能码
func IsPrimaryFunction(fc FunctionCode) bool {
	_, ok := primaryFuncNames[fc]
	return ok
}

// IsSecondaryFunction 是否为从动站合法功能码
func IsSecondaryFunction(fc FunctionCode) bool {
	_, ok := secondaryFuncNames[fc]
	return ok
}

// Control 控制域结构化表示。
// Bit5 在启动站报文中为 FCB，在从动站报文中为 ACD；Bit4 同理为 FCV / DFC。
// 结构本身不校验功能码与方向是否匹配，由调用方负责。
type Control struct {
	DIR  Direction
	PRM  bool
	Bit5 bool
	Bit4 bool
	Func FunctionCode
}

// ParseControl 从原始字节解包控制域
func ParseControl(b byte) Control {
	c := Control{
		PRM:  b&bitPRM != 0,
		Bit5: b&bitFCBACD != 0,
		Bit4: b&bitFCVDFC != 0,
		Func: FunctionCode(b & maskFuncode),
	}
	if b&bitDIR != 0 {
		c.DIR = DirFromSlave
	}
	return c
}

// Byte 打包为线上字节
func (c Control) Byte() byte {
	var b byte
	if c.DIR == DirFromSlave {
		b |= bitDIR
	}
	if c.PRM {
		b |= bitPRM
	}
	if c.Bit5 {
		b |= bitFCBACD
	}
	if c.Bit4 {
		b |= bitFCVDFC
	}
	return b | byte(c.Func)&maskFuncode
}

func (c Control) FromMaster() bool  { return c.DIR == DirFromMaster }
func (c Control) FromPrimary() bool { return c.PRM }

// FCB 帧计数位（启动站）
func (c Control) FCB() bool { return c.Bit5 }

// ACD 一级数据等待访问（从动站）
func (c Control) ACD() bool { return c.Bit5 }

// FCV 帧计数有效位（启动站）
func (c Control) FCV() bool { return c.Bit4 }

// DFC 数据流控制，子站无法接收（从动站）
func (c Control) DFC() bool { return c.Bit4 }

func (c Control) FunctionCode() FunctionCode { return c.Func }

func (c *Control) SetDIR(d Direction) { c.DIR = d }
func (c *Control) SetPRM(v bool)      { c.PRM = v }
func (c *Control) SetFCB(v bool)      { c.Bit5 = v }
func (c *Control) SetACD(v bool)      { c.Bit5 = v }
func (c *Control) SetFCV(v bool)      { c.Bit4 = v }
func (c *Control) SetDFC(v bool)      { c.Bit4 = v }

// SetFunc 只保留低 4 位
func (c *Control) SetFunc(fc FunctionCode) { c.Func = fc & FunctionCode(maskFuncode) }

// FunctionName 按 PRM 选择功能码表返回名称，未定义时返回 "fc_N"
func (c Control) FunctionName() string {
	names := secondaryFuncNames
	if c.PRM {
		names = primaryFuncNames
	}
	if n, ok := names[c.Func]; ok {
		return n
	}
	return fmt.Sprintf("fc_%d", c.Func)
}

func (c Control) String() string {
	if c.PRM {
		return fmt.Sprintf("%s prm=1 fcb=%t fcv=%t %s", c.DIR, c.FCB(), c.FCV(), c.FunctionName())
	}
	return fmt.Sprintf("%s prm=0 acd=%t dfc=%t %s", c.DIR, c.ACD(), c.DFC(), c.FunctionName())
}
