package bridge

import "encoding/json"

// Cmd identifies the kind of wire command a bridge message carries,
// matching the reference implementation's dispatch table.
type Cmd string

const (
	CmdRexecAsy    Cmd = "REXEC-ASY"
	CmdRexecSyn    Cmd = "REXEC-SYN"
	CmdRexecAsyCbk Cmd = "REXEC-ASY-CBK"
	CmdRexecAck    Cmd = "REXEC-ACK"
	CmdRexecNak    Cmd = "REXEC-NAK"
	CmdRexecRes    Cmd = "REXEC-RES"
	CmdRexecErr    Cmd = "REXEC-ERR"
)

// Tier identifies which level of the messaging fabric a command
// originated from or is bound for. Device handles the full dispatch
// table; fog and cloud only ever originate ACK/NAK/ERR replies and otherwise
// expect nothing unsolicited.
type Tier int

const (
	TierDevice Tier = iota
	TierFog
	TierCloud
)

func (t Tier) String() string {
	switch t {
	case TierDevice:
		return "device"
	case TierFog:
		return "fog"
	case TierCloud:
		return "cloud"
	default:
		return "unknown"
	}
}

// Command is the wire record exchanged with the messaging fabric: enough
// fields to dispatch by cmd, resolve a pending remote-task record by
// actid or actarg, and carry a payload or an opt flag.
type Command struct {
	Cmd     Cmd    `json:"cmd"`
	Opt     string `json:"opt,omitempty"`
	ActArg  string `json:"actarg,omitempty"`
	ActID   string `json:"actid,omitempty"`
	ActName string `json:"actname"`
	Payload any    `json:"payload,omitempty"`
}

// Encode serializes a Command for transport.
func (c *Command) Encode() ([]byte, error) {
	return json.Marshal(c)
}

// DecodeCommand deserializes a wire Command.
func DecodeCommand(data []byte) (*Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
