// Package protocol holds the Archipelago wire types used by the reader: the
// inbound frames it understands and the two outbound commands it sends.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type Command string

const (
	CmdConnect           Command = "Connect"
	CmdGetDataPackage    Command = "GetDataPackage"
	CmdConnected         Command = "Connected"
	CmdDataPackage       Command = "DataPackage"
	CmdPrintJSON         Command = "PrintJSON"
	CmdConnectionRefused Command = "ConnectionRefused"
)

// Frame is one decoded server command. The set of implementations is closed:
// Connected, DataPackage, PrintJSON, ConnectionRefused, Unknown and Invalid.
type Frame interface {
	Command() Command
	frame()
}

// NetworkPlayer is one entry of Connected.players.
type NetworkPlayer struct {
	Team  int    `json:"team"`
	Slot  int    `json:"slot"`
	Alias string `json:"alias"`
	Name  string `json:"name"`
}

// NetworkSlot is one value of Connected.slot_info.
type NetworkSlot struct {
	Name         string `json:"name"`
	Game         string `json:"game"`
	Type         int    `json:"type"`
	GroupMembers []int  `json:"group_members,omitempty"`
}

type Connected struct {
	Team     int                    `json:"team"`
	Slot     int                    `json:"slot"`
	Players  []NetworkPlayer        `json:"players"`
	SlotInfo map[string]NetworkSlot `json:"slot_info"`
}

// DataPackage carries the catalog payload undecoded; its shape is loose
// enough that the catalog store walks it itself.
type DataPackage struct {
	Data json.RawMessage `json:"data"`
}

// MessagePart is one fragment of a PrintJSON event.
type MessagePart struct {
	Type   string `json:"type,omitempty"`
	Text   string `json:"text"`
	Player *int   `json:"player,omitempty"`
	Flags  *int   `json:"flags,omitempty"`
}

// Fragment types referenced by the reader.
const (
	PartText       = "text"
	PartPlayerID   = "player_id"
	PartItemID     = "item_id"
	PartLocationID = "location_id"
)

type PrintJSON struct {
	Type      string        `json:"type,omitempty"`
	Data      []MessagePart `json:"data"`
	Receiving *int          `json:"receiving,omitempty"`
}

type ConnectionRefused struct {
	Errors []string `json:"errors"`
}

// Unknown is any well-formed command the reader does not handle.
type Unknown struct {
	Cmd string
	Raw json.RawMessage
}

// Invalid is an array element that could not be decoded into its command's shape.
type Invalid struct {
	Cmd string
	Raw json.RawMessage
	Err error
}

func (*Connected) Command() Command         { return CmdConnected }
func (*DataPackage) Command() Command       { return CmdDataPackage }
func (*PrintJSON) Command() Command         { return CmdPrintJSON }
func (*ConnectionRefused) Command() Command { return CmdConnectionRefused }
func (u *Unknown) Command() Command         { return Command(u.Cmd) }
func (i *Invalid) Command() Command         { return Command(i.Cmd) }

func (*Connected) frame()         {}
func (*DataPackage) frame()       {}
func (*PrintJSON) frame()         {}
func (*ConnectionRefused) frame() {}
func (*Unknown) frame()           {}
func (*Invalid) frame()           {}

// ErrEmptyPayload is returned by Decode for a blank message.
var ErrEmptyPayload = errors.New("empty payload")

// Decode parses one websocket message. The server may send a single command
// object or an array of them; both come back as a slice in message order.
// A syntactically broken message returns an error. An element with the wrong
// shape becomes an *Invalid frame so the remaining elements still dispatch.
func Decode(raw []byte) ([]Frame, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrEmptyPayload
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("decode frame: invalid json")
	}

	var elems []json.RawMessage
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, fmt.Errorf("decode frame: %w", err)
		}
	} else {
		elems = []json.RawMessage{raw}
	}

	frames := make([]Frame, 0, len(elems))
	for _, elem := range elems {
		frames = append(frames, decodeOne(elem))
	}
	return frames, nil
}

func decodeOne(elem json.RawMessage) Frame {
	var head struct {
		Cmd string `json:"cmd"`
	}
	if err := json.Unmarshal(elem, &head); err != nil {
		return &Invalid{Raw: elem, Err: fmt.Errorf("read cmd: %w", err)}
	}

	var f Frame
	switch Command(head.Cmd) {
	case CmdConnected:
		f = &Connected{}
	case CmdDataPackage:
		f = &DataPackage{}
	case CmdPrintJSON:
		f = &PrintJSON{}
	case CmdConnectionRefused:
		f = &ConnectionRefused{}
	default:
		return &Unknown{Cmd: head.Cmd, Raw: elem}
	}

	if err := json.Unmarshal(elem, f); err != nil {
		return &Invalid{Cmd: head.Cmd, Raw: elem, Err: fmt.Errorf("decode %s: %w", head.Cmd, err)}
	}
	return f
}
