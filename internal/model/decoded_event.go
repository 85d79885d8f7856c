package model

import (
	"bytes"
	"encoding/json"
)

// Argument is one decoded event input, positioned by declaration order.
type Argument struct {
	Name  string
	Value interface{}
}

// Arguments preserves declaration order while still marshalling to a plain
// JSON object, which a name-keyed Go map would not keep stable.
type Arguments []Argument

// Get returns the value for a parameter name.
func (a Arguments) Get(name string) (interface{}, bool) {
	for _, arg := range a {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the arguments as an object in declaration order.
func (a Arguments) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, arg := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(arg.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(arg.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodedEvent is one event occurrence decoded against its definition.
// Wide integer arguments are rendered as decimal strings so serialization
// never loses precision.
type DecodedEvent struct {
	ChainID     uint64    `json:"chain_id,omitempty"`
	BlockNumber uint64    `json:"block_number"`
	BlockHash   string    `json:"block_hash,omitempty"`
	TxHash      string    `json:"tx_hash"`
	LogIndex    uint64    `json:"log_index"`
	Address     string    `json:"address"`
	EventName   string    `json:"event_name"`
	Removed     bool      `json:"removed,omitempty"`
	Timestamp   uint64    `json:"timestamp,omitempty"`
	Arguments   Arguments `json:"arguments"`
}
