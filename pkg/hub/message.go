// Package hub fans out dashboard updates to every connected websocket
// client using a single channel-driven loop.
package hub

import "github.com/teslashibe/go-focus/pkg/protocol"

// MessageType indicates the websocket frame type
type MessageType int

const (
	// JSONMessage is a JSON-encoded protocol message
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data such as a preview JPEG
	BinaryMessage
)

// Message is one queued broadcast
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps raw bytes
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}

// NewProtocolMessage encodes a protocol message for broadcast
func NewProtocolMessage(msg *protocol.Message) (Message, error) {
	data, err := msg.Bytes()
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}
