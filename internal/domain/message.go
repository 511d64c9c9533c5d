package domain

import (
	"encoding/json"
)

// Client -> server message types.
const (
	MsgJoin  = "join"
	MsgLeave = "leave"
	MsgPing  = "ping"
)

// Server -> client control message types.
const (
	MsgJoined = "joined"
	MsgLeft   = "left"
	MsgPong   = "pong"
	MsgError  = "error"
)

// Message is a control message exchanged over the realtime socket.
type Message struct {
	Type    string `json:"type"`
	TopicID string `json:"topicId,omitempty"`
}

// ErrorMessage reports an error to the client.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Encode serializes a value to JSON bytes.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeMessage deserializes JSON bytes into a Message.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	return m, err
}
