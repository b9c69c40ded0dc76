// Package streaming defines the JSON envelope exchanged with a recording
// server over WebSocket.
package streaming

import (
	"encoding/json"

	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartSession   = "start_session"
	TypeEndSession     = "end_session"
	TypeCharacterState = "character_state"
	TypeInteraction    = "interaction"
	TypeAck            = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload carries the session being opened.
type StartSessionPayload struct {
	Session *core.Session `json:"session"`
}
