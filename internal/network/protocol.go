package network

import (
	"encoding/json"
	"fmt"
)

// Message is the envelope of everything pushed to a websocket subscriber.
type Message struct {
	Type    string          `json:"type"`    // Ex: "GAME_STATE", "GAME_DELETED"
	Payload json.RawMessage `json:"payload"` // kept raw so the hub never decodes it
}

const (
	MsgGameState   = "GAME_STATE"
	MsgGameDeleted = "GAME_DELETED"
)

// MaxMessageSize caps what a subscriber may send us. Subscribers only listen,
// so anything big is suspicious.
const MaxMessageSize = 4 * 1024

// NewMessage marshals payload into a Message of the given type.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}
	return Message{Type: msgType, Payload: data}, nil
}
