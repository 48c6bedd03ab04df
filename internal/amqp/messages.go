package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"ledger/internal/core"
	"ledger/internal/ports"
)

// RecordEventMessage is the wire form of ports.RecordEvent. It only names the
// record; the worker reads the data itself.
type RecordEventMessage struct {
	RecordID  string    `json:"recordId"`
	Kind      core.Kind `json:"kind"`
	OwnerID   string    `json:"ownerId"`
	Op        ports.Op  `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordEventMessage(e ports.RecordEvent) *RecordEventMessage {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &RecordEventMessage{
		RecordID:  e.RecordID,
		Kind:      e.Kind,
		OwnerID:   e.OwnerID,
		Op:        e.Op,
		Timestamp: ts,
	}
}

// Event converts the message back to the port type.
func (m *RecordEventMessage) Event() ports.RecordEvent {
	return ports.RecordEvent{
		RecordID:  m.RecordID,
		Kind:      m.Kind,
		OwnerID:   m.OwnerID,
		Op:        m.Op,
		Timestamp: m.Timestamp,
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordEventMessageFromJSON decodes and checks a message.
func RecordEventMessageFromJSON(data []byte) (*RecordEventMessage, error) {
	var msg RecordEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := core.ParseKind(string(msg.Kind)); err != nil {
		return nil, err
	}
	if msg.OwnerID == "" {
		return nil, errors.New("message has no owner id")
	}
	return &msg, nil
}
