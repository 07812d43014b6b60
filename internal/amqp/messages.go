package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agencycrm/internal/core"
)

// Event types carried in Message.Type.
const (
	EventPaymentStatusChanged = "payment.status_changed"
	EventRecordDeleted        = "record.deleted"
)

// Message is a lightweight record event. It carries identifiers only; the
// worker fetches the current record from the store.
type Message struct {
	Type      string             `json:"type"`
	Kind      core.RecordKind    `json:"kind"`
	ID        string             `json:"id"`
	From      core.PaymentStatus `json:"from,omitempty"`
	To        core.PaymentStatus `json:"to,omitempty"`
	Actor     string             `json:"actor,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

func NewPaymentStatusChangedMessage(kind core.RecordKind, id string, from, to core.PaymentStatus, actor string) *Message {
	return &Message{
		Type:      EventPaymentStatusChanged,
		Kind:      kind,
		ID:        id,
		From:      from,
		To:        to,
		Actor:     actor,
		Timestamp: time.Now(),
	}
}

func NewRecordDeletedMessage(kind core.RecordKind, id, actor string) *Message {
	return &Message{
		Type:      EventRecordDeleted,
		Kind:      kind,
		ID:        id,
		Actor:     actor,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate rejects messages no handler could act on.
func (m *Message) Validate() error {
	switch m.Type {
	case EventPaymentStatusChanged, EventRecordDeleted:
	default:
		return fmt.Errorf("unknown event type %q", m.Type)
	}
	if !m.Kind.IsValid() {
		return core.ErrInvalidKind
	}
	if m.ID == "" {
		return errors.New("missing record id")
	}
	return nil
}

// MessageFromJSON decodes and validates a message.
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
