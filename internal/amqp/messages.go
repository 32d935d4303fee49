package amqp

import (
	"encoding/json"
	"time"
)

// Notification kinds routed through the queue.
const (
	KindTransaction = "transaction"
	KindCurrency    = "currency"
	KindReport      = "report"
	KindFamily      = "family"
)

// Notification is one message bound for a Telegram chat. TgID zero means the
// message is for the operators rather than a specific user.
type Notification struct {
	TgID      int64     `json:"tg_id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func NewNotification(tgID int64, kind, text string) *Notification {
	return &Notification{
		TgID:      tgID,
		Kind:      kind,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *Notification) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func NotificationFromJSON(data []byte) (*Notification, error) {
	var msg Notification
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
