package amqp

import (
	"testing"
	"time"
)

func TestNewNotification(t *testing.T) {
	msg := NewNotification(12345, KindReport, "Звіт за 2025-07-14")

	if msg.TgID != 12345 {
		t.Errorf("NewNotification() TgID = %v, want 12345", msg.TgID)
	}
	if msg.Kind != KindReport {
		t.Errorf("NewNotification() Kind = %v, want %v", msg.Kind, KindReport)
	}
	if msg.Text != "Звіт за 2025-07-14" {
		t.Errorf("NewNotification() Text = %v", msg.Text)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewNotification() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewNotification() Timestamp should be recent")
	}
}

func TestNotification_JSON(t *testing.T) {
	timestamp := time.Date(2025, 7, 14, 21, 0, 0, 0, time.UTC)
	msg := &Notification{
		TgID:      12345,
		Kind:      KindCurrency,
		Text:      "Unknown currency code 840 seen in transaction abc",
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := NotificationFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("NotificationFromJSON() error = %v", err)
	}

	if parsed.TgID != msg.TgID {
		t.Errorf("Parsed TgID = %v, want %v", parsed.TgID, msg.TgID)
	}
	if parsed.Kind != msg.Kind {
		t.Errorf("Parsed Kind = %v, want %v", parsed.Kind, msg.Kind)
	}
	if parsed.Text != msg.Text {
		t.Errorf("Parsed Text = %v, want %v", parsed.Text, msg.Text)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestNotificationFromJSON_Invalid(t *testing.T) {
	invalidJSON := []byte(`{"tg_id": "not_a_number", "kind": "report"}`)

	if _, err := NotificationFromJSON(invalidJSON); err == nil {
		t.Error("NotificationFromJSON() should fail with invalid JSON")
	}
}
