package amqp

import (
	"testing"
	"time"
)

func TestNewTransactionChangedMessage(t *testing.T) {
	msg := NewTransactionChangedMessage("u1", "tx-42", OpCreated)

	if msg.UserID != "u1" || msg.TxID != "tx-42" || msg.Op != OpCreated {
		t.Errorf("unexpected fields: %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("timestamp should be recent")
	}
}

func TestTransactionChangedMessageJSON(t *testing.T) {
	original := &TransactionChangedMessage{
		UserID:    "u1",
		TxID:      "tx-42",
		Op:        OpDeleted,
		Timestamp: time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
	}

	data, err := original.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	parsed, err := TransactionChangedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if parsed.UserID != original.UserID || parsed.TxID != original.TxID || parsed.Op != original.Op {
		t.Errorf("round trip changed fields: %+v", parsed)
	}
	if !parsed.Timestamp.Equal(original.Timestamp) {
		t.Errorf("timestamp = %v, want %v", parsed.Timestamp, original.Timestamp)
	}
}

func TestTransactionChangedMessageInvalidJSON(t *testing.T) {
	if _, err := TransactionChangedMessageFromJSON([]byte(`{"op": 7}`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
