package amqp

import (
	"encoding/json"
	"time"
)

const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// TransactionChangedMessage announces that a user's transaction set changed.
// It carries only identifiers; consumers fetch the current state from the
// database, so a stale or duplicated delivery is harmless.
type TransactionChangedMessage struct {
	UserID    string    `json:"userId"`
	TxID      string    `json:"txId"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionChangedMessage(userID, txID, op string) *TransactionChangedMessage {
	return &TransactionChangedMessage{
		UserID:    userID,
		TxID:      txID,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *TransactionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionChangedMessageFromJSON(data []byte) (*TransactionChangedMessage, error) {
	var msg TransactionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
