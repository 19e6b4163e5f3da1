package amqp

import (
	"encoding/json"
	"time"

	"moneyflow/internal/core"
)

// EventTransactionIngested is set as the AMQP message type of every published event.
const EventTransactionIngested = "transaction.ingested"

// TransactionEvent carries one transaction in its wire form. The consumer
// validates it again before storing, so producers may send unnormalised data.
type TransactionEvent struct {
	Transaction core.RawTransaction `json:"transaction"`
	Timestamp   time.Time           `json:"timestamp"`
}

func NewTransactionEvent(raw core.RawTransaction) *TransactionEvent {
	return &TransactionEvent{
		Transaction: raw,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
