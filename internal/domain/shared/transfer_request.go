package shared

import (
	"time"

	"github.com/google/uuid"
)

// TransferRequest is the input of one transfer, also used as the Kafka message body
type TransferRequest struct {
	TransferID      string    `json:"transfer_id"`
	FromAccountID   uuid.UUID `json:"from_account_id"`
	ToAccountNumber string    `json:"to_account_number"`
	Amount          int64     `json:"amount"` // Stored in cents/minor units
	CorrelationID   string    `json:"correlation_id"`
	Timestamp       time.Time `json:"timestamp"`
}
