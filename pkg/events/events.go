// pkg/events/events.go
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Routing keys published on the ledger events exchange.
const (
	RoutingOrderCompleted    = "crypto.order.completed"
	RoutingOrderRejected     = "crypto.order.rejected"
	RoutingSnapshotCompleted = "snapshot.completed"
)

// OrderDecidedEvent is emitted after an approval decision commits.
type OrderDecidedEvent struct {
	EventID    uuid.UUID       `json:"event_id"`
	OrderID    int64           `json:"order_id"`
	UserID     int64           `json:"user_id"`
	CryptoID   int64           `json:"crypto_id"`
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	TotalValue decimal.Decimal `json:"total_value"`
	DecidedBy  int64           `json:"decided_by"`
	Timestamp  time.Time       `json:"timestamp"`
}

// SnapshotCompletedEvent summarises one run of the daily snapshot job.
type SnapshotCompletedEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	Date      string    `json:"date"`
	Created   int       `json:"created"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}
