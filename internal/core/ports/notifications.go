package ports

import (
	"context"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
)

// EventPublisher streams ledger events to downstream consumers
type EventPublisher interface {
	PublishLedgerEvents(ctx context.Context, msgs []domain.LedgerEventMessage) error
	Close() error
}

// AlertNotifier raises stock alerts for staff
type AlertNotifier interface {
	NotifyStockAlert(ctx context.Context, alert domain.StockAlert) error
}

// HistoryArchiver stores snapshots of ledger history
type HistoryArchiver interface {
	ArchiveHistory(ctx context.Context, group domain.BloodGroup, events []domain.LedgerEvent) (string, error)
}
