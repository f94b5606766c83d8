package domain

import "time"

// EventAction identifies the kind of ledger history entry
type EventAction string

// Event action constants
const (
	ActionAdded      EventAction = "added"
	ActionReserved   EventAction = "reserved"
	ActionUnreserved EventAction = "unreserved"
	ActionIssued     EventAction = "issued"
	ActionExpired    EventAction = "expired"
	ActionDiscarded  EventAction = "discarded"
)

// LedgerEvent is an immutable audit record. It is replayed for display only
// and never used to derive current state.
type LedgerEvent struct {
	Action      EventAction `json:"action"`
	Units       int         `json:"units"`
	PerformedBy string      `json:"performed_by"`
	Reason      string      `json:"reason,omitempty"`
	RelatedID   string      `json:"related_id,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// LedgerEventMessage is a ledger event tagged with its blood group, as
// published to downstream consumers
type LedgerEventMessage struct {
	BloodGroup     BloodGroup  `json:"blood_group"`
	Event          LedgerEvent `json:"event"`
	UnitsAvailable int         `json:"units_available"`
	UnitsReserved  int         `json:"units_reserved"`
	Version        int64       `json:"version"`
}

// AlertKind classifies stock alerts
type AlertKind string

// Alert kinds
const (
	AlertLowStock AlertKind = "low_stock"
	AlertExpired  AlertKind = "expired"
)

// StockAlert is raised when a ledger needs staff attention
type StockAlert struct {
	BloodGroup     BloodGroup `json:"blood_group"`
	Kind           AlertKind  `json:"kind"`
	UnitsAvailable int        `json:"units_available"`
	Threshold      int        `json:"threshold,omitempty"`
	Count          int        `json:"count,omitempty"`
	RaisedAt       time.Time  `json:"raised_at"`
}
