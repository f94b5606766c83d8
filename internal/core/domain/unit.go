// internal/core/domain/unit.go
package domain

import (
	"time"
)

// UnitStatus represents the lifecycle state of a blood unit
type UnitStatus string

// Unit status constants
const (
	UnitAvailable UnitStatus = "available"
	UnitReserved  UnitStatus = "reserved"
	UnitIssued    UnitStatus = "issued"
	UnitExpired   UnitStatus = "expired"
	UnitDiscarded UnitStatus = "discarded"
)

// allowedTransitions is the complete unit state machine. Issued, expired
// and discarded are terminal.
var allowedTransitions = map[UnitStatus][]UnitStatus{
	UnitAvailable: {UnitReserved, UnitExpired, UnitDiscarded},
	UnitReserved:  {UnitIssued, UnitAvailable, UnitExpired, UnitDiscarded},
}

// CanTransitionTo reports whether a unit in status s may move to next
func (s UnitStatus) CanTransitionTo(next UnitStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible
func (s UnitStatus) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

// BloodUnit is one individually tracked unit of collected blood
type BloodUnit struct {
	UnitID        string     `json:"unit_id"`
	DonationID    string     `json:"donation_id,omitempty"`
	CollectedDate time.Time  `json:"collected_date"`
	ExpiryDate    time.Time  `json:"expiry_date"`
	Status        UnitStatus `json:"status"`
	ReservedFor   string     `json:"reserved_for,omitempty"`
	IssuedFor     string     `json:"issued_for,omitempty"`
}

// IsPastExpiry reports whether the unit's shelf life has ended at now
func (u *BloodUnit) IsPastExpiry(now time.Time) bool {
	return !u.ExpiryDate.After(now)
}

// IsExpiringSoon reports whether an available unit expires within the warning window
func (u *BloodUnit) IsExpiringSoon(now time.Time) bool {
	if u.Status != UnitAvailable {
		return false
	}
	remaining := u.ExpiryDate.Sub(now)
	return remaining > 0 && remaining <= ExpiringSoonWindow
}

// transition moves the unit to next, rejecting anything outside the state machine.
// ReservedFor is only kept while the unit is reserved.
func (u *BloodUnit) transition(next UnitStatus) error {
	if !u.Status.CanTransitionTo(next) {
		return &ConflictError{UnitID: u.UnitID, From: u.Status, To: next}
	}
	if next == UnitIssued {
		u.IssuedFor = u.ReservedFor
	}
	if next != UnitReserved {
		u.ReservedFor = ""
	}
	u.Status = next
	return nil
}
