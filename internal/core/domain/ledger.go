// internal/core/domain/ledger.go
package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// History reason texts
const (
	ReasonManualAddition = "Manual addition"
	ReasonExpiryCheck    = "Automatic expiry check"
	ReasonDiscarded      = "Units discarded"
)

// InventoryLedger is the per-blood-group aggregate. It exclusively owns its
// units; UnitsAvailable and UnitsReserved always equal the number of units in
// the matching status.
//
// History holds the events loaded with the ledger plus any appended since.
// Repositories may load only a recent window of it.
type InventoryLedger struct {
	BloodGroup     BloodGroup    `json:"blood_group"`
	UnitsAvailable int           `json:"units_available"`
	UnitsReserved  int           `json:"units_reserved"`
	Location       string        `json:"location"`
	Units          []BloodUnit   `json:"units"`
	History        []LedgerEvent `json:"history,omitempty"`
	LastUpdated    time.Time     `json:"last_updated"`
	CreatedAt      time.Time     `json:"created_at"`
	Version        int64         `json:"version"`

	changed   map[string]struct{}
	newEvents []LedgerEvent
}

// NewInventoryLedger creates an empty ledger for group
func NewInventoryLedger(group BloodGroup, location string, now time.Time) *InventoryLedger {
	if location == "" {
		location = DefaultLocation
	}
	return &InventoryLedger{
		BloodGroup:  group,
		Location:    location,
		Units:       []BloodUnit{},
		LastUpdated: now,
		CreatedAt:   now,
	}
}

// NewUnitID generates a unique unit identifier prefixed with a blood group code
func NewUnitID(group BloodGroup) string {
	code := strings.NewReplacer("+", "POS", "-", "NEG").Replace(string(group))
	return fmt.Sprintf("%s-%s", code, uuid.NewString())
}

// AddUnits adds count manually collected units
func (l *InventoryLedger) AddUnits(count int, collected time.Time, actor, reason string, now time.Time) ([]BloodUnit, error) {
	if reason == "" {
		reason = ReasonManualAddition
	}
	if collected.After(now) {
		return nil, &ValidationError{Field: "collected_date", Message: "cannot be in the future"}
	}
	return l.addUnits(count, "", collected, actor, reason, now)
}

// AddFromDonation adds the units of a recorded donation. A donation that has
// already been ingested is a no-op and returns no units. The donation is
// already recorded upstream, so a collection date ahead of the local clock is
// clamped to now rather than rejected.
func (l *InventoryLedger) AddFromDonation(count int, donationID string, collected time.Time, actor string, now time.Time) ([]BloodUnit, error) {
	if strings.TrimSpace(donationID) == "" {
		return nil, &ValidationError{Field: "donation_id", Message: "is required"}
	}
	if l.HasDonation(donationID) {
		return nil, nil
	}
	if collected.After(now) {
		collected = now
	}
	return l.addUnits(count, donationID, collected, actor, "Added from donation "+donationID, now)
}

func (l *InventoryLedger) addUnits(count int, donationID string, collected time.Time, actor, reason string, now time.Time) ([]BloodUnit, error) {
	if err := validateQuantity("units", count); err != nil {
		return nil, err
	}
	if collected.IsZero() {
		collected = now
	}

	added := make([]BloodUnit, 0, count)
	for i := 0; i < count; i++ {
		unit := BloodUnit{
			UnitID:        NewUnitID(l.BloodGroup),
			DonationID:    donationID,
			CollectedDate: collected,
			ExpiryDate:    ExpiryFor(collected),
			Status:        UnitAvailable,
		}
		l.Units = append(l.Units, unit)
		l.markChanged(unit.UnitID)
		added = append(added, unit)
	}

	l.UnitsAvailable += count
	l.record(ActionAdded, count, actor, reason, donationID, now)
	return added, nil
}

// Reserve holds quantity available units for requestID, oldest expiry first.
// Either all requested units are reserved or the ledger is left unchanged.
func (l *InventoryLedger) Reserve(quantity int, requestID, actor string, now time.Time) ([]BloodUnit, error) {
	if err := validateQuantity("units", quantity); err != nil {
		return nil, err
	}
	if err := validateRequestID(requestID); err != nil {
		return nil, err
	}

	eligible := l.selectFIFO(func(u *BloodUnit) bool {
		return u.Status == UnitAvailable && !u.IsPastExpiry(now)
	})
	if len(eligible) < quantity {
		return nil, &InsufficientStockError{
			BloodGroup: l.BloodGroup,
			RequestID:  requestID,
			Requested:  quantity,
			Available:  len(eligible),
		}
	}

	reserved, err := l.apply(eligible[:quantity], UnitReserved, func(u *BloodUnit) {
		u.ReservedFor = requestID
	})
	if err != nil {
		return nil, err
	}

	l.UnitsAvailable -= quantity
	l.UnitsReserved += quantity
	l.record(ActionReserved, quantity, actor, "Reserved for request "+requestID, requestID, now)
	return reserved, nil
}

// Issue hands out quantity units previously reserved for requestID.
// Reserved units already past expiry are not issued; they count as
// insufficient stock until the expiry sweep retires them.
func (l *InventoryLedger) Issue(quantity int, requestID, actor string, now time.Time) ([]BloodUnit, error) {
	if err := validateQuantity("units", quantity); err != nil {
		return nil, err
	}
	if err := validateRequestID(requestID); err != nil {
		return nil, err
	}

	eligible := l.selectFIFO(func(u *BloodUnit) bool {
		return u.Status == UnitReserved && u.ReservedFor == requestID && !u.IsPastExpiry(now)
	})
	if len(eligible) < quantity {
		return nil, &InsufficientStockError{
			BloodGroup: l.BloodGroup,
			RequestID:  requestID,
			Requested:  quantity,
			Available:  len(eligible),
		}
	}

	issued, err := l.apply(eligible[:quantity], UnitIssued, nil)
	if err != nil {
		return nil, err
	}

	l.UnitsReserved -= quantity
	l.record(ActionIssued, quantity, actor, "Issued for request "+requestID, requestID, now)
	return issued, nil
}

// Unreserve releases every unit reserved for requestID back to available.
// It returns the number released; zero is not an error.
func (l *InventoryLedger) Unreserve(requestID, actor string, now time.Time) (int, error) {
	if err := validateRequestID(requestID); err != nil {
		return 0, err
	}

	held := l.selectFIFO(func(u *BloodUnit) bool {
		return u.Status == UnitReserved && u.ReservedFor == requestID
	})
	if len(held) == 0 {
		return 0, nil
	}

	if _, err := l.apply(held, UnitAvailable, nil); err != nil {
		return 0, err
	}

	l.UnitsReserved -= len(held)
	l.UnitsAvailable += len(held)
	l.record(ActionUnreserved, len(held), actor, "Unreserved from request "+requestID, requestID, now)
	return len(held), nil
}

// MarkExpired expires every available or reserved unit whose shelf life has
// ended, decrementing the counter that matches each unit's prior status.
func (l *InventoryLedger) MarkExpired(actor string, now time.Time) int {
	expired := 0
	for i := range l.Units {
		u := &l.Units[i]
		if !u.IsPastExpiry(now) {
			continue
		}
		prior := u.Status
		if err := u.transition(UnitExpired); err != nil {
			continue
		}
		switch prior {
		case UnitAvailable:
			l.UnitsAvailable--
		case UnitReserved:
			l.UnitsReserved--
		}
		l.markChanged(u.UnitID)
		expired++
	}

	if expired > 0 {
		l.record(ActionExpired, expired, actor, ReasonExpiryCheck, "", now)
	}
	return expired
}

// Discard writes off the given units. Units that are unknown, issued or
// already terminal are skipped. It returns the number discarded.
func (l *InventoryLedger) Discard(unitIDs []string, reason, actor string, now time.Time) int {
	if reason == "" {
		reason = ReasonDiscarded
	}

	wanted := make(map[string]struct{}, len(unitIDs))
	for _, id := range unitIDs {
		wanted[id] = struct{}{}
	}

	discarded := 0
	for i := range l.Units {
		u := &l.Units[i]
		if _, ok := wanted[u.UnitID]; !ok {
			continue
		}
		prior := u.Status
		if err := u.transition(UnitDiscarded); err != nil {
			continue
		}
		switch prior {
		case UnitAvailable:
			l.UnitsAvailable--
		case UnitReserved:
			l.UnitsReserved--
		}
		l.markChanged(u.UnitID)
		discarded++
	}

	if discarded > 0 {
		l.record(ActionDiscarded, discarded, actor, reason, "", now)
	}
	return discarded
}

// ExpiringSoon returns available units expiring within the warning window
func (l *InventoryLedger) ExpiringSoon(now time.Time) []BloodUnit {
	return l.filter(func(u *BloodUnit) bool { return u.IsExpiringSoon(now) })
}

// PendingExpiry returns usable units past their expiry date that have not
// been marked expired yet
func (l *InventoryLedger) PendingExpiry(now time.Time) []BloodUnit {
	return l.filter(func(u *BloodUnit) bool {
		return (u.Status == UnitAvailable || u.Status == UnitReserved) && u.IsPastExpiry(now)
	})
}

// CountStatus returns the number of units in status
func (l *InventoryLedger) CountStatus(status UnitStatus) int {
	n := 0
	for i := range l.Units {
		if l.Units[i].Status == status {
			n++
		}
	}
	return n
}

// HasDonation reports whether units from donationID were already added
func (l *InventoryLedger) HasDonation(donationID string) bool {
	for i := range l.Units {
		if l.Units[i].DonationID == donationID {
			return true
		}
	}
	return false
}

// CheckInvariant verifies the cached counters against the unit list
func (l *InventoryLedger) CheckInvariant() error {
	available := l.CountStatus(UnitAvailable)
	reserved := l.CountStatus(UnitReserved)
	if l.UnitsAvailable != available || l.UnitsReserved != reserved {
		return fmt.Errorf("ledger %s counters drifted: available %d/%d, reserved %d/%d",
			l.BloodGroup, l.UnitsAvailable, available, l.UnitsReserved, reserved)
	}
	return nil
}

// ChangedUnits returns the units created or modified since the last commit
func (l *InventoryLedger) ChangedUnits() []BloodUnit {
	if len(l.changed) == 0 {
		return nil
	}
	out := make([]BloodUnit, 0, len(l.changed))
	for i := range l.Units {
		if _, ok := l.changed[l.Units[i].UnitID]; ok {
			out = append(out, l.Units[i])
		}
	}
	return out
}

// NewEvents returns the history entries appended since the last commit
func (l *InventoryLedger) NewEvents() []LedgerEvent {
	return l.newEvents
}

// HasChanges reports whether anything must be persisted
func (l *InventoryLedger) HasChanges() bool {
	return len(l.changed) > 0 || len(l.newEvents) > 0
}

// CommitChanges clears change tracking after a successful save
func (l *InventoryLedger) CommitChanges() {
	l.changed = nil
	l.newEvents = nil
}

// Clone returns a deep copy without change tracking
func (l *InventoryLedger) Clone() *InventoryLedger {
	c := *l
	c.Units = append([]BloodUnit(nil), l.Units...)
	c.History = append([]LedgerEvent(nil), l.History...)
	c.changed = nil
	c.newEvents = nil
	return &c
}

// RecentHistory returns up to limit events, newest first
func (l *InventoryLedger) RecentHistory(limit int) []LedgerEvent {
	n := len(l.History)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]LedgerEvent, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, l.History[i])
	}
	return out
}

// selectFIFO returns the indexes of matching units ordered by ascending expiry
func (l *InventoryLedger) selectFIFO(match func(*BloodUnit) bool) []int {
	idx := make([]int, 0)
	for i := range l.Units {
		if match(&l.Units[i]) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return l.Units[idx[a]].ExpiryDate.Before(l.Units[idx[b]].ExpiryDate)
	})
	return idx
}

// apply transitions the selected units to next. Every transition is checked
// before any unit changes.
func (l *InventoryLedger) apply(idx []int, next UnitStatus, after func(*BloodUnit)) ([]BloodUnit, error) {
	for _, i := range idx {
		u := &l.Units[i]
		if !u.Status.CanTransitionTo(next) {
			return nil, &ConflictError{UnitID: u.UnitID, From: u.Status, To: next}
		}
	}

	out := make([]BloodUnit, 0, len(idx))
	for _, i := range idx {
		u := &l.Units[i]
		_ = u.transition(next)
		if after != nil {
			after(u)
		}
		l.markChanged(u.UnitID)
		out = append(out, *u)
	}
	return out, nil
}

func (l *InventoryLedger) filter(match func(*BloodUnit) bool) []BloodUnit {
	out := make([]BloodUnit, 0)
	for i := range l.Units {
		if match(&l.Units[i]) {
			out = append(out, l.Units[i])
		}
	}
	return out
}

func (l *InventoryLedger) markChanged(unitID string) {
	if l.changed == nil {
		l.changed = make(map[string]struct{})
	}
	l.changed[unitID] = struct{}{}
}

func (l *InventoryLedger) record(action EventAction, units int, actor, reason, relatedID string, now time.Time) {
	if actor == "" {
		actor = SystemActor
	}
	event := LedgerEvent{
		Action:      action,
		Units:       units,
		PerformedBy: actor,
		Reason:      reason,
		RelatedID:   relatedID,
		Timestamp:   now,
	}
	l.History = append(l.History, event)
	l.newEvents = append(l.newEvents, event)
	l.LastUpdated = now
}

func validateQuantity(field string, n int) error {
	if n <= 0 {
		return &ValidationError{Field: field, Message: "must be positive"}
	}
	return nil
}

func validateRequestID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "request_id", Message: "is required"}
	}
	return nil
}
