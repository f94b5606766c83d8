package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for matching with errors.Is
var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
)

// ValidationError reports bad caller input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InsufficientStockError is returned when a reserve or issue cannot be fully satisfied
type InsufficientStockError struct {
	BloodGroup BloodGroup
	RequestID  string
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient %s stock for request %s: requested %d, eligible %d",
		e.BloodGroup, e.RequestID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NotFoundError reports a missing resource
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError reports an illegal unit state transition or a lost concurrent update
type ConflictError struct {
	UnitID string
	From   UnitStatus
	To     UnitStatus
	Reason string
}

func (e *ConflictError) Error() string {
	if e.Reason != "" {
		return "conflict: " + e.Reason
	}
	return fmt.Sprintf("unit %s cannot move from %s to %s", e.UnitID, e.From, e.To)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// IsDomainError reports whether err originates from ledger rules rather than infrastructure
func IsDomainError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict)
}
