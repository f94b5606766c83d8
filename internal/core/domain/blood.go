// internal/core/domain/blood.go
package domain

import (
	"strings"
	"time"
)

// BloodGroup represents one of the eight ABO/Rh blood groups
type BloodGroup string

// Blood group constants
const (
	GroupAPos  BloodGroup = "A+"
	GroupANeg  BloodGroup = "A-"
	GroupBPos  BloodGroup = "B+"
	GroupBNeg  BloodGroup = "B-"
	GroupABPos BloodGroup = "AB+"
	GroupABNeg BloodGroup = "AB-"
	GroupOPos  BloodGroup = "O+"
	GroupONeg  BloodGroup = "O-"
)

// AllBloodGroups lists every blood group in display order
var AllBloodGroups = []BloodGroup{
	GroupAPos, GroupANeg,
	GroupBPos, GroupBNeg,
	GroupABPos, GroupABNeg,
	GroupOPos, GroupONeg,
}

const (
	// ShelfLifeDays is the number of days a collected unit stays usable
	ShelfLifeDays = 35
	// ExpiringSoonWindow marks available units close to expiry
	ExpiringSoonWindow = 7 * 24 * time.Hour
	// DefaultLocation is used when a ledger is created without a location
	DefaultLocation = "Main Blood Bank"
	// SystemActor is recorded when no caller identity is supplied
	SystemActor = "system"
	// MaxUnitsPerDonation is the most units a single donation normally yields
	MaxUnitsPerDonation = 2
)

// Valid reports whether g is one of the known blood groups
func (g BloodGroup) Valid() bool {
	for _, known := range AllBloodGroups {
		if g == known {
			return true
		}
	}
	return false
}

func (g BloodGroup) String() string {
	return string(g)
}

// ParseBloodGroup normalizes and validates a blood group string.
// A space in place of "+" is accepted since query strings decode "+" to a space.
func ParseBloodGroup(s string) (BloodGroup, error) {
	s = strings.ToUpper(strings.TrimLeft(s, " "))
	trimmed := strings.TrimRight(s, " ")
	if trimmed != s && trimmed != "" && !strings.HasSuffix(trimmed, "+") && !strings.HasSuffix(trimmed, "-") {
		trimmed += "+"
	}
	s = trimmed

	g := BloodGroup(s)
	if !g.Valid() {
		return "", &ValidationError{Field: "blood_group", Message: "must be one of A+, A-, B+, B-, AB+, AB-, O+, O-"}
	}
	return g, nil
}

// ExpiryFor returns the expiry date of a unit collected at the given time
func ExpiryFor(collected time.Time) time.Time {
	return collected.AddDate(0, 0, ShelfLifeDays)
}
