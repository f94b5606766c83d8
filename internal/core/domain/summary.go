package domain

import (
	"time"
)

// DetailHistoryLimit is the number of history events included in a ledger detail
const DetailHistoryLimit = 20

// LedgerSummary is the reporting view of one blood group
type LedgerSummary struct {
	BloodGroup     BloodGroup `json:"blood_group"`
	Location       string     `json:"location"`
	UnitsAvailable int        `json:"units_available"`
	UnitsReserved  int        `json:"units_reserved"`
	ExpiringSoon   int        `json:"expiring_soon"`
	Expired        int        `json:"expired"`
	LowStock       bool       `json:"low_stock"`
	LastUpdated    time.Time  `json:"last_updated"`
}

// SystemSummary aggregates the summaries of every stored ledger
type SystemSummary struct {
	Ledgers           []LedgerSummary `json:"inventory"`
	TotalAvailable    int             `json:"total_available"`
	TotalReserved     int             `json:"total_reserved"`
	TotalExpiringSoon int             `json:"total_expiring_soon"`
	TotalExpired      int             `json:"total_expired"`
}

// GroupStats holds per-group counts for the stats view
type GroupStats struct {
	Available    int `json:"available"`
	Reserved     int `json:"reserved"`
	ExpiringSoon int `json:"expiring_soon"`
}

// Stats is the status breakdown across all ledgers
type Stats struct {
	TotalAvailable int                       `json:"total_available"`
	TotalReserved  int                       `json:"total_reserved"`
	TotalIssued    int                       `json:"total_issued"`
	TotalExpired   int                       `json:"total_expired"`
	ExpiringSoon   int                       `json:"expiring_soon"`
	ByBloodGroup   map[BloodGroup]GroupStats `json:"by_blood_group"`
}

// LedgerDetail is the full view of one ledger
type LedgerDetail struct {
	Ledger        *InventoryLedger `json:"inventory"`
	ExpiringSoon  []BloodUnit      `json:"expiring_soon"`
	Expired       []BloodUnit      `json:"expired"`
	RecentHistory []LedgerEvent    `json:"recent_history"`
}

// ExpiryResult reports the outcome of an expiry sweep for one group
type ExpiryResult struct {
	BloodGroup   BloodGroup `json:"blood_group"`
	ExpiredCount int        `json:"expired_count"`
}

// ExpiryReport aggregates a sweep over all ledgers
type ExpiryReport struct {
	Results      []ExpiryResult `json:"results"`
	TotalExpired int            `json:"total_expired"`
	CheckedAt    time.Time      `json:"checked_at"`
}

// Summary computes the reporting view for the ledger at now.
// A group is low on stock when fewer than lowStockThreshold units are available.
func (l *InventoryLedger) Summary(now time.Time, lowStockThreshold int) LedgerSummary {
	return LedgerSummary{
		BloodGroup:     l.BloodGroup,
		Location:       l.Location,
		UnitsAvailable: l.UnitsAvailable,
		UnitsReserved:  l.UnitsReserved,
		ExpiringSoon:   len(l.ExpiringSoon(now)),
		Expired:        len(l.PendingExpiry(now)),
		LowStock:       l.UnitsAvailable < lowStockThreshold,
		LastUpdated:    l.LastUpdated,
	}
}

// Detail builds the full view, keeping the newest history entries
func (l *InventoryLedger) Detail(now time.Time) *LedgerDetail {
	// history is served once, newest first, as RecentHistory
	view := *l
	view.History = nil
	return &LedgerDetail{
		Ledger:        &view,
		ExpiringSoon:  l.ExpiringSoon(now),
		Expired:       l.PendingExpiry(now),
		RecentHistory: l.RecentHistory(DetailHistoryLimit),
	}
}

// Summarize aggregates ledgers in blood group display order
func Summarize(ledgers []*InventoryLedger, now time.Time, lowStockThreshold int) SystemSummary {
	summary := SystemSummary{Ledgers: make([]LedgerSummary, 0, len(ledgers))}
	for _, l := range SortLedgers(ledgers) {
		s := l.Summary(now, lowStockThreshold)
		summary.Ledgers = append(summary.Ledgers, s)
		summary.TotalAvailable += s.UnitsAvailable
		summary.TotalReserved += s.UnitsReserved
		summary.TotalExpiringSoon += s.ExpiringSoon
		summary.TotalExpired += s.Expired
	}
	return summary
}

// ComputeStats counts units by status across ledgers
func ComputeStats(ledgers []*InventoryLedger, now time.Time) Stats {
	stats := Stats{ByBloodGroup: make(map[BloodGroup]GroupStats, len(ledgers))}
	for _, l := range ledgers {
		soon := len(l.ExpiringSoon(now))
		stats.TotalAvailable += l.UnitsAvailable
		stats.TotalReserved += l.UnitsReserved
		stats.TotalIssued += l.CountStatus(UnitIssued)
		stats.TotalExpired += l.CountStatus(UnitExpired)
		stats.ExpiringSoon += soon
		stats.ByBloodGroup[l.BloodGroup] = GroupStats{
			Available:    l.UnitsAvailable,
			Reserved:     l.UnitsReserved,
			ExpiringSoon: soon,
		}
	}
	return stats
}

// SortLedgers returns ledgers ordered as AllBloodGroups
func SortLedgers(ledgers []*InventoryLedger) []*InventoryLedger {
	byGroup := make(map[BloodGroup]*InventoryLedger, len(ledgers))
	for _, l := range ledgers {
		byGroup[l.BloodGroup] = l
	}
	out := make([]*InventoryLedger, 0, len(ledgers))
	for _, g := range AllBloodGroups {
		if l, ok := byGroup[g]; ok {
			out = append(out, l)
		}
	}
	return out
}
