// internal/adapters/storage/archiver.go
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
)

// HistorySnapshot is the archived document for one ledger
type HistorySnapshot struct {
	BloodGroup domain.BloodGroup    `json:"blood_group"`
	ArchivedAt time.Time            `json:"archived_at"`
	EventCount int                  `json:"event_count"`
	Events     []domain.LedgerEvent `json:"events"`
}

// HistoryArchiver writes ledger history snapshots to an ObjectStore
type HistoryArchiver struct {
	store  ObjectStore
	prefix string
	nowFn  func() time.Time
	logger *slog.Logger
}

// Statically assert that *HistoryArchiver implements the HistoryArchiver interface.
var _ ports.HistoryArchiver = (*HistoryArchiver)(nil)

// NewHistoryArchiver creates an archiver writing under prefix
func NewHistoryArchiver(store ObjectStore, prefix string, logger *slog.Logger) *HistoryArchiver {
	return &HistoryArchiver{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		nowFn:  func() time.Time { return time.Now().UTC() },
		logger: logger.With(slog.String("component", "history_archiver")),
	}
}

// ArchiveHistory uploads events as one JSON snapshot and returns its key.
// Snapshots are keyed by their newest event, so a ledger with no new history
// since the last run (or a retried task) keeps the existing object.
func (a *HistoryArchiver) ArchiveHistory(ctx context.Context, group domain.BloodGroup, events []domain.LedgerEvent) (string, error) {
	key := a.Key(group, newestEvent(events))

	exists, err := a.store.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to check snapshot %s: %w", key, err)
	}
	if exists {
		a.logger.DebugContext(ctx, "history snapshot already stored", slog.String("key", key))
		return key, nil
	}

	snapshot := HistorySnapshot{
		BloodGroup: group,
		ArchivedAt: a.nowFn(),
		EventCount: len(events),
		Events:     events,
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to marshal history snapshot: %w", err)
	}

	if _, err := a.store.Upload(ctx, key, bytes.NewReader(body), "application/json", map[string]string{
		"blood-group": string(group),
		"event-count": fmt.Sprint(len(events)),
	}); err != nil {
		return "", err
	}

	a.logger.DebugContext(ctx, "history snapshot stored",
		slog.String("key", key),
		slog.Int("bytes", len(body)))
	return key, nil
}

// Key returns the object key of a snapshot whose newest event is at t
func (a *HistoryArchiver) Key(group domain.BloodGroup, t time.Time) string {
	t = t.UTC()
	code := strings.NewReplacer("+", "pos", "-", "neg").Replace(strings.ToLower(string(group)))
	name := fmt.Sprintf("%s/%s/history-%s.json", code, t.Format("2006/01/02"), t.Format("20060102T150405.000Z"))
	if a.prefix == "" {
		return name
	}
	return a.prefix + "/" + name
}

func newestEvent(events []domain.LedgerEvent) time.Time {
	var newest time.Time
	for _, e := range events {
		if e.Timestamp.After(newest) {
			newest = e.Timestamp
		}
	}
	return newest
}
