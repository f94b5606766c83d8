// internal/adapters/db/ledger_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var (
	ledgerColumns = []string{
		"blood_group", "location", "units_available", "units_reserved",
		"version", "created_at", "last_updated",
	}
	unitColumns = []string{
		"unit_id", "COALESCE(donation_id, '')", "collected_date", "expiry_date",
		"status", "COALESCE(reserved_for, '')", "COALESCE(issued_for, '')",
	}
	eventColumns = []string{
		"action", "units", "performed_by", "COALESCE(reason, '')",
		"COALESCE(related_id, '')", "occurred_at",
	}
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ledgerRepository implements ports.LedgerRepository on PostgreSQL. Update
// serializes writers per blood group with SELECT ... FOR UPDATE on the ledger
// row and guards the write with the version column.
type ledgerRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *Database, logger *slog.Logger) ports.LedgerRepository {
	return &ledgerRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "ledger")),
	}
}

// Get loads one ledger with its units and recent history
func (r *ledgerRepository) Get(ctx context.Context, group domain.BloodGroup) (*domain.InventoryLedger, error) {
	ledger, err := r.loadLedger(ctx, r.db.pool, group, false)
	if err != nil || ledger == nil {
		return nil, err
	}

	if ledger.Units, err = r.loadUnits(ctx, r.db.pool, group); err != nil {
		return nil, err
	}

	recent, err := r.loadHistory(ctx, r.db.pool, group, domain.DetailHistoryLimit, 0)
	if err != nil {
		return nil, err
	}
	ledger.History = chronological(recent)

	return ledger, nil
}

// List loads every ledger with its units but without history
func (r *ledgerRepository) List(ctx context.Context) ([]*domain.InventoryLedger, error) {
	query, args, err := psql.Select(ledgerColumns...).
		From("inventory_ledgers").
		OrderBy("blood_group").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledgers: %w", err)
	}
	ledgers, err := pgx.CollectRows(rows, scanLedger)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledgers: %w", err)
	}

	byGroup := make(map[domain.BloodGroup]*domain.InventoryLedger, len(ledgers))
	for _, l := range ledgers {
		byGroup[l.BloodGroup] = l
	}

	query, args, err = psql.Select(append([]string{"blood_group"}, unitColumns...)...).
		From("blood_units").
		OrderBy("blood_group", "expiry_date", "unit_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	unitRows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer unitRows.Close()

	for unitRows.Next() {
		var (
			group domain.BloodGroup
			u     domain.BloodUnit
		)
		if err := unitRows.Scan(&group, &u.UnitID, &u.DonationID, &u.CollectedDate,
			&u.ExpiryDate, &u.Status, &u.ReservedFor, &u.IssuedFor); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		if l, ok := byGroup[group]; ok {
			l.Units = append(l.Units, u)
		}
	}
	if err := unitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate units: %w", err)
	}

	return domain.SortLedgers(ledgers), nil
}

// History returns events newest first
func (r *ledgerRepository) History(ctx context.Context, group domain.BloodGroup, limit, offset int) ([]domain.LedgerEvent, error) {
	return r.loadHistory(ctx, r.db.pool, group, limit, offset)
}

// Update runs fn against the locked ledger and persists what it changed in
// the same transaction
func (r *ledgerRepository) Update(ctx context.Context, group domain.BloodGroup, create bool,
	fn func(*domain.InventoryLedger) error) (*domain.InventoryLedger, error) {

	var result *domain.InventoryLedger

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		ledger, err := r.lockLedger(ctx, tx, group, create)
		if err != nil {
			return err
		}

		if ledger.Units, err = r.loadUnits(ctx, tx, group); err != nil {
			return err
		}
		recent, err := r.loadHistory(ctx, tx, group, domain.DetailHistoryLimit, 0)
		if err != nil {
			return err
		}
		ledger.History = chronological(recent)

		if err := fn(ledger); err != nil {
			return err
		}
		if !ledger.HasChanges() {
			result = ledger
			return nil
		}

		if err := r.save(ctx, tx, ledger); err != nil {
			return err
		}
		result = ledger
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// lockLedger selects the ledger row FOR UPDATE, inserting it first when
// create is set
func (r *ledgerRepository) lockLedger(ctx context.Context, tx pgx.Tx, group domain.BloodGroup, create bool) (*domain.InventoryLedger, error) {
	ledger, err := r.loadLedger(ctx, tx, group, true)
	if err != nil {
		return nil, err
	}
	if ledger != nil {
		return ledger, nil
	}
	if !create {
		return nil, &domain.NotFoundError{Resource: "inventory ledger", ID: string(group)}
	}

	query, args, err := psql.Insert("inventory_ledgers").
		Columns("blood_group", "location").
		Values(string(group), domain.DefaultLocation).
		Suffix("ON CONFLICT (blood_group) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to create ledger %s: %w", group, err)
	}

	ledger, err = r.loadLedger(ctx, tx, group, true)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger %s missing after insert", group)
	}

	r.logger.InfoContext(ctx, "ledger created", slog.String("blood_group", string(group)))
	return ledger, nil
}

// save writes changed units, new events and the ledger counters as one batch
func (r *ledgerRepository) save(ctx context.Context, tx pgx.Tx, l *domain.InventoryLedger) error {
	batch := &pgx.Batch{}

	for _, u := range l.ChangedUnits() {
		query, args, err := upsertUnit(l.BloodGroup, u)
		if err != nil {
			return err
		}
		batch.Queue(query, args...)
	}

	for _, e := range l.NewEvents() {
		query, args, err := insertEvent(l.BloodGroup, e)
		if err != nil {
			return err
		}
		batch.Queue(query, args...)
	}

	query, args, err := updateLedger(l)
	if err != nil {
		return err
	}
	var conflict bool
	batch.Queue(query, args...).Exec(func(ct pgconn.CommandTag) error {
		conflict = ct.RowsAffected() != 1
		return nil
	})

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save ledger %s: %w", l.BloodGroup, err)
	}
	if conflict {
		return &domain.ConflictError{Reason: fmt.Sprintf("ledger %s was modified concurrently", l.BloodGroup)}
	}

	l.Version++

	r.logger.DebugContext(ctx, "ledger saved",
		slog.String("blood_group", string(l.BloodGroup)),
		slog.Int64("version", l.Version),
		slog.Int("changed_units", len(l.ChangedUnits())),
		slog.Int("new_events", len(l.NewEvents())))

	return nil
}

func (r *ledgerRepository) loadLedger(ctx context.Context, q querier, group domain.BloodGroup, forUpdate bool) (*domain.InventoryLedger, error) {
	qb := psql.Select(ledgerColumns...).
		From("inventory_ledgers").
		Where(squirrel.Eq{"blood_group": string(group)})
	if forUpdate {
		qb = qb.Suffix("FOR UPDATE")
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger %s: %w", group, err)
	}
	ledger, err := pgx.CollectExactlyOneRow(rows, scanLedger)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger %s: %w", group, err)
	}
	return ledger, nil
}

func (r *ledgerRepository) loadUnits(ctx context.Context, q querier, group domain.BloodGroup) ([]domain.BloodUnit, error) {
	query, args, err := psql.Select(unitColumns...).
		From("blood_units").
		Where(squirrel.Eq{"blood_group": string(group)}).
		OrderBy("expiry_date", "unit_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load units for %s: %w", group, err)
	}
	units, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BloodUnit, error) {
		var u domain.BloodUnit
		err := row.Scan(&u.UnitID, &u.DonationID, &u.CollectedDate, &u.ExpiryDate,
			&u.Status, &u.ReservedFor, &u.IssuedFor)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan units for %s: %w", group, err)
	}
	return units, nil
}

func (r *ledgerRepository) loadHistory(ctx context.Context, q querier, group domain.BloodGroup, limit, offset int) ([]domain.LedgerEvent, error) {
	qb := psql.Select(eventColumns...).
		From("ledger_events").
		Where(squirrel.Eq{"blood_group": string(group)}).
		OrderBy("id DESC")
	if limit > 0 {
		qb = qb.Limit(uint64(limit))
	}
	if offset > 0 {
		qb = qb.Offset(uint64(offset))
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", group, err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LedgerEvent, error) {
		var e domain.LedgerEvent
		err := row.Scan(&e.Action, &e.Units, &e.PerformedBy, &e.Reason, &e.RelatedID, &e.Timestamp)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan history for %s: %w", group, err)
	}
	return events, nil
}

func scanLedger(row pgx.CollectableRow) (*domain.InventoryLedger, error) {
	l := &domain.InventoryLedger{Units: []domain.BloodUnit{}}
	err := row.Scan(&l.BloodGroup, &l.Location, &l.UnitsAvailable, &l.UnitsReserved,
		&l.Version, &l.CreatedAt, &l.LastUpdated)
	return l, err
}

func upsertUnit(group domain.BloodGroup, u domain.BloodUnit) (string, []any, error) {
	query, args, err := psql.Insert("blood_units").
		Columns("unit_id", "blood_group", "donation_id", "collected_date", "expiry_date",
			"status", "reserved_for", "issued_for", "updated_at").
		Values(u.UnitID, string(group), nullable(u.DonationID), u.CollectedDate, u.ExpiryDate,
			string(u.Status), nullable(u.ReservedFor), nullable(u.IssuedFor), squirrel.Expr("NOW()")).
		Suffix(`ON CONFLICT (unit_id) DO UPDATE SET
			status = EXCLUDED.status,
			reserved_for = EXCLUDED.reserved_for,
			issued_for = EXCLUDED.issued_for,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build unit upsert: %w", err)
	}
	return query, args, nil
}

func insertEvent(group domain.BloodGroup, e domain.LedgerEvent) (string, []any, error) {
	query, args, err := psql.Insert("ledger_events").
		Columns("blood_group", "action", "units", "performed_by", "reason", "related_id", "occurred_at").
		Values(string(group), string(e.Action), e.Units, e.PerformedBy,
			nullable(e.Reason), nullable(e.RelatedID), e.Timestamp).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build event insert: %w", err)
	}
	return query, args, nil
}

func updateLedger(l *domain.InventoryLedger) (string, []any, error) {
	query, args, err := psql.Update("inventory_ledgers").
		Set("units_available", l.UnitsAvailable).
		Set("units_reserved", l.UnitsReserved).
		Set("location", l.Location).
		Set("last_updated", l.LastUpdated).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"blood_group": string(l.BloodGroup), "version": l.Version}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build ledger update: %w", err)
	}
	return query, args, nil
}

// chronological reverses a newest-first slice in place
func chronological(events []domain.LedgerEvent) []domain.LedgerEvent {
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
