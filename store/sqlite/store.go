// Package sqlite implements the inbox Store on SQLite via the grove ORM.
// The derived indices the fs driver keeps as files are computed from
// queries here instead of being persisted, so they can never drift.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/inbox"
	"github.com/xraph/inbox/delivery"
	"github.com/xraph/inbox/event"
	"github.com/xraph/inbox/id"
	"github.com/xraph/inbox/registration"
	inboxstore "github.com/xraph/inbox/store"
)

// compile-time interface check
var _ inboxstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via the grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by the grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove
// orchestrator. Failures wrap [inbox.ErrMigrationFailed].
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("%w: create executor: %v", inbox.ErrMigrationFailed, err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %v", inbox.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Registration Store ====================

// SaveRegistration upserts so that create, update, and the delivery-count
// bump on the receive path all go through the same call.
func (s *Store) SaveRegistration(ctx context.Context, reg *registration.Registration) error {
	m := toRegistrationModel(reg)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("source = EXCLUDED.source").
		Set("description = EXCLUDED.description").
		Set("secret = EXCLUDED.secret").
		Set("events_filter = EXCLUDED.events_filter").
		Set("status = EXCLUDED.status").
		Set("delivery_count = EXCLUDED.delivery_count").
		Set("last_delivery_at = EXCLUDED.last_delivery_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) LoadRegistration(ctx context.Context, regID id.ID) (*registration.Registration, error) {
	m := new(registrationModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", regID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, inbox.ErrRegistrationNotFound
		}
		return nil, err
	}
	return fromRegistrationModel(m)
}

// DeleteRegistration removes the registration row, then sweeps the
// webhook's events and deliveries. The sweep is best effort: once the
// registration row is gone the deletion has happened.
func (s *Store) DeleteRegistration(ctx context.Context, regID id.ID) error {
	res, err := s.sdb.NewDelete((*registrationModel)(nil)).
		Where("id = ?", regID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return inbox.ErrRegistrationNotFound
	}

	_, _ = s.sdb.NewDelete((*eventModel)(nil)).
		Where("webhook_id = ?", regID.String()).
		Exec(ctx) //nolint:errcheck // best-effort cascade
	_, _ = s.sdb.NewDelete((*deliveryModel)(nil)).
		Where("webhook_id = ?", regID.String()).
		Exec(ctx) //nolint:errcheck // best-effort cascade
	return nil
}

func (s *Store) ListRegistrations(ctx context.Context, opts registration.ListOpts) ([]*registration.Registration, error) {
	var models []registrationModel
	q := s.sdb.NewSelect(&models)

	if opts.Status != nil {
		q = q.Where("status = ?", string(*opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*registration.Registration, len(models))
	for i := range models {
		reg, err := fromRegistrationModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = reg
	}
	return result, nil
}

// GlobalIndex derives the index from the registration rows.
func (s *Store) GlobalIndex(ctx context.Context) (*registration.Index, error) {
	regs, err := s.ListRegistrations(ctx, registration.ListOpts{})
	if err != nil {
		return nil, err
	}

	ix := &registration.Index{Webhooks: make([]registration.Summary, len(regs))}
	for i, reg := range regs {
		ix.Webhooks[i] = reg.Summarize()
		if reg.UpdatedAt.After(ix.LastUpdated) {
			ix.LastUpdated = reg.UpdatedAt
		}
	}
	return ix, nil
}

// ==================== Event Store ====================

func (s *Store) SaveEvent(ctx context.Context, evt *event.Event) error {
	m := toEventModel(evt)
	m.CreatedAt = now()
	m.UpdatedAt = m.CreatedAt
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) LoadEvent(ctx context.Context, webhookID, eventID id.ID) (*event.Event, error) {
	m := new(eventModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", eventID.String()).
		Where("webhook_id = ?", webhookID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, inbox.ErrEventNotFound
		}
		return nil, err
	}
	return fromEventModel(m)
}

func (s *Store) UpdateEventStatus(ctx context.Context, webhookID, eventID id.ID, status event.Status, injectedAt *time.Time) error {
	q := s.sdb.NewUpdate((*eventModel)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", now())
	if injectedAt != nil {
		q = q.Set("injected_at = ?", *injectedAt)
	}

	res, err := q.
		Where("id = ?", eventID.String()).
		Where("webhook_id = ?", webhookID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return inbox.ErrEventNotFound
	}
	return nil
}

// ListEvents returns events in reception order, most recent first. The
// sender-supplied timestamp does not affect the order; created_at is the
// insertion marker.
func (s *Store) ListEvents(ctx context.Context, webhookID id.ID, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel
	q := s.sdb.NewSelect(&models).Where("webhook_id = ?", webhookID.String())

	if opts.PendingOnly {
		q = q.Where("status = ?", string(event.StatusPending))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*event.Event, len(models))
	for i := range models {
		evt, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = evt
	}
	return result, nil
}

// EventIndex derives the per-webhook index from the event rows.
func (s *Store) EventIndex(ctx context.Context, webhookID id.ID) (*event.Index, error) {
	var models []eventModel
	if err := s.sdb.NewSelect(&models).
		Where("webhook_id = ?", webhookID.String()).
		OrderExpr("created_at DESC").
		Scan(ctx); err != nil {
		return nil, err
	}

	ix := &event.Index{Events: make([]event.Summary, len(models))}
	for i := range models {
		evt, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		ix.Events[i] = evt.Summarize()
		if models[i].UpdatedAt.After(ix.LastUpdated) {
			ix.LastUpdated = models[i].UpdatedAt
		}
	}

	ix.TotalEvents = len(ix.Events)
	for i := range ix.Events {
		if ix.Events[i].Status == event.StatusPending {
			ix.PendingCount++
		}
	}
	return ix, nil
}

func (s *Store) CleanupEvents(ctx context.Context, webhookID id.ID, maxAgeDays int) (int, error) {
	cutoff := now().AddDate(0, 0, -maxAgeDays)
	res, err := s.sdb.NewDelete((*eventModel)(nil)).
		Where("webhook_id = ?", webhookID.String()).
		Where("timestamp < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

// EnforceMaxEvents evicts by sender timestamp, oldest first, ties broken
// by insertion order.
func (s *Store) EnforceMaxEvents(ctx context.Context, webhookID id.ID, max int) (int, error) {
	count, err := s.sdb.NewSelect((*eventModel)(nil)).
		Where("webhook_id = ?", webhookID.String()).
		Count(ctx)
	if err != nil {
		return 0, err
	}
	overflow := int(count) - max
	if overflow <= 0 {
		return 0, nil
	}

	var evicted []eventModel
	err = s.sdb.NewRaw(`
		DELETE FROM inbox_events
		WHERE id IN (
			SELECT id FROM inbox_events
			WHERE webhook_id = ?
			ORDER BY timestamp ASC, created_at ASC
			LIMIT ?
		)
		RETURNING *
	`, webhookID.String(), overflow).Scan(ctx, &evicted)
	if err != nil {
		return 0, err
	}
	return len(evicted), nil
}

// ==================== Delivery Store ====================

func (s *Store) SaveDelivery(ctx context.Context, d *delivery.Delivery) error {
	m := toDeliveryModel(d)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) ListDeliveries(ctx context.Context, webhookID id.ID, limit int) ([]*delivery.Delivery, error) {
	var models []deliveryModel
	q := s.sdb.NewSelect(&models).
		Where("webhook_id = ?", webhookID.String()).
		OrderExpr("received_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*delivery.Delivery, len(models))
	for i := range models {
		d, err := fromDeliveryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = d
	}
	return result, nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
