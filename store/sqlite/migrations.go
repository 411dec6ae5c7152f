package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the inbox store (SQLite).
var Migrations = migrate.NewGroup("inbox")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_inbox_registrations",
			Version: "20250601000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS inbox_registrations (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL DEFAULT '',
    source           TEXT NOT NULL DEFAULT '',
    description      TEXT NOT NULL DEFAULT '',
    secret           TEXT NOT NULL DEFAULT '',
    events_filter    TEXT NOT NULL DEFAULT '[]',
    status           TEXT NOT NULL DEFAULT 'active',
    delivery_count   INTEGER NOT NULL DEFAULT 0,
    last_delivery_at TEXT,
    created_at       TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at       TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_inbox_registrations_status ON inbox_registrations (status);
CREATE INDEX IF NOT EXISTS idx_inbox_registrations_created ON inbox_registrations (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS inbox_registrations`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_inbox_events",
			Version: "20250601000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS inbox_events (
    id          TEXT PRIMARY KEY,
    webhook_id  TEXT NOT NULL DEFAULT '',
    source      TEXT NOT NULL DEFAULT '',
    event_type  TEXT NOT NULL DEFAULT '',
    payload     TEXT,
    timestamp   TEXT NOT NULL DEFAULT (datetime('now')),
    signature   TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'pending',
    injected_at TEXT,
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_inbox_events_webhook ON inbox_events (webhook_id, created_at);
CREATE INDEX IF NOT EXISTS idx_inbox_events_pending ON inbox_events (webhook_id, created_at) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS idx_inbox_events_timestamp ON inbox_events (webhook_id, timestamp);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS inbox_events`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_inbox_deliveries",
			Version: "20250601000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				// Append-only audit records: received_at is the record time,
				// so no separate created_at/updated_at bookkeeping.
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS inbox_deliveries (
    id          TEXT PRIMARY KEY,
    webhook_id  TEXT NOT NULL DEFAULT '',
    event_id    TEXT NOT NULL DEFAULT '',
    received_at TEXT NOT NULL DEFAULT (datetime('now')),
    status      TEXT NOT NULL DEFAULT 'accepted',
    error       TEXT NOT NULL DEFAULT '',
    http_status INTEGER NOT NULL DEFAULT 0,
    remote_ip   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_inbox_deliveries_webhook ON inbox_deliveries (webhook_id, received_at);
CREATE INDEX IF NOT EXISTS idx_inbox_deliveries_event ON inbox_deliveries (event_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS inbox_deliveries`)
				return err
			},
		},
	)
}
