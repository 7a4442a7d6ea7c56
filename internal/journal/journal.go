// Package journal records executed device actions in PostgreSQL for usage
// history and later analysis. Writes are best-effort: a journal failure is
// logged and never fails the action that triggered it.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRecord is one executed device action.
type UsageRecord struct {
	Timestamp    time.Time
	Subspace     string
	SubspaceUUID string
	DeviceName   string
	DeviceUUID   string
	Code         string
	Value        any
}

// Recorder persists usage records.
type Recorder interface {
	RecordUsage(ctx context.Context, rec UsageRecord)
	Close()
}

// Postgres is a Recorder backed by a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ Recorder = (*Postgres)(nil)

const schema = `
	CREATE TABLE IF NOT EXISTS device_usage (
	    id            BIGSERIAL PRIMARY KEY,
	    timestamp     TIMESTAMPTZ NOT NULL,
	    subspace      TEXT NOT NULL DEFAULT '',
	    subspace_uuid TEXT NOT NULL DEFAULT '',
	    device_name   TEXT NOT NULL DEFAULT '',
	    device_uuid   TEXT NOT NULL,
	    code          TEXT NOT NULL,
	    value         TEXT
	)`

// NewPostgres connects to PostgreSQL and ensures the usage table exists.
func NewPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("journal: ensure schema: %w", err)
	}
	return &Postgres{pool: pool, logger: logger.With("component", "journal")}, nil
}

// RecordUsage implements Recorder.
func (p *Postgres) RecordUsage(ctx context.Context, rec UsageRecord) {
	const q = `
		INSERT INTO device_usage (timestamp, subspace, subspace_uuid, device_name, device_uuid, code, value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := p.pool.Exec(ctx, q,
		rec.Timestamp,
		rec.Subspace,
		rec.SubspaceUUID,
		rec.DeviceName,
		rec.DeviceUUID,
		rec.Code,
		fmt.Sprint(rec.Value),
	)
	if err != nil {
		p.logger.Warn("usage record dropped", "device", rec.DeviceUUID, "error", err)
	}
}

// Close implements Recorder.
func (p *Postgres) Close() { p.pool.Close() }

// Nop is a Recorder that discards everything, used when no journal DSN is
// configured.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) RecordUsage(context.Context, UsageRecord) {}
func (Nop) Close()                                   {}
