// Package postgres is the Postgres-backed store driver. Plan days, ledgers,
// and run contexts are stored as JSONB documents keyed by their natural ids;
// day status is mirrored into a column so pending checks stay index-only.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/euangelion/plan-service/internal/model"
	"github.com/euangelion/plan-service/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Plans() store.Plans     { return &plans{db: s.db} }
func (s *pgStore) Ledgers() store.Ledgers { return &ledgers{db: s.db} }
func (s *pgStore) Days() store.Days       { return &days{db: s.db} }
func (s *pgStore) Runs() store.Runs       { return &runs{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap performs a connectivity check to ensure Postgres is reachable.
// Ping-only: migrations own the schema.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return db.PingContext(ctx)
}

// --- Plans ---

type plans struct{ db *sql.DB }

func (p *plans) Create(ctx context.Context, in *model.PlanInstance) (*model.PlanInstance, error) {
	var created time.Time
	row := p.db.QueryRowContext(ctx, `
        INSERT INTO plans (plan_token, owner_session_key, audit_run_id, series_key, plan_type, title, start_policy, onboarding_variant, time_zone)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at
    `, in.Token, in.OwnerSessionKey, in.AuditRunID, in.SeriesKey, string(in.PlanType), in.Title, in.StartPolicy, in.OnboardingVariant, in.Timezone)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *in
	out.CreatedAt = created
	return &out, nil
}

func (p *plans) Get(ctx context.Context, token string) (*model.PlanInstance, error) {
	var out model.PlanInstance
	var planType string
	row := p.db.QueryRowContext(ctx, `
        SELECT plan_token, owner_session_key, audit_run_id, series_key, plan_type, title, start_policy, onboarding_variant, time_zone, created_at
        FROM plans WHERE plan_token=$1
    `, token)
	err := row.Scan(&out.Token, &out.OwnerSessionKey, &out.AuditRunID, &out.SeriesKey, &planType, &out.Title, &out.StartPolicy, &out.OnboardingVariant, &out.Timezone, &out.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out.PlanType = model.PlanType(planType)
	return &out, nil
}

func (p *plans) ListByOwner(ctx context.Context, owner string) ([]*model.PlanInstance, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT plan_token, owner_session_key, audit_run_id, series_key, plan_type, title, start_policy, onboarding_variant, time_zone, created_at
        FROM plans WHERE owner_session_key=$1 ORDER BY created_at
    `, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PlanInstance
	for rows.Next() {
		var pi model.PlanInstance
		var planType string
		if err := rows.Scan(&pi.Token, &pi.OwnerSessionKey, &pi.AuditRunID, &pi.SeriesKey, &planType, &pi.Title, &pi.StartPolicy, &pi.OnboardingVariant, &pi.Timezone, &pi.CreatedAt); err != nil {
			return nil, err
		}
		pi.PlanType = model.PlanType(planType)
		out = append(out, &pi)
	}
	return out, rows.Err()
}

// --- Ledgers ---

type ledgers struct{ db *sql.DB }

func (l *ledgers) Get(ctx context.Context, owner string) (*model.SlotLedger, error) {
	var doc []byte
	row := l.db.QueryRowContext(ctx, `SELECT ledger FROM slot_ledgers WHERE owner_session_key=$1`, owner)
	err := row.Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var out model.SlotLedger
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (l *ledgers) Put(ctx context.Context, owner string, in *model.SlotLedger) error {
	doc, err := json.Marshal(in)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx, `
        INSERT INTO slot_ledgers (owner_session_key, ledger, updated_at)
        VALUES ($1,$2,now())
        ON CONFLICT (owner_session_key) DO UPDATE SET ledger=EXCLUDED.ledger, updated_at=now()
    `, owner, doc)
	return err
}

// --- Days ---

type days struct{ db *sql.DB }

func (d *days) Put(ctx context.Context, token string, in *model.PlanDay) error {
	doc, err := json.Marshal(in)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx, `
        INSERT INTO plan_days (plan_token, day_number, status, content, updated_at)
        VALUES ($1,$2,$3,$4,now())
        ON CONFLICT (plan_token, day_number) DO UPDATE SET status=EXCLUDED.status, content=EXCLUDED.content, updated_at=now()
    `, token, in.Day, string(in.Status), doc)
	return err
}

func (d *days) Get(ctx context.Context, token string, day int) (*model.PlanDay, error) {
	var doc []byte
	row := d.db.QueryRowContext(ctx, `SELECT content FROM plan_days WHERE plan_token=$1 AND day_number=$2`, token, day)
	err := row.Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var out model.PlanDay
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *days) List(ctx context.Context, token string) ([]*model.PlanDay, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT content FROM plan_days WHERE plan_token=$1 ORDER BY day_number`, token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PlanDay
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var pd model.PlanDay
		if err := json.Unmarshal(doc, &pd); err != nil {
			return nil, err
		}
		out = append(out, &pd)
	}
	return out, rows.Err()
}

func (d *days) IsDayPending(ctx context.Context, token string, day int) (bool, error) {
	var status string
	row := d.db.QueryRowContext(ctx, `SELECT status FROM plan_days WHERE plan_token=$1 AND day_number=$2`, token, day)
	err := row.Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		// No day row: either the day was never generated or the store is
		// lagging behind plan creation. Both fail open.
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return status != string(model.DayReady), nil
}

// --- Runs ---

type runs struct{ db *sql.DB }

func (r *runs) Put(ctx context.Context, rc *model.RunContext) error {
	doc, err := json.Marshal(rc)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO audit_runs (audit_run_id, context, updated_at)
        VALUES ($1,$2,now())
        ON CONFLICT (audit_run_id) DO UPDATE SET context=EXCLUDED.context, updated_at=now()
    `, rc.AuditRunID, doc)
	return err
}

func (r *runs) Get(ctx context.Context, runID string) (*model.RunContext, error) {
	var doc []byte
	row := r.db.QueryRowContext(ctx, `SELECT context FROM audit_runs WHERE audit_run_id=$1`, runID)
	err := row.Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var out model.RunContext
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
