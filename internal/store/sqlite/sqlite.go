// Package sqlite is the SQLite-backed store driver for single-node and local
// development deployments. Schema is embedded and applied on open.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/euangelion/plan-service/internal/model"
	"github.com/euangelion/plan-service/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Open opens (or creates) a SQLite database at path, enables WAL journal
// mode, and applies the embedded schema.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenInMemory opens a private in-memory database with the schema applied.
func OpenInMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file::memory:?cache=shared&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, err
	}
	// Shared-cache in-memory databases vanish when the last conn closes.
	db.SetMaxOpenConns(1)
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func applySchema(db *sql.DB) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// NewWithDB constructs a SQLite store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &liteStore{db: db} }

type liteStore struct{ db *sql.DB }

func (s *liteStore) Plans() store.Plans     { return &plans{db: s.db} }
func (s *liteStore) Ledgers() store.Ledgers { return &ledgers{db: s.db} }
func (s *liteStore) Days() store.Days       { return &days{db: s.db} }
func (s *liteStore) Runs() store.Runs       { return &runs{db: s.db} }

// HealthPing implements health.HealthPinger for the SQLite-backed store.
func (s *liteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// --- Plans ---

type plans struct{ db *sql.DB }

func (p *plans) Create(ctx context.Context, in *model.PlanInstance) (*model.PlanInstance, error) {
	out := *in
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `
        INSERT INTO plans (plan_token, owner_session_key, audit_run_id, series_key, plan_type, title, start_policy, onboarding_variant, time_zone, created_at)
        VALUES (?,?,?,?,?,?,?,?,?,?)
    `, out.Token, out.OwnerSessionKey, out.AuditRunID, out.SeriesKey, string(out.PlanType), out.Title, out.StartPolicy, out.OnboardingVariant, out.Timezone, out.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func scanPlan(row interface{ Scan(...any) error }) (*model.PlanInstance, error) {
	var out model.PlanInstance
	var planType, created string
	err := row.Scan(&out.Token, &out.OwnerSessionKey, &out.AuditRunID, &out.SeriesKey, &planType, &out.Title, &out.StartPolicy, &out.OnboardingVariant, &out.Timezone, &created)
	if err != nil {
		return nil, err
	}
	out.PlanType = model.PlanType(planType)
	if ts, perr := time.Parse(time.RFC3339Nano, created); perr == nil {
		out.CreatedAt = ts
	}
	return &out, nil
}

const planColumns = `plan_token, owner_session_key, audit_run_id, series_key, plan_type, title, start_policy, onboarding_variant, time_zone, created_at`

func (p *plans) Get(ctx context.Context, token string) (*model.PlanInstance, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE plan_token=?`, token)
	out, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return out, err
}

func (p *plans) ListByOwner(ctx context.Context, owner string) ([]*model.PlanInstance, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+planColumns+` FROM plans WHERE owner_session_key=? ORDER BY created_at`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PlanInstance
	for rows.Next() {
		pi, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pi)
	}
	return out, rows.Err()
}

// --- Ledgers ---

type ledgers struct{ db *sql.DB }

func (l *ledgers) Get(ctx context.Context, owner string) (*model.SlotLedger, error) {
	var doc string
	row := l.db.QueryRowContext(ctx, `SELECT ledger FROM slot_ledgers WHERE owner_session_key=?`, owner)
	err := row.Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var out model.SlotLedger
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
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
        VALUES (?,?,?)
        ON CONFLICT (owner_session_key) DO UPDATE SET ledger=excluded.ledger, updated_at=excluded.updated_at
    `, owner, string(doc), nowRFC3339())
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
        VALUES (?,?,?,?,?)
        ON CONFLICT (plan_token, day_number) DO UPDATE SET status=excluded.status, content=excluded.content, updated_at=excluded.updated_at
    `, token, in.Day, string(in.Status), string(doc), nowRFC3339())
	return err
}

func (d *days) Get(ctx context.Context, token string, day int) (*model.PlanDay, error) {
	var doc string
	row := d.db.QueryRowContext(ctx, `SELECT content FROM plan_days WHERE plan_token=? AND day_number=?`, token, day)
	err := row.Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var out model.PlanDay
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *days) List(ctx context.Context, token string) ([]*model.PlanDay, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT content FROM plan_days WHERE plan_token=? ORDER BY day_number`, token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PlanDay
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var pd model.PlanDay
		if err := json.Unmarshal([]byte(doc), &pd); err != nil {
			return nil, err
		}
		out = append(out, &pd)
	}
	return out, rows.Err()
}

func (d *days) IsDayPending(ctx context.Context, token string, day int) (bool, error) {
	var status string
	row := d.db.QueryRowContext(ctx, `SELECT status FROM plan_days WHERE plan_token=? AND day_number=?`, token, day)
	err := row.Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		// No day row: never generated, or the store lags plan creation.
		// Both fail open.
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
        VALUES (?,?,?)
        ON CONFLICT (audit_run_id) DO UPDATE SET context=excluded.context, updated_at=excluded.updated_at
    `, rc.AuditRunID, string(doc), nowRFC3339())
	return err
}

func (r *runs) Get(ctx context.Context, runID string) (*model.RunContext, error) {
	var doc string
	row := r.db.QueryRowContext(ctx, `SELECT context FROM audit_runs WHERE audit_run_id=?`, runID)
	err := row.Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var out model.RunContext
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
