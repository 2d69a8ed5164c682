package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"vrpbench/internal/model"
)

// Postgres persists instances and benchmark results as jsonb payloads.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a pool against dsn and ensures the schema exists.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	p := &Postgres{db: db}
	if err := p.migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vrp_instances (
			name TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS vrp_results (
			id UUID PRIMARY KEY,
			instance_name TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS vrp_results_instance_idx ON vrp_results (instance_name, created_at DESC)`,
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) SaveInstance(ctx context.Context, inst *model.VRPInstance) error {
	payload, err := json.Marshal(inst)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO vrp_instances (name, payload) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload`,
		inst.Name, payload)
	return err
}

func (p *Postgres) GetInstance(ctx context.Context, name string) (*model.VRPInstance, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM vrp_instances WHERE name=$1`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var inst model.VRPInstance
	if err := json.Unmarshal(payload, &inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

func (p *Postgres) ListInstances(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT name FROM vrp_instances ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (p *Postgres) SaveResult(ctx context.Context, res *model.BenchmarkResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}
	id := res.RunID
	if id == "" {
		id = uuid.New().String()
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO vrp_results (id, instance_name, payload, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`,
		id, res.InstanceName, payload, res.StartedAt.UTC())
	return err
}

func (p *Postgres) ListResults(ctx context.Context, instanceName string, limit int) ([]*model.BenchmarkResult, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT payload FROM vrp_results WHERE instance_name=$1 ORDER BY created_at DESC LIMIT $2`,
		instanceName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.BenchmarkResult{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var res model.BenchmarkResult
		if err := json.Unmarshal(payload, &res); err != nil {
			return nil, err
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }
