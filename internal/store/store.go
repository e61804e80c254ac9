// Package store persists replay runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"bertrand-replay/internal/analysis"
	"bertrand-replay/internal/model"
)

// ErrNotFound is returned by LoadRun for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// DB wraps a SQLite connection holding replay runs.
type DB struct {
	conn *sqlx.DB
}

// Run is one batch replay: the parameters it ran under and the per-market
// outcome.
type Run struct {
	ID        string
	Label     string
	CreatedAt time.Time
	Params    model.MarketParameters
	Spec      model.DeviationSpec
	Markets   []MarketRun
}

// MarketRun is the outcome of replaying a single market.
type MarketRun struct {
	MarketID    string
	NoDeviation model.Trajectory
	Deviation   model.Trajectory
	IC          analysis.ICResult
}

// ShareIC is the fraction of markets in the run that passed the IC test.
func (r *Run) ShareIC() float64 {
	results := make([]analysis.ICResult, len(r.Markets))
	for i, m := range r.Markets {
		results[i] = m.IC
	}
	return analysis.ShareIC(results)
}

// RunSummary is the listing row for a stored run.
type RunSummary struct {
	ID        string    `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	NMarkets  int       `db:"n_markets" json:"n_markets"`
	ShareIC   float64   `db:"share_ic" json:"share_ic"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrapf(err, "open db %s", path)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		params_json TEXT NOT NULL,
		spec_json TEXT NOT NULL,
		n_markets INTEGER NOT NULL,
		share_ic REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trajectories (
		run_id TEXT NOT NULL REFERENCES runs(id),
		market_index INTEGER NOT NULL,
		market_id TEXT NOT NULL,
		path TEXT NOT NULL,
		prices_json TEXT NOT NULL,
		PRIMARY KEY (run_id, market_index, path)
	);

	CREATE TABLE IF NOT EXISTS ic_results (
		run_id TEXT NOT NULL REFERENCES runs(id),
		market_index INTEGER NOT NULL,
		market_id TEXT NOT NULL,
		is_ic INTEGER NOT NULL,
		value_no_dev REAL NOT NULL,
		value_dev REAL NOT NULL,
		PRIMARY KEY (run_id, market_index)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun writes a run and all of its markets in one transaction. An empty ID
// is replaced by a fresh UUID, and the ID that was stored is returned.
func (db *DB) SaveRun(ctx context.Context, run *Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	paramsJSON, err := json.Marshal(run.Params)
	if err != nil {
		return "", errors.Wrap(err, "encode params")
	}
	specJSON, err := json.Marshal(run.Spec)
	if err != nil {
		return "", errors.Wrap(err, "encode deviation spec")
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, label, created_at, params_json, spec_json, n_markets, share_ic)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Label, run.CreatedAt, string(paramsJSON), string(specJSON),
		len(run.Markets), run.ShareIC(),
	)
	if err != nil {
		return "", errors.Wrapf(err, "insert run %s", run.ID)
	}

	trajStmt, err := tx.PreparexContext(ctx, `INSERT INTO trajectories
		(run_id, market_index, market_id, path, prices_json)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer trajStmt.Close()

	icStmt, err := tx.PreparexContext(ctx, `INSERT INTO ic_results
		(run_id, market_index, market_id, is_ic, value_no_dev, value_dev)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer icStmt.Close()

	for i, m := range run.Markets {
		for _, tp := range []struct {
			path model.Path
			traj model.Trajectory
		}{
			{model.PathNoDeviation, m.NoDeviation},
			{model.PathDeviation, m.Deviation},
		} {
			pricesJSON, err := json.Marshal(tp.traj.Ints())
			if err != nil {
				return "", errors.Wrapf(err, "encode %s trajectory of %s", tp.path, m.MarketID)
			}
			if _, err := trajStmt.ExecContext(ctx, run.ID, i, m.MarketID, string(tp.path), string(pricesJSON)); err != nil {
				return "", errors.Wrapf(err, "insert %s trajectory of %s", tp.path, m.MarketID)
			}
		}

		isIC := 0
		if m.IC.IsIC {
			isIC = 1
		}
		if _, err := icStmt.ExecContext(ctx, run.ID, i, m.MarketID, isIC, m.IC.ValueNoDev, m.IC.ValueDev); err != nil {
			return "", errors.Wrapf(err, "insert ic result of %s", m.MarketID)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrapf(err, "commit run %s", run.ID)
	}
	return run.ID, nil
}

type runRow struct {
	ID         string    `db:"id"`
	Label      string    `db:"label"`
	CreatedAt  time.Time `db:"created_at"`
	ParamsJSON string    `db:"params_json"`
	SpecJSON   string    `db:"spec_json"`
}

type trajectoryRow struct {
	MarketIndex int    `db:"market_index"`
	MarketID    string `db:"market_id"`
	Path        string `db:"path"`
	PricesJSON  string `db:"prices_json"`
}

type icRow struct {
	MarketIndex int     `db:"market_index"`
	MarketID    string  `db:"market_id"`
	IsIC        bool    `db:"is_ic"`
	ValueNoDev  float64 `db:"value_no_dev"`
	ValueDev    float64 `db:"value_dev"`
}

// LoadRun reads a full run back, markets in the order they were saved.
func (db *DB) LoadRun(ctx context.Context, id string) (*Run, error) {
	var row runRow
	err := db.conn.GetContext(ctx, &row,
		"SELECT id, label, created_at, params_json, spec_json FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "run %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load run %s", id)
	}

	run := &Run{ID: row.ID, Label: row.Label, CreatedAt: row.CreatedAt}
	if err := json.Unmarshal([]byte(row.ParamsJSON), &run.Params); err != nil {
		return nil, errors.Wrapf(err, "decode params of run %s", id)
	}
	if err := json.Unmarshal([]byte(row.SpecJSON), &run.Spec); err != nil {
		return nil, errors.Wrapf(err, "decode deviation spec of run %s", id)
	}

	var ics []icRow
	err = db.conn.SelectContext(ctx, &ics,
		`SELECT market_index, market_id, is_ic, value_no_dev, value_dev
		FROM ic_results WHERE run_id = ? ORDER BY market_index`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "load ic results of run %s", id)
	}
	run.Markets = make([]MarketRun, len(ics))
	for _, r := range ics {
		if r.MarketIndex < 0 || r.MarketIndex >= len(ics) {
			return nil, errors.Errorf("run %s: market index %d out of range", id, r.MarketIndex)
		}
		run.Markets[r.MarketIndex] = MarketRun{
			MarketID: r.MarketID,
			IC:       analysis.ICResult{IsIC: r.IsIC, ValueNoDev: r.ValueNoDev, ValueDev: r.ValueDev},
		}
	}

	var trajs []trajectoryRow
	err = db.conn.SelectContext(ctx, &trajs,
		`SELECT market_index, market_id, path, prices_json
		FROM trajectories WHERE run_id = ? ORDER BY market_index, path`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "load trajectories of run %s", id)
	}
	for _, r := range trajs {
		if r.MarketIndex < 0 || r.MarketIndex >= len(run.Markets) {
			return nil, errors.Errorf("run %s: market index %d out of range", id, r.MarketIndex)
		}
		var rows [][]int
		if err := json.Unmarshal([]byte(r.PricesJSON), &rows); err != nil {
			return nil, errors.Wrapf(err, "decode %s trajectory of %s", r.Path, r.MarketID)
		}
		traj, err := model.TrajectoryFromInts(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s trajectory of %s", r.Path, r.MarketID)
		}
		switch model.Path(r.Path) {
		case model.PathNoDeviation:
			run.Markets[r.MarketIndex].NoDeviation = traj
		case model.PathDeviation:
			run.Markets[r.MarketIndex].Deviation = traj
		default:
			return nil, errors.Errorf("run %s: unknown path %q", id, r.Path)
		}
	}

	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	runs := []RunSummary{}
	err := db.conn.SelectContext(ctx, &runs,
		`SELECT id, label, created_at, n_markets, share_ic
		FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	return runs, nil
}
