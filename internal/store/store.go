// Package store handles SQLite persistence of training runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/parkinsight/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrRunNotFound is returned when no run matches a lookup.
var ErrRunNotFound = errors.New("run not found")

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			voice_rows INTEGER NOT NULL,
			symptom_rows INTEGER NOT NULL,
			outliers_before INTEGER NOT NULL,
			outliers_after INTEGER NOT NULL,
			best_params TEXT NOT NULL,
			artifacts_dir TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS model_scores (
			run_id TEXT NOT NULL,
			dataset TEXT NOT NULL,
			model TEXT NOT NULL,
			accuracy REAL NOT NULL,
			precision REAL NOT NULL,
			recall REAL NOT NULL,
			f1 REAL NOT NULL,
			PRIMARY KEY (run_id, dataset, model)
		);`,
		`CREATE TABLE IF NOT EXISTS grid_scores (
			run_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			params TEXT NOT NULL,
			mean REAL NOT NULL,
			std REAL NOT NULL,
			PRIMARY KEY (run_id, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a completed run with its model and tuning scores.
func (s *Store) InsertRun(ctx context.Context, run model.RunRecord, scores []model.ModelScore, grid []model.GridScore) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, ended_at, voice_rows, symptom_rows, outliers_before, outliers_after, best_params, artifacts_dir)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.Format(time.RFC3339Nano),
		run.EndedAt.Format(time.RFC3339Nano),
		run.VoiceRows,
		run.SymptomRows,
		run.OutliersBefore,
		run.OutliersAfter,
		run.BestParams,
		run.ArtifactsDir,
	)
	if err != nil {
		return err
	}

	if len(scores) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO model_scores (run_id, dataset, model, accuracy, precision, recall, f1)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, sc := range scores {
			if _, err = stmt.ExecContext(ctx, run.ID, sc.Dataset, sc.Model, sc.Accuracy, sc.Precision, sc.Recall, sc.F1); err != nil {
				return err
			}
		}
	}

	if len(grid) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO grid_scores (run_id, idx, params, mean, std) VALUES (?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, g := range grid {
			if _, err = stmt.ExecContext(ctx, run.ID, g.Index, g.Params, g.Mean, g.Std); err != nil {
				return err
			}
		}
	}

	err = tx.Commit()
	return err
}

const runColumns = `id, started_at, ended_at, voice_rows, symptom_rows, outliers_before, outliers_after, best_params, artifacts_dir`

func scanRun(scan func(dest ...any) error) (model.RunRecord, error) {
	var run model.RunRecord
	var startedAt, endedAt string
	if err := scan(&run.ID, &startedAt, &endedAt, &run.VoiceRows, &run.SymptomRows,
		&run.OutliersBefore, &run.OutliersAfter, &run.BestParams, &run.ArtifactsDir); err != nil {
		return model.RunRecord{}, err
	}
	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return model.RunRecord{}, err
	}
	if run.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

// ListRuns returns runs newest first, optionally limited to those started since a time.
func (s *Store) ListRuns(ctx context.Context, since *time.Time) ([]model.RunRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if since != nil {
		clauses = append(clauses, "started_at >= ?")
		args = append(args, since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT %s FROM runs WHERE %s ORDER BY started_at DESC`,
		runColumns, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunRecord
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRun returns one run by ID, or the newest run when id is empty.
func (s *Store) GetRun(ctx context.Context, id string) (model.RunRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM runs WHERE id = ?`, runColumns)
	args := []any{id}
	if id == "" {
		query = fmt.Sprintf(`SELECT %s FROM runs ORDER BY started_at DESC LIMIT 1`, runColumns)
		args = nil
	}
	run, err := scanRun(s.db.QueryRowContext(ctx, query, args...).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		if id == "" {
			return model.RunRecord{}, ErrRunNotFound
		}
		return model.RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ListScores returns model scores grouped by run ID.
func (s *Store) ListScores(ctx context.Context, runIDs []string) (map[string][]model.ModelScore, error) {
	result := map[string][]model.ModelScore{}
	if len(runIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(runIDs))
	args := make([]any, len(runIDs))
	for i, id := range runIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT run_id, dataset, model, accuracy, precision, recall, f1
		FROM model_scores
		WHERE run_id IN (%s)
		ORDER BY run_id, dataset DESC, model`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var runID string
		var sc model.ModelScore
		if err := rows.Scan(&runID, &sc.Dataset, &sc.Model, &sc.Accuracy, &sc.Precision, &sc.Recall, &sc.F1); err != nil {
			return nil, err
		}
		result[runID] = append(result[runID], sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListGridScores returns the tuning curve of a run in candidate order.
func (s *Store) ListGridScores(ctx context.Context, runID string) ([]model.GridScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, params, mean, std FROM grid_scores WHERE run_id = ? ORDER BY idx ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.GridScore
	for rows.Next() {
		var g model.GridScore
		if err := rows.Scan(&g.Index, &g.Params, &g.Mean, &g.Std); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Summaries returns runs newest first, each joined with its scores.
func (s *Store) Summaries(ctx context.Context, since *time.Time) ([]model.RunSummary, error) {
	runs, err := s.ListRuns(ctx, since)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	scores, err := s.ListScores(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.RunSummary, len(runs))
	for i, r := range runs {
		out[i] = model.RunSummary{Run: r, Scores: scores[r.ID]}
	}
	return out, nil
}
