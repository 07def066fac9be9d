package state

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/marksync/internal/model"
)

const lastSyncKey = "last_sync_timestamp"

// Repo persists run history and the key/value sync state.
type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) RecordRun(ctx context.Context, run *model.SyncRun) error {
	success := 0
	if run.Success {
		success = 1
	}
	data := map[string]interface{}{
		"started_at":  run.StartedAt,
		"finished_at": run.FinishedAt,
		"created":     run.Created,
		"updated":     run.Updated,
		"skipped":     run.Skipped,
		"filtered":    run.Filtered,
		"errors":      run.Errors,
		"success":     success,
		"message":     run.Message,
	}
	sqlStr, args, err := builder.BuildInsert("sync_runs", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if id, err := result.LastInsertId(); err == nil {
		run.ID = id
	}
	return nil
}

func (r *Repo) ListRuns(ctx context.Context, limit uint) ([]model.SyncRun, error) {
	if limit == 0 {
		limit = 20
	}
	where := map[string]interface{}{
		"_orderby": "finished_at desc, id desc",
		"_limit":   []uint{0, limit},
	}
	fields := []string{"id", "started_at", "finished_at", "created", "updated", "skipped", "filtered", "errors", "success", "message"}
	sqlStr, args, err := builder.BuildSelect("sync_runs", where, fields)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	runs := make([]model.SyncRun, 0)
	for rows.Next() {
		var run model.SyncRun
		var success int
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Created, &run.Updated,
			&run.Skipped, &run.Filtered, &run.Errors, &success, &run.Message); err != nil {
			return nil, err
		}
		run.Success = success != 0
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *Repo) SetValue(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_state(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

// GetValue returns "" when the key is absent.
func (r *Repo) GetValue(ctx context.Context, key string) (string, error) {
	where := map[string]interface{}{"key": key}
	sqlStr, args, err := builder.BuildSelect("sync_state", where, []string{"value"})
	if err != nil {
		return "", err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	if !rows.Next() {
		return "", rows.Err()
	}
	var value string
	if err := rows.Scan(&value); err != nil {
		return "", err
	}
	return value, nil
}

func (r *Repo) SetLastSync(ctx context.Context, t time.Time) error {
	return r.SetValue(ctx, lastSyncKey, t.UTC().Format(time.RFC3339))
}

// LastSync returns nil when no run has completed yet.
func (r *Repo) LastSync(ctx context.Context) (*time.Time, error) {
	value, err := r.GetValue(ctx, lastSyncKey)
	if err != nil || value == "" {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
