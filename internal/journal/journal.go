// Package journal persists a record of pipeline runs and the cluster
// jobs they submitted. The journal is observational: the driver writes
// to it, the `agp runs` command reads it, and the pipeline's behavior
// never depends on its contents.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kiti15237/American-Gut/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at TIMESTAMP NOT NULL,
	ended_at   TIMESTAMP,
	status     TEXT NOT NULL DEFAULT 'running'
);

CREATE TABLE IF NOT EXISTS jobs (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	handle     TEXT NOT NULL,
	stage      TEXT NOT NULL,
	job_name   TEXT NOT NULL,
	command    TEXT NOT NULL,
	artifact   TEXT NOT NULL,
	state      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, handle)
);
`

// Journal wraps the SQLite run journal.
type Journal struct {
	conn *sql.DB
	path string
}

// Run is one recorded pipeline run.
type Run struct {
	ID        types.ID
	StartedAt time.Time
	EndedAt   *time.Time
	Status    string
	Jobs      int
}

// Open creates or opens the journal database at path and ensures the
// schema exists.
func Open(path string) (*Journal, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.JOURNAL_OPEN_FAILED, "failed to open journal", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, types.WrapError(types.JOURNAL_OPEN_FAILED, "failed to ping journal", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, types.WrapError(types.JOURNAL_OPEN_FAILED, "failed to apply journal schema", err)
	}

	return &Journal{conn: conn, path: path}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.conn.Close()
}

// BeginRun records the start of a pipeline run.
func (j *Journal) BeginRun(ctx context.Context, runID types.ID) error {
	_, err := j.conn.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, status) VALUES (?, ?, 'running')`,
		string(runID), time.Now().UTC(),
	)
	if err != nil {
		return types.WrapError(types.JOURNAL_WRITE_FAILED, "failed to record run start", err)
	}
	return nil
}

// EndRun records a run's final status.
func (j *Journal) EndRun(ctx context.Context, runID types.ID, status string) error {
	_, err := j.conn.ExecContext(ctx,
		`UPDATE runs SET ended_at = ?, status = ? WHERE id = ?`,
		time.Now().UTC(), status, string(runID),
	)
	if err != nil {
		return types.WrapError(types.JOURNAL_WRITE_FAILED, "failed to record run end", err)
	}
	return nil
}

// RecordSubmission records a freshly submitted job.
func (j *Journal) RecordSubmission(ctx context.Context, runID types.ID, handle, stage, jobName, command, artifact string) error {
	_, err := j.conn.ExecContext(ctx,
		`INSERT INTO jobs (run_id, handle, stage, job_name, command, artifact, state, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 'pending', ?)`,
		string(runID), handle, stage, jobName, command, artifact, time.Now().UTC(),
	)
	if err != nil {
		return types.WrapError(types.JOURNAL_WRITE_FAILED, "failed to record submission", err)
	}
	return nil
}

// RecordJobState updates a job's observed state.
func (j *Journal) RecordJobState(ctx context.Context, runID types.ID, handle, state string) error {
	_, err := j.conn.ExecContext(ctx,
		`UPDATE jobs SET state = ?, updated_at = ? WHERE run_id = ? AND handle = ?`,
		state, time.Now().UTC(), string(runID), handle,
	)
	if err != nil {
		return types.WrapError(types.JOURNAL_WRITE_FAILED, "failed to record job state", err)
	}
	return nil
}

// ListRuns returns recorded runs, newest first.
func (j *Journal) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := j.conn.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.ended_at, r.status, COUNT(jobs.handle)
		FROM runs r LEFT JOIN jobs ON jobs.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var id string
		if err := rows.Scan(&id, &r.StartedAt, &r.EndedAt, &r.Status, &r.Jobs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.ID = types.ID(id)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
