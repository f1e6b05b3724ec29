package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/akoreshkov/docfields/internal/core/domain"
)

// ResultRepository persists uploaded PDF records, extraction results
// and the per-task status log.
type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082802)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS pdfs (
	id BIGSERIAL PRIMARY KEY,
	job_id BIGINT NOT NULL REFERENCES jobs(id),
	file_path TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	id BIGSERIAL PRIMARY KEY,
	job_id BIGINT NOT NULL REFERENCES jobs(id),
	pdf_id BIGINT NOT NULL REFERENCES pdfs(id),
	extracted_fields JSONB NOT NULL,
	errors JSONB NOT NULL DEFAULT '[]'::jsonb,
	processed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS task_logs (
	id BIGSERIAL PRIMARY KEY,
	task_id TEXT NOT NULL,
	status TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pdfs_job_id ON pdfs(job_id);
CREATE INDEX IF NOT EXISTS idx_results_job_id ON results(job_id);
CREATE INDEX IF NOT EXISTS idx_task_logs_task_id ON task_logs(task_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ResultRepository) CreatePDF(ctx context.Context, jobID int64, filePath string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO pdfs (job_id, file_path, uploaded_at)
VALUES ($1, $2, $3)
RETURNING id
`, jobID, filePath, time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert pdf: %w", err)
	}
	return id, nil
}

func (r *ResultRepository) CreateResult(ctx context.Context, result *domain.Result) (int64, error) {
	fieldsJSON, err := json.Marshal(result.ExtractedFields)
	if err != nil {
		return 0, fmt.Errorf("marshal extracted fields: %w", err)
	}
	errorsJSON, err := json.Marshal(emptyIfNil(result.Errors))
	if err != nil {
		return 0, fmt.Errorf("marshal errors: %w", err)
	}

	if result.ProcessedAt.IsZero() {
		result.ProcessedAt = time.Now().UTC()
	}

	err = r.db.QueryRowContext(ctx, `
INSERT INTO results (job_id, pdf_id, extracted_fields, errors, processed_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`, result.JobID, result.PDFID, fieldsJSON, errorsJSON, result.ProcessedAt).Scan(&result.ID)
	if err != nil {
		return 0, fmt.Errorf("insert result: %w", err)
	}
	return result.ID, nil
}

func (r *ResultRepository) ListByJob(ctx context.Context, jobID int64) ([]domain.Result, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, job_id, pdf_id, extracted_fields, errors, processed_at
FROM results
WHERE job_id = $1
ORDER BY processed_at
`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		var result domain.Result
		var fieldsRaw, errorsRaw []byte
		if err := rows.Scan(&result.ID, &result.JobID, &result.PDFID, &fieldsRaw, &errorsRaw, &result.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if err := json.Unmarshal(fieldsRaw, &result.ExtractedFields); err != nil {
			return nil, fmt.Errorf("unmarshal extracted fields: %w", err)
		}
		if err := json.Unmarshal(errorsRaw, &result.Errors); err != nil {
			return nil, fmt.Errorf("unmarshal errors: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

func (r *ResultRepository) LogTaskEvent(ctx context.Context, taskID string, status domain.TaskStatus, message string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO task_logs (task_id, status, message, created_at)
VALUES ($1, $2, $3, $4)
`, taskID, string(status), message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert task log: %w", err)
	}
	return nil
}

func (r *ResultRepository) LatestTaskEvent(ctx context.Context, taskID string) (*domain.TaskEvent, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, task_id, status, message, created_at
FROM task_logs
WHERE task_id = $1
ORDER BY created_at DESC, id DESC
LIMIT 1
`, taskID)

	var event domain.TaskEvent
	var status string
	err := row.Scan(&event.ID, &event.TaskID, &status, &event.Message, &event.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrTaskNotFound, "latest task event", fmt.Errorf("task %s", taskID))
		}
		return nil, fmt.Errorf("scan task log: %w", err)
	}
	event.Status = domain.TaskStatus(status)
	return &event, nil
}
