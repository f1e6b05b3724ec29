package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/akoreshkov/docfields/internal/core/domain"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *JobRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS jobs (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	prompt TEXT NOT NULL,
	fields JSONB NOT NULL,
	assigned_emails JSONB NOT NULL DEFAULT '[]'::jsonb,
	status TEXT NOT NULL DEFAULT 'draft',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	fieldsJSON, err := json.Marshal(job.Schema)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	emailsJSON, err := json.Marshal(emptyIfNil(job.AssignedEmails))
	if err != nil {
		return fmt.Errorf("marshal assigned emails: %w", err)
	}

	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = domain.JobStatusDraft
	}

	row := r.db.QueryRowContext(ctx, `
INSERT INTO jobs (title, description, prompt, fields, assigned_emails, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id
`,
		job.Title, job.Description, job.Prompt, fieldsJSON, emailsJSON, string(job.Status), job.CreatedAt, job.UpdatedAt,
	)
	if err := row.Scan(&job.ID); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, description, prompt, fields, assigned_emails, status, created_at, updated_at
FROM jobs
WHERE id = $1
`, id)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "get job", fmt.Errorf("id %d", id))
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return job, nil
}

func (r *JobRepository) List(ctx context.Context) ([]domain.Job, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, description, prompt, fields, assigned_emails, status, created_at, updated_at
FROM jobs
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// UpsertByTitle is used by the seed loader: a re-run of the same seed
// file updates the definition in place instead of failing on the
// unique title.
func (r *JobRepository) UpsertByTitle(ctx context.Context, job *domain.Job) error {
	fieldsJSON, err := json.Marshal(job.Schema)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	emailsJSON, err := json.Marshal(emptyIfNil(job.AssignedEmails))
	if err != nil {
		return fmt.Errorf("marshal assigned emails: %w", err)
	}

	now := time.Now().UTC()
	if job.Status == "" {
		job.Status = domain.JobStatusActive
	}

	row := r.db.QueryRowContext(ctx, `
INSERT INTO jobs (title, description, prompt, fields, assigned_emails, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
ON CONFLICT (title) DO UPDATE
SET description = EXCLUDED.description,
    prompt = EXCLUDED.prompt,
    fields = EXCLUDED.fields,
    assigned_emails = EXCLUDED.assigned_emails,
    status = EXCLUDED.status,
    updated_at = EXCLUDED.updated_at
RETURNING id, created_at
`,
		job.Title, job.Description, job.Prompt, fieldsJSON, emailsJSON, string(job.Status), now,
	)
	if err := row.Scan(&job.ID, &job.CreatedAt); err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	job.UpdatedAt = now
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var fieldsRaw, emailsRaw []byte
	var status string

	err := row.Scan(
		&job.ID, &job.Title, &job.Description, &job.Prompt,
		&fieldsRaw, &emailsRaw, &status, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(fieldsRaw, &job.Schema); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	if err := json.Unmarshal(emailsRaw, &job.AssignedEmails); err != nil {
		return nil, fmt.Errorf("unmarshal assigned emails: %w", err)
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
