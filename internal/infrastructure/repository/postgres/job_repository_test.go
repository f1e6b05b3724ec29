package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/akoreshkov/docfields/internal/core/domain"
)

func newJobRepoWithMock(t *testing.T) (*JobRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &JobRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestJobGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newJobRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, title, description, prompt").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestJobGetByIDDecodesSchema(t *testing.T) {
	repo, mock, done := newJobRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "title", "description", "prompt", "fields", "assigned_emails", "status", "created_at", "updated_at",
	}).AddRow(
		int64(1), "Invoices", "march batch", "Extract {fields} from {text}",
		[]byte(`{"invoice_number":{"type":"string","required":true},"total":{"type":"integer","required":false}}`),
		[]byte(`["ap@example.com"]`), "active", now, now,
	)
	mock.ExpectQuery("SELECT id, title, description, prompt").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	job, err := repo.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if job.Schema["invoice_number"].Type != domain.FieldTypeString || !job.Schema["invoice_number"].Required {
		t.Fatalf("unexpected schema: %+v", job.Schema)
	}
	if job.Status != domain.JobStatusActive {
		t.Fatalf("unexpected status: %s", job.Status)
	}
	if len(job.AssignedEmails) != 1 || job.AssignedEmails[0] != "ap@example.com" {
		t.Fatalf("unexpected emails: %v", job.AssignedEmails)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestJobCreateAssignsIDAndTimestamps(t *testing.T) {
	repo, mock, done := newJobRepoWithMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO jobs").
		WithArgs("Invoices", "", "Extract {fields} from {text}", sqlmock.AnyArg(), sqlmock.AnyArg(), "draft", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	job := &domain.Job{
		Title:  "Invoices",
		Prompt: "Extract {fields} from {text}",
		Schema: domain.JobSchema{"total": {Type: domain.FieldTypeInteger}},
	}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if job.ID != 7 {
		t.Fatalf("expected assigned id 7, got %d", job.ID)
	}
	if job.CreatedAt.IsZero() || job.Status != domain.JobStatusDraft {
		t.Fatalf("expected defaulted timestamps and draft status, got %+v", job)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestJobUpsertByTitleKeepsOriginalCreatedAt(t *testing.T) {
	repo, mock, done := newJobRepoWithMock(t)
	defer done()

	created := time.Now().UTC().Add(-24 * time.Hour)
	mock.ExpectQuery("INSERT INTO jobs").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), created))

	job := &domain.Job{
		Title:  "Invoices",
		Prompt: "p {fields} {text}",
		Schema: domain.JobSchema{"total": {Type: domain.FieldTypeInteger}},
	}
	if err := repo.UpsertByTitle(context.Background(), job); err != nil {
		t.Fatalf("UpsertByTitle() error = %v", err)
	}
	if job.ID != 3 || !job.CreatedAt.Equal(created) {
		t.Fatalf("expected id and original created_at preserved, got %+v", job)
	}
	if job.Status != domain.JobStatusActive {
		t.Fatalf("seeded jobs default to active, got %s", job.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
