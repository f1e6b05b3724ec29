package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akoreshkov/docfields/internal/core/domain"
	"github.com/akoreshkov/docfields/internal/core/ports"
)

// SubmitDocumentUseCase handles the upload path: store the PDF, mint a task
// identity and dispatch an extraction request to the worker pool.
type SubmitDocumentUseCase struct {
	jobs    ports.JobRepository
	storage ports.ObjectStorage
	queue   ports.TaskQueue
}

func NewSubmitDocumentUseCase(
	jobs ports.JobRepository,
	storage ports.ObjectStorage,
	queue ports.TaskQueue,
) *SubmitDocumentUseCase {
	return &SubmitDocumentUseCase{
		jobs:    jobs,
		storage: storage,
		queue:   queue,
	}
}

// Submit stores the document and enqueues processing against the given job.
// The returned task id is the correlation key for status subscriptions and
// task queries.
func (uc *SubmitDocumentUseCase) Submit(ctx context.Context, jobID int64, filename string, body io.Reader) (string, error) {
	if _, err := uc.jobs.GetByID(ctx, jobID); err != nil {
		return "", fmt.Errorf("resolve job %d: %w", jobID, err)
	}

	taskID := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", taskID, sanitizeFilename(filename))

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return "", fmt.Errorf("save document: %w", err)
	}

	req := domain.ExtractionRequest{
		TaskID:       taskID,
		JobID:        jobID,
		DocumentPath: uc.storage.Path(storageKey),
		EnqueuedAt:   time.Now().UTC(),
	}
	if err := uc.queue.PublishExtractionRequest(ctx, req); err != nil {
		return "", fmt.Errorf("publish extraction request: %w", err)
	}
	return taskID, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.pdf"
	}
	return base
}
