package ports

import (
	"context"
	"io"

	"github.com/akoreshkov/docfields/internal/core/domain"
)

// JobRepository persists and reads job descriptors.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id int64) (*domain.Job, error)
	List(ctx context.Context) ([]domain.Job, error)
	UpsertByTitle(ctx context.Context, job *domain.Job) error
}

// ResultRepository persists processing outcomes and the task log.
type ResultRepository interface {
	CreatePDF(ctx context.Context, jobID int64, path string) (int64, error)
	CreateResult(ctx context.Context, result *domain.Result) (int64, error)
	ListByJob(ctx context.Context, jobID int64) ([]domain.Result, error)
	LogTaskEvent(ctx context.Context, taskID string, status domain.TaskStatus, message string) error
	LatestTaskEvent(ctx context.Context, taskID string) (*domain.TaskEvent, error)
}

// ObjectStorage stores uploaded source documents. Path resolves a stored key
// to a filesystem path usable by external tooling (rasterizer, OCR).
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Path(key string) string
}

// TaskQueue dispatches extraction requests to the worker pool.
type TaskQueue interface {
	PublishExtractionRequest(ctx context.Context, req domain.ExtractionRequest) error
	SubscribeExtractionRequests(ctx context.Context, handler func(context.Context, domain.ExtractionRequest) error) error
}

// TextExtractor pulls text from a stored document, page by page.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, []domain.PageDiagnostic, error)
}

// OCREngine recognizes text on a single rasterized page of a PDF.
type OCREngine interface {
	RecognizePage(ctx context.Context, pdfPath string, page int) (string, error)
}

// TextGenerator performs one non-streaming round-trip to the model.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StatusNotifier delivers status events to a live subscriber keyed by task
// identity. Best effort: publishing never blocks and never fails the caller.
type StatusNotifier interface {
	Publish(taskID string, event domain.StatusEvent)
}
