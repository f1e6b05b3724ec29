package ports

import (
	"context"
	"io"

	"github.com/akoreshkov/docfields/internal/core/domain"
)

// DocumentSubmitter is the inbound contract for the upload path: store the
// document and enqueue a processing task, returning the task identity.
type DocumentSubmitter interface {
	Submit(ctx context.Context, jobID int64, filename string, body io.Reader) (string, error)
}

// TaskProcessor is the inbound contract for one asynchronous processing run.
type TaskProcessor interface {
	Run(ctx context.Context, req domain.ExtractionRequest) domain.ProcessingResult
}
