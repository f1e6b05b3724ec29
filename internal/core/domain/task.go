package domain

import "time"

type TaskStatus string

const (
	TaskStatusWaiting  TaskStatus = "waiting"
	TaskStatusRunning  TaskStatus = "running"
	TaskStatusFinished TaskStatus = "finished"
	TaskStatusFailed   TaskStatus = "failed"
)

// Terminal reports whether no further status events are valid for a task
// once this status has been emitted.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusFinished || s == TaskStatusFailed
}

// StatusEvent is the JSON-shaped push delivered to a live status subscriber.
// It is ephemeral: no subscriber means the event is dropped.
type StatusEvent struct {
	Status  TaskStatus     `json:"status"`
	Message string         `json:"message,omitempty"`
	Result  map[string]any `json:"result,omitempty"`
}

// ExtractionRequest is one unit of work dispatched to the worker pool.
type ExtractionRequest struct {
	TaskID       string    `json:"task_id"`
	JobID        int64     `json:"job_id"`
	DocumentPath string    `json:"document_path"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

// PageDiagnostic records how a single page of the source document was
// recovered: "text" for the native layer, "ocr" for the raster fallback,
// "error" when the fallback itself failed.
type PageDiagnostic struct {
	Page   int    `json:"page"`
	Source string `json:"source"`
	Detail string `json:"detail,omitempty"`
}

// ProcessingResult is the terminal output of one processing run. On an
// unrecoverable failure only Err is set.
type ProcessingResult struct {
	ResultID    int64    `json:"result_id,omitempty"`
	PDFID       int64    `json:"pdf_id,omitempty"`
	ErrorFields []string `json:"errors,omitempty"`
	Err         string   `json:"error,omitempty"`
}

// Result is the persisted extraction outcome for one document.
type Result struct {
	ID              int64          `json:"id"`
	JobID           int64          `json:"job_id"`
	PDFID           int64          `json:"pdf_id"`
	ExtractedFields map[string]any `json:"extracted_fields"`
	Errors          []string       `json:"errors"`
	ProcessedAt     time.Time      `json:"processed_at"`
}

// TaskEvent is one row of the task log: a status transition with its
// human-readable message.
type TaskEvent struct {
	ID        int64      `json:"id"`
	TaskID    string     `json:"task_id"`
	Status    TaskStatus `json:"status"`
	Message   string     `json:"message,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
