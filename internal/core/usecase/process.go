package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akoreshkov/docfields/internal/core/domain"
	"github.com/akoreshkov/docfields/internal/core/fields"
	"github.com/akoreshkov/docfields/internal/core/ports"
)

// RetryPolicy bounds re-entry of the task state machine. Only failures
// classified as temporary (ErrTemporary) are retried; everything else
// finalizes on the first attempt.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

var _ ports.TaskProcessor = (*ProcessTaskUseCase)(nil)

// ProcessTaskUseCase drives one document through the pipeline:
// extract text -> build prompt -> call model -> parse -> validate -> persist,
// emitting status events at every stage. States move
// waiting -> running -> finished|failed; terminal states are absorbing, so
// a retried attempt re-enters from waiting and "failed" is only ever emitted
// once, when the task is finalized.
type ProcessTaskUseCase struct {
	jobs      ports.JobRepository
	results   ports.ResultRepository
	extractor ports.TextExtractor
	generator ports.TextGenerator
	notifier  ports.StatusNotifier
	policy    RetryPolicy
	logger    *slog.Logger

	// OnRetry, when set, is invoked once per retried attempt.
	OnRetry func()

	sleep func(context.Context, time.Duration) error
}

func NewProcessTaskUseCase(
	jobs ports.JobRepository,
	results ports.ResultRepository,
	extractor ports.TextExtractor,
	generator ports.TextGenerator,
	notifier ports.StatusNotifier,
	policy RetryPolicy,
	logger *slog.Logger,
) *ProcessTaskUseCase {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessTaskUseCase{
		jobs:      jobs,
		results:   results,
		extractor: extractor,
		generator: generator,
		notifier:  notifier,
		policy:    policy,
		logger:    logger,
		sleep:     sleepContext,
	}
}

// Run executes the task to a terminal state. It never panics past the task
// boundary: an unrecoverable failure is returned as a structured result with
// Err set, after a failed event and a task-log entry.
func (uc *ProcessTaskUseCase) Run(ctx context.Context, req domain.ExtractionRequest) domain.ProcessingResult {
	var lastErr error
	for attempt := 1; attempt <= uc.policy.MaxAttempts; attempt++ {
		result, err := uc.runOnce(ctx, req)
		if err == nil {
			return result
		}
		lastErr = err

		if !domain.IsKind(err, domain.ErrTemporary) || attempt == uc.policy.MaxAttempts {
			break
		}
		uc.logger.Warn("task_retry",
			"task_id", req.TaskID,
			"attempt", attempt,
			"max_attempts", uc.policy.MaxAttempts,
			"backoff", uc.policy.Backoff,
			"error", lastErr,
		)
		if uc.OnRetry != nil {
			uc.OnRetry()
		}
		if err := uc.sleep(ctx, uc.policy.Backoff); err != nil {
			break
		}
	}

	uc.emit(ctx, req.TaskID, domain.TaskStatusFailed, lastErr.Error(), nil)
	uc.logger.Error("task_failed", "task_id", req.TaskID, "job_id", req.JobID, "error", lastErr)
	return domain.ProcessingResult{Err: lastErr.Error()}
}

func (uc *ProcessTaskUseCase) runOnce(ctx context.Context, req domain.ExtractionRequest) (domain.ProcessingResult, error) {
	uc.emit(ctx, req.TaskID, domain.TaskStatusWaiting, "Task queued in background", nil)

	uc.emit(ctx, req.TaskID, domain.TaskStatusRunning, "Extracting text from PDF...", nil)
	text, diagnostics, err := uc.extractor.Extract(ctx, req.DocumentPath)
	if err != nil {
		return domain.ProcessingResult{}, err
	}
	for _, diag := range diagnostics {
		if diag.Source == "error" {
			uc.logger.Warn("page_ocr_failed", "task_id", req.TaskID, "page", diag.Page, "detail", diag.Detail)
		}
	}
	uc.emit(ctx, req.TaskID, domain.TaskStatusRunning, "Text extraction completed", nil)

	job, err := uc.jobs.GetByID(ctx, req.JobID)
	if err != nil {
		return domain.ProcessingResult{}, err
	}

	prompt, err := fields.BuildPrompt(job.Prompt, text, job.Schema)
	if err != nil {
		return domain.ProcessingResult{}, err
	}

	uc.emit(ctx, req.TaskID, domain.TaskStatusRunning, "Sending text to the extraction model...", nil)
	raw, err := uc.generator.Generate(ctx, prompt)
	if err != nil {
		return domain.ProcessingResult{}, err
	}
	uc.emit(ctx, req.TaskID, domain.TaskStatusRunning, "AI extraction complete. Parsing response...", nil)

	extracted := fields.Parse(raw, job.Schema)

	uc.emit(ctx, req.TaskID, domain.TaskStatusRunning, "Validating extracted data...", nil)
	validationErrs := fields.Validate(extracted, job.Schema)

	// The PDF row is created per processing run, so a retried upload of
	// the same file yields a new record.
	pdfID, err := uc.results.CreatePDF(ctx, req.JobID, req.DocumentPath)
	if err != nil {
		return domain.ProcessingResult{}, fmt.Errorf("save pdf record: %w", err)
	}

	errorFields := make([]string, 0, len(validationErrs))
	errorLines := make([]string, 0, len(validationErrs))
	reasons := make([]string, 0, len(validationErrs))
	for field, reason := range validationErrs {
		errorFields = append(errorFields, field)
		errorLines = append(errorLines, fmt.Sprintf("%s: %s", field, reason))
		reasons = append(reasons, reason)
	}

	resultID, err := uc.results.CreateResult(ctx, &domain.Result{
		JobID:           req.JobID,
		PDFID:           pdfID,
		ExtractedFields: extracted,
		Errors:          errorLines,
	})
	if err != nil {
		return domain.ProcessingResult{}, fmt.Errorf("save result: %w", err)
	}

	uc.notifier.Publish(req.TaskID, domain.StatusEvent{
		Status:  domain.TaskStatusFinished,
		Message: "Processing completed",
		Result: map[string]any{
			"extracted": extracted,
			"errors":    reasons,
		},
	})
	uc.logEvent(ctx, req.TaskID, domain.TaskStatusFinished, fmt.Sprintf("Result ID: %d", resultID))

	return domain.ProcessingResult{
		ResultID:    resultID,
		PDFID:       pdfID,
		ErrorFields: errorFields,
	}, nil
}

// emit sends a status event to the live subscriber and records the same
// transition in the task log. Neither delivery may abort the run.
func (uc *ProcessTaskUseCase) emit(ctx context.Context, taskID string, status domain.TaskStatus, message string, result map[string]any) {
	uc.notifier.Publish(taskID, domain.StatusEvent{Status: status, Message: message, Result: result})
	uc.logEvent(ctx, taskID, status, message)
}

func (uc *ProcessTaskUseCase) logEvent(ctx context.Context, taskID string, status domain.TaskStatus, message string) {
	if err := uc.results.LogTaskEvent(ctx, taskID, status, message); err != nil {
		uc.logger.Warn("task_log_write_failed", "task_id", taskID, "status", status, "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
