package domain

import (
	"errors"
	"fmt"
	"time"
)

type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeDate    FieldType = "date"
)

// FieldSpec declares the expected type of a single output field and whether
// the field must be present in the extraction result.
type FieldSpec struct {
	Type     FieldType `json:"type" yaml:"type"`
	Required bool      `json:"required" yaml:"required"`
}

// JobSchema maps output field names to their specs. The schema keys are the
// sole authority for what gets validated; extracted keys outside the schema
// are never flagged.
type JobSchema map[string]FieldSpec

// Validate rejects malformed schemas at job-definition time rather than at
// processing time.
func (s JobSchema) Validate() error {
	if len(s) == 0 {
		return WrapError(ErrInvalidInput, "validate schema", errors.New("schema has no fields"))
	}
	for name, spec := range s {
		if name == "" {
			return WrapError(ErrInvalidInput, "validate schema", errors.New("schema contains an empty field name"))
		}
		switch spec.Type {
		case FieldTypeString, FieldTypeInteger, FieldTypeDate:
		default:
			return WrapError(ErrInvalidInput, "validate schema",
				fmt.Errorf("field %q has unknown type %q", name, spec.Type))
		}
	}
	return nil
}

type JobStatus string

const (
	JobStatusDraft     JobStatus = "draft"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
)

// Job is the descriptor governing one category of document: the prompt
// template sent to the model and the field schema the response must satisfy.
type Job struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Prompt         string    `json:"prompt"`
	Schema         JobSchema `json:"fields"`
	AssignedEmails []string  `json:"assigned_emails"`
	Status         JobStatus `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
