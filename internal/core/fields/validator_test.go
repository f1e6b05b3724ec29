package fields

import (
	"testing"

	"github.com/akoreshkov/docfields/internal/core/domain"
)

func TestValidateFlagsMissingRequiredField(t *testing.T) {
	schema := domain.JobSchema{
		"name": {Type: domain.FieldTypeString, Required: true},
	}
	errs := Validate(map[string]any{}, schema)
	if errs["name"] != "Missing or empty value" {
		t.Fatalf("expected missing-value error, got %v", errs)
	}
}

func TestValidateFlagsBlankRequiredField(t *testing.T) {
	schema := domain.JobSchema{
		"name": {Type: domain.FieldTypeString, Required: true},
	}
	errs := Validate(map[string]any{"name": "   "}, schema)
	if errs["name"] != "Missing or empty value" {
		t.Fatalf("expected missing-value error for blank string, got %v", errs)
	}
}

func TestValidateFlagsUnparsableInteger(t *testing.T) {
	schema := domain.JobSchema{
		"age": {Type: domain.FieldTypeInteger},
	}
	errs := Validate(map[string]any{"age": "abc"}, schema)
	if errs["age"] != "Must be a valid integer" {
		t.Fatalf("expected integer error, got %v", errs)
	}
}

func TestValidateAcceptsJSONNumberAsInteger(t *testing.T) {
	schema := domain.JobSchema{
		"total": {Type: domain.FieldTypeInteger, Required: true},
	}
	errs := Validate(map[string]any{"total": float64(450)}, schema)
	if len(errs) != 0 {
		t.Fatalf("expected no errors for numeric 450, got %v", errs)
	}
}

func TestValidateDateChecksPrefixOnly(t *testing.T) {
	schema := domain.JobSchema{
		"dob": {Type: domain.FieldTypeDate},
	}
	// Impossible calendar dates pass: only the YYYY-MM-DD shape is checked.
	if errs := Validate(map[string]any{"dob": "2023-13-40"}, schema); len(errs) != 0 {
		t.Fatalf("expected no error for prefix-valid date, got %v", errs)
	}
	if errs := Validate(map[string]any{"dob": "13/40/2023"}, schema); errs["dob"] != "Invalid date format" {
		t.Fatalf("expected date format error, got %v", errs)
	}
}

func TestValidateMissingRequiredSubsumesTypeCheck(t *testing.T) {
	schema := domain.JobSchema{
		"age": {Type: domain.FieldTypeInteger, Required: true},
	}
	errs := Validate(map[string]any{}, schema)
	if len(errs) != 1 || errs["age"] != "Missing or empty value" {
		t.Fatalf("expected single missing-value error, got %v", errs)
	}
}

func TestValidateTreatsWhitespaceOnlyAsEmpty(t *testing.T) {
	schema := domain.JobSchema{
		"age": {Type: domain.FieldTypeInteger},
		"dob": {Type: domain.FieldTypeDate},
	}
	// Whitespace-only answers mean "no value", not a malformed one:
	// optional fields are skipped instead of flagged as bad types.
	errs := Validate(map[string]any{"age": "   ", "dob": "\t"}, schema)
	if len(errs) != 0 {
		t.Fatalf("expected no errors for whitespace-only optional fields, got %v", errs)
	}
}

func TestValidateIgnoresOptionalAbsentAndExtraFields(t *testing.T) {
	schema := domain.JobSchema{
		"notes": {Type: domain.FieldTypeString},
		"age":   {Type: domain.FieldTypeInteger},
	}
	errs := Validate(map[string]any{"surplus": "value"}, schema)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateIsDeterministicAcrossCalls(t *testing.T) {
	schema := domain.JobSchema{
		"a": {Type: domain.FieldTypeInteger, Required: true},
		"b": {Type: domain.FieldTypeDate, Required: true},
		"c": {Type: domain.FieldTypeString},
	}
	extracted := map[string]any{"a": "x", "b": "nope"}
	first := Validate(extracted, schema)
	for i := 0; i < 10; i++ {
		again := Validate(extracted, schema)
		if len(again) != len(first) {
			t.Fatalf("validation varied across calls: %v vs %v", first, again)
		}
		for k, v := range first {
			if again[k] != v {
				t.Fatalf("validation varied for %s: %q vs %q", k, v, again[k])
			}
		}
	}
}
