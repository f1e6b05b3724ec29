package fields

import (
	"testing"

	"github.com/akoreshkov/docfields/internal/core/domain"
)

func testSchema(names ...string) domain.JobSchema {
	schema := domain.JobSchema{}
	for _, name := range names {
		schema[name] = domain.FieldSpec{Type: domain.FieldTypeString}
	}
	return schema
}

func TestParseReturnsJSONObjectVerbatim(t *testing.T) {
	got := Parse(`{"name": "John", "age": 30}`, testSchema("name"))
	if got["name"] != "John" {
		t.Fatalf("expected name John, got %v", got["name"])
	}
	// extra keys and native number types pass through untouched
	if got["age"] != float64(30) {
		t.Fatalf("expected age 30, got %v (%T)", got["age"], got["age"])
	}
}

func TestParseFallsBackOnLineMatching(t *testing.T) {
	got := Parse("name: John\nage: 30", testSchema("name"))
	if len(got) != 1 || got["name"] != "John" {
		t.Fatalf("expected {name: John}, got %v", got)
	}
}

func TestParseFallbackMatchesCaseInsensitively(t *testing.T) {
	got := Parse(`Invoice_Number: "123"`, testSchema("invoice_number"))
	if got["invoice_number"] != "123" {
		t.Fatalf("expected quotes stripped, got %v", got["invoice_number"])
	}
}

func TestParseFallbackWithoutMatchesFillsSentinels(t *testing.T) {
	got := Parse("the model refused to answer", testSchema("name", "age"))
	if len(got) != 2 || got["name"] != "N/A" || got["age"] != "N/A" {
		t.Fatalf("expected every schema key mapped to N/A, got %v", got)
	}
}

func TestParseTreatsNonObjectJSONAsFallback(t *testing.T) {
	for _, raw := range []string{`[1,2,3]`, `"scalar"`, `42`, `null`} {
		got := Parse(raw, testSchema("name"))
		if got["name"] != "N/A" {
			t.Fatalf("raw %q: expected fallback sentinel, got %v", raw, got)
		}
	}
}

func TestParseFallbackLaterLineOverwrites(t *testing.T) {
	// Multi-match precedence is undefined behavior we only pin loosely:
	// a later line for the same field replaces the earlier value.
	got := Parse("total: 100\ntotal: 200", testSchema("total"))
	if got["total"] != "200" {
		t.Fatalf("expected last line to win, got %v", got["total"])
	}
}

func TestParseIsTotalOnEmptyInput(t *testing.T) {
	got := Parse("", testSchema("name"))
	if got["name"] != "N/A" {
		t.Fatalf("expected sentinel for empty input, got %v", got)
	}
}
