package fields

import (
	"encoding/json"
	"strings"

	"github.com/akoreshkov/docfields/internal/core/domain"
)

// Parse turns raw model output into a field map. It is total: any input and
// any non-empty schema produce a mapping, never an error.
//
// The primary path decodes the raw text as a single JSON object and returns
// it verbatim, mixed value types included. The fallback runs only when the
// decode fails (arrays, scalars and null count as failures): lines containing
// a colon are matched case-insensitively against schema field names, and the
// text after the first colon becomes the field value. A fallback that matches
// nothing maps every schema field to "N/A", so the fallback path always
// covers every schema key, unlike the JSON path which may omit keys.
func Parse(raw string, schema domain.JobSchema) map[string]any {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil && decoded != nil {
		return decoded
	}
	return parseLines(raw, schema)
}

// parseLines is the tolerant fallback. When several field names match the
// same line each gets the line's value; when several lines match the same
// field the last line wins. That precedence is an accepted approximation,
// not a contract.
func parseLines(raw string, schema domain.JobSchema) map[string]any {
	result := make(map[string]any)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, ":") {
			continue
		}
		lower := strings.ToLower(line)
		for field := range schema {
			if !strings.Contains(lower, strings.ToLower(field)) {
				continue
			}
			_, value, _ := strings.Cut(line, ":")
			result[field] = strings.Trim(strings.TrimSpace(value), `"'`)
		}
	}
	if len(result) == 0 {
		for field := range schema {
			result[field] = "N/A"
		}
	}
	return result
}
