package fields

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/akoreshkov/docfields/internal/core/domain"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// BuildPrompt substitutes the two recognized placeholders, {text} and
// {fields}, into the job's prompt template. {fields} carries the schema as
// compact JSON. Any other placeholder means a misconfigured job and fails
// with ErrBadTemplate immediately; that is never a retryable condition.
func BuildPrompt(template, text string, schema domain.JobSchema) (string, error) {
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		switch match[1] {
		case "text", "fields":
		default:
			return "", domain.WrapError(domain.ErrBadTemplate, "build prompt",
				fmt.Errorf("unknown placeholder {%s}", match[1]))
		}
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}

	// Single pass so placeholder-like content inside the document text is
	// never substituted.
	return placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		if m == "{text}" {
			return text
		}
		return string(schemaJSON)
	}), nil
}
