package fields

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/akoreshkov/docfields/internal/core/domain"
)

const (
	reasonMissing    = "Missing or empty value"
	reasonBadInteger = "Must be a valid integer"
	reasonBadDate    = "Invalid date format"
)

// Date values only need a YYYY-MM-DD prefix; there is no calendar or range
// validation. Accepted looseness, do not tighten.
var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// Validate checks extracted values against the schema and returns one reason
// per offending field. Validation annotates, it never filters: extracted
// entries are left untouched, and keys outside the schema are never flagged.
// At most one reason is recorded per field; a missing required field is not
// additionally reported as a bad type.
func Validate(extracted map[string]any, schema domain.JobSchema) map[string]string {
	errs := make(map[string]string)
	for name, spec := range schema {
		value, present := extracted[name]
		text := strings.TrimSpace(stringify(value))

		switch {
		case spec.Required && (!present || text == ""):
			errs[name] = reasonMissing
		case !present || text == "":
			// optional and absent or blank: nothing to check
		case spec.Type == domain.FieldTypeInteger:
			if _, err := strconv.Atoi(text); err != nil {
				errs[name] = reasonBadInteger
			}
		case spec.Type == domain.FieldTypeDate:
			if !datePrefix.MatchString(text) {
				errs[name] = reasonBadDate
			}
		}
	}
	return errs
}

// stringify renders a decoded JSON value the way the validator sees it.
// Numbers print without a float suffix so "450" parses as an integer.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
