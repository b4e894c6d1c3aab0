package policy

import (
	"fmt"
	"regexp"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
)

// ParameterError describes one invalid parameter.
type ParameterError struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Validation is the result of parameter validation. It accumulates every
// error instead of stopping at the first.
type Validation struct {
	Valid  bool             `json:"valid"`
	Errors []ParameterError `json:"errors,omitempty"`
}

// ValidateParameters checks the supplied parameters against the
// operation's parameter specs: required presence, type match, and regex
// pattern for strings. It reports errors as values and never panics;
// an unparseable pattern counts as a validation failure for that
// parameter.
func ValidateParameters(params map[string]any, spec model.OperationSpec) Validation {
	var errs []ParameterError

	for name, pspec := range spec.Parameters {
		value, present := params[name]

		if !present {
			if pspec.Required {
				errs = append(errs, ParameterError{Name: name, Reason: "required parameter missing"})
			}
			continue
		}

		if pspec.Type != "" && !typeMatches(pspec.Type, value) {
			errs = append(errs, ParameterError{
				Name:   name,
				Reason: fmt.Sprintf("expected %s, got %T", pspec.Type, value),
			})
			continue
		}

		if pspec.Pattern != "" {
			s, ok := value.(string)
			if !ok {
				continue // patterns apply to strings only
			}
			re, err := regexp.Compile(pspec.Pattern)
			if err != nil {
				errs = append(errs, ParameterError{
					Name:   name,
					Reason: fmt.Sprintf("invalid pattern %q: %v", pspec.Pattern, err),
				})
				continue
			}
			if !re.MatchString(s) {
				errs = append(errs, ParameterError{
					Name:   name,
					Reason: fmt.Sprintf("value does not match pattern %q", pspec.Pattern),
				})
			}
		}
	}

	return Validation{Valid: len(errs) == 0, Errors: errs}
}

// typeMatches checks a value against a JSON-ish type name. "integer" is
// treated as a numeric type: JSON decoding hands us float64 for every
// number, so an integer check on float64 accepts whole values only.
func typeMatches(typeName string, value any) bool {
	switch typeName {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		return isNumeric(value)
	case "integer":
		switch n := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == float64(int64(n))
		case float32:
			return n == float32(int64(n))
		default:
			return false
		}
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	default:
		// Unknown type names are not enforced.
		return true
	}
}

func isNumeric(value any) bool {
	switch value.(type) {
	case int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}
