package policy

import (
	"testing"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
)

func specWithParams() model.OperationSpec {
	return model.OperationSpec{
		Name: "flash.partition",
		Parameters: map[string]model.ParameterSpec{
			"partition": {Type: "string", Required: true, Pattern: `^[a-z_]+$`},
			"size_mb":   {Type: "integer", Required: false},
			"force":     {Type: "boolean", Required: false},
		},
	}
}

func TestValidateMissingRequired(t *testing.T) {
	v := ValidateParameters(map[string]any{}, specWithParams())

	if v.Valid {
		t.Fatal("missing required parameter must fail")
	}
	if len(v.Errors) != 1 || v.Errors[0].Name != "partition" {
		t.Errorf("expected one error for partition, got %+v", v.Errors)
	}
}

func TestValidateTypeMismatch(t *testing.T) {
	v := ValidateParameters(map[string]any{"partition": 42}, specWithParams())

	if v.Valid {
		t.Fatal("type mismatch must fail")
	}
}

func TestValidateIntegerAcceptsWholeFloat(t *testing.T) {
	// JSON decoding produces float64 for all numbers.
	params := map[string]any{"partition": "boot", "size_mb": float64(64)}
	v := ValidateParameters(params, specWithParams())

	if !v.Valid {
		t.Fatalf("whole float64 should satisfy integer, errors: %+v", v.Errors)
	}
}

func TestValidateIntegerRejectsFraction(t *testing.T) {
	params := map[string]any{"partition": "boot", "size_mb": 64.5}
	v := ValidateParameters(params, specWithParams())

	if v.Valid {
		t.Fatal("fractional value must not satisfy integer")
	}
}

func TestValidatePatternMismatch(t *testing.T) {
	v := ValidateParameters(map[string]any{"partition": "Boot!"}, specWithParams())

	if v.Valid {
		t.Fatal("pattern mismatch must fail")
	}
}

func TestValidateBadPatternReportedNotPanicked(t *testing.T) {
	spec := model.OperationSpec{
		Parameters: map[string]model.ParameterSpec{
			"name": {Type: "string", Required: true, Pattern: `([`},
		},
	}

	v := ValidateParameters(map[string]any{"name": "x"}, spec)

	if v.Valid {
		t.Fatal("uncompilable pattern must surface as an error")
	}
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	params := map[string]any{"size_mb": "big", "force": "yes"}
	v := ValidateParameters(params, specWithParams())

	if v.Valid {
		t.Fatal("expected failure")
	}
	// missing partition, wrong size_mb type, wrong force type
	if len(v.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %+v", len(v.Errors), v.Errors)
	}
}
