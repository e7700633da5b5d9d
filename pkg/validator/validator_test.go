package validator

import "testing"

type registerPayload struct {
	Owner            string `json:"owner" validate:"required"`
	Name             string `json:"name" validate:"required"`
	SensitivityLevel int    `json:"sensitivity_level" validate:"min=1,max=4"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := registerPayload{
		Owner:            "alice",
		Name:             "telemetry",
		SensitivityLevel: 3,
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	payload := registerPayload{
		Owner:            "alice",
		Name:             "",
		SensitivityLevel: 5,
	}

	err := ValidateStruct(payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(vErrs) != 2 {
		t.Fatalf("expected two failures, got %d: %v", len(vErrs), vErrs)
	}

	fields := map[string]bool{}
	for _, fe := range vErrs {
		fields[fe.Field] = true
	}
	if !fields["name"] || !fields["sensitivity_level"] {
		t.Fatalf("unexpected failure fields: %v", vErrs)
	}
}
