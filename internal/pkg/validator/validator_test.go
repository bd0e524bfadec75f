package validator

import (
	"testing"

	"github.com/pratik-mahalle/adminservice/internal/api/dto"
	"github.com/pratik-mahalle/adminservice/internal/domain/user"
)

func strPtr(s string) *string { return &s }

func TestValidateEnumTags(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		in        interface{}
		wantField string
		wantMsg   string
	}{
		{"valid alert", &dto.TestAlertRequest{Type: "job", Severity: "critical"}, "", ""},
		{"empty alert uses defaults", &dto.TestAlertRequest{}, "", ""},
		{"unknown severity", &dto.TestAlertRequest{Severity: "fatal"}, "severity", "severity must be one of [info warning error critical]"},
		{"unknown type", &dto.TestAlertRequest{Type: "disk"}, "type", "type must be one of [system job user chat performance security]"},
		{"valid user type", &user.Update{UserType: strPtr("admin")}, "", ""},
		{"unknown user type", &user.Update{UserType: strPtr("wizard")}, "user_type", "user_type must be one of [user admin superadmin]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(tt.in)
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("Validate() = %+v, want no errors", errs)
				}
				return
			}
			if len(errs) != 1 {
				t.Fatalf("Validate() returned %d errors, want 1: %+v", len(errs), errs)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.wantField)
			}
			if errs[0].Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", errs[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestValidateRequired(t *testing.T) {
	v := New()

	errs := v.Validate(&dto.TokenAdjustRequest{})
	if len(errs) != 1 || errs[0].Field != "amount" || errs[0].Tag != "required" {
		t.Fatalf("Validate() = %+v, want required amount", errs)
	}
	if errs[0].Message != "amount is required" {
		t.Errorf("Message = %q", errs[0].Message)
	}
}

func TestValidateNonStruct(t *testing.T) {
	v := New()

	errs := v.Validate("not a struct")
	if len(errs) != 1 || errs[0].Tag != "struct" {
		t.Fatalf("Validate() = %+v, want one struct error", errs)
	}
}
