package validation

import (
	"strings"
	"testing"

	"github.com/ezyshopper/storefront/internal/models"
)

func TestValidateOrigin(t *testing.T) {
	t.Parallel()
	tests := []struct {
		origin  string
		wantErr bool
	}{
		{"http://localhost:5173", false},
		{"https://shop.example.com", false},
		{"http://3.110.105.30:5173", false},
		{"https://shop.example.com/", false},
		{"*", true},
		{"localhost:5173", true},
		{"ftp://files.example.com", true},
		{"https://shop.example.com/app", true},
		{"https://shop.example.com?x=1", true},
		{"https://", true},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			t.Parallel()
			err := ValidateOrigin(tt.origin)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOrigin(%q) error = %v, wantErr %v", tt.origin, err, tt.wantErr)
			}
		})
	}
}

type sample struct {
	Mode    models.DeploymentMode `validate:"deployment_mode"`
	Origins []string              `validate:"min=1,dive,origin"`
	Rate    string                `validate:"omitempty,rate"`
}

func TestStruct(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{
			name: "valid",
			in:   sample{Mode: models.ModeProduction, Origins: []string{"https://a.com"}, Rate: "5-S"},
		},
		{
			name:    "bad mode",
			in:      sample{Mode: "staging", Origins: []string{"https://a.com"}},
			wantErr: "deployment_mode",
		},
		{
			name:    "no origins",
			in:      sample{Mode: models.ModeDevelopment},
			wantErr: "min=1",
		},
		{
			name:    "bad origin",
			in:      sample{Mode: models.ModeDevelopment, Origins: []string{"not an origin"}},
			wantErr: "origin",
		},
		{
			name:    "bad rate",
			in:      sample{Mode: models.ModeDevelopment, Origins: []string{"https://a.com"}, Rate: "fast"},
			wantErr: "rate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Struct() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Struct() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Struct() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
