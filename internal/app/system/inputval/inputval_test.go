package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"ann@example.com",
		"ann.lee+sos@mail.example.co.uk",
		"a@b.co",
		"admin@localhost",
	}
	invalid := []string{
		"",
		"   ",
		"ann",
		"ann@",
		"@example.com",
		".ann@example.com",
		"ann.@example.com",
		"ann..lee@example.com",
		"ann@example..com",
		"ann@-example.com",
		"ann@@example.com",
		"Ann Lee <ann@example.com>",
		"ann lee@example.com",
		"ann@exa mple.com",
	}
	for _, s := range valid {
		if !IsValidEmail(s) {
			t.Errorf("IsValidEmail(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsValidEmail(s) {
			t.Errorf("IsValidEmail(%q) = true, want false", s)
		}
	}
}

func TestValidate_EmailRule(t *testing.T) {
	type in struct {
		Email string `json:"email" validate:"required,email" label:"Email"`
	}
	tests := []struct {
		email   string
		wantMsg string
	}{
		{"ann@example.com", ""},
		{"", "Email is required."},
		{"Ann <ann@example.com>", "A valid email address is required."},
		{"ann@example..com", "A valid email address is required."},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := Validate(in{Email: tt.email}).First(); got != tt.wantMsg {
				t.Errorf("First() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}
