package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		region string
		want   string
	}{
		{"national mobile", "0612345678", "NL", "+31612345678"},
		{"already e164", "+31612345678", "NL", "+31612345678"},
		{"with spaces", " 06 12 34 56 78 ", "NL", "+31612345678"},
		{"garbage passes through", "not a number", "NL", "not a number"},
		{"empty", "", "NL", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeE164(tt.input, tt.region); got != tt.want {
				t.Errorf("NormalizeE164(%q, %q) = %q, want %q", tt.input, tt.region, got, tt.want)
			}
		})
	}
}

func TestIsMobile(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		region string
		want   bool
	}{
		{"dutch mobile", "+31612345678", "NL", true},
		{"dutch landline", "+31201234567", "NL", false},
		{"garbage", "abc", "NL", false},
		{"empty", "", "NL", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMobile(tt.input, tt.region); got != tt.want {
				t.Errorf("IsMobile(%q, %q) = %v, want %v", tt.input, tt.region, got, tt.want)
			}
		})
	}
}

func TestParts(t *testing.T) {
	prefix, national, ok := Parts("+31612345678", "NL")
	if !ok {
		t.Fatal("Parts returned ok=false for a valid number")
	}
	if prefix != "+31" {
		t.Errorf("prefix = %q, want +31", prefix)
	}
	if national != "612345678" {
		t.Errorf("national = %q, want 612345678", national)
	}

	if _, _, ok := Parts("garbage", "NL"); ok {
		t.Error("Parts returned ok=true for garbage input")
	}
}
