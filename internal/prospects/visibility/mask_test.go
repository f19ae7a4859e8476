package visibility

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestMaskName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"two part", "Kees Jansen", "K•••••• J••••••"},
		{"three part", "Kees van Jansen", "K•••••• J••••••"},
		{"single token", "Kees", "K••••••"},
		{"empty", "", ""},
		{"unicode", "Łukasz Żmij", "Ł•••••• Ż••••••"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskName(tt.in); got != tt.want {
				t.Errorf("MaskName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"normal", "k.jansen@jansenbouw.nl", "k••••••@j••••••"},
		{"short local", "a@b.nl", "a••••••@b••••••"},
		{"not an email", "not-an-email", redaction},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskEmail(tt.in); got != tt.want {
				t.Errorf("MaskEmail(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// The mask must not leak the hidden value's length: two emails of very
// different sizes produce masks of identical width.
func TestMaskEmailFixedWidth(t *testing.T) {
	short := MaskEmail("a@b.nl")
	long := MaskEmail("alexander.vanderberg-jansen@international-construction-group.com")

	if utf8.RuneCountInString(short) != utf8.RuneCountInString(long) {
		t.Errorf("mask width leaks length: %q (%d runes) vs %q (%d runes)",
			short, utf8.RuneCountInString(short), long, utf8.RuneCountInString(long))
	}
}

func TestMaskPhone(t *testing.T) {
	got := MaskPhone("+31612345678", "NL")

	if !strings.HasPrefix(got, "+31") {
		t.Errorf("MaskPhone = %q, want dialing prefix +31 revealed", got)
	}
	if !strings.HasSuffix(got, "78") {
		t.Errorf("MaskPhone = %q, want last two digits revealed", got)
	}
	if strings.Contains(got, "12345") {
		t.Errorf("MaskPhone = %q, leaks middle digits", got)
	}
}

func TestMaskPhoneUnparseable(t *testing.T) {
	if got := MaskPhone("garbage", "NL"); got != redaction {
		t.Errorf("MaskPhone(garbage) = %q, want full redaction", got)
	}
}

func TestMaskDeterministic(t *testing.T) {
	first := Mask("Kees Jansen", "k.jansen@jansenbouw.nl", "+31612345678", "NL")
	second := Mask("Kees Jansen", "k.jansen@jansenbouw.nl", "+31612345678", "NL")

	if first != second {
		t.Errorf("Mask is not deterministic: %+v vs %+v", first, second)
	}
}

func TestMaskEmptyFieldsStayEmpty(t *testing.T) {
	masked := Mask("", "", "", "NL")
	if masked.ContactName != "" || masked.Email != "" || masked.Phone != "" {
		t.Errorf("empty fields should stay empty, got %+v", masked)
	}
}
