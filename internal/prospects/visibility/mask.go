// Package visibility derives redacted prospect views. All functions are
// pure and deterministic: same record, same mask, no I/O.
//
// Redaction is fixed width on purpose. Echoing the true field length in
// the mask would leak information about the hidden value.
package visibility

import (
	"strings"

	"leadgate_backend/platform/phone"
)

// redaction is the fixed-width glyph run used for every hidden segment.
const redaction = "••••••"

// MaskedContact holds the redacted contact fields of a prospect.
type MaskedContact struct {
	ContactName string
	Email       string
	Phone       string
}

// Mask redacts the contact fields. Empty fields stay empty so the caller
// can distinguish "missing" from "hidden". region is the phone numbering
// region used to parse the number.
func Mask(name, email, phoneNumber, region string) MaskedContact {
	return MaskedContact{
		ContactName: MaskName(name),
		Email:       MaskEmail(email),
		Phone:       MaskPhone(phoneNumber, region),
	}
}

// MaskName reveals the first character of the first and last name token.
func MaskName(name string) string {
	tokens := strings.Fields(name)
	switch len(tokens) {
	case 0:
		return ""
	case 1:
		return firstRune(tokens[0]) + redaction
	default:
		return firstRune(tokens[0]) + redaction + " " + firstRune(tokens[len(tokens)-1]) + redaction
	}
}

// MaskEmail reveals the first character of the local part and of the
// domain. Anything that does not look like an email is fully redacted.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}

	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return redaction
	}

	local := email[:at]
	domain := email[at+1:]
	return firstRune(local) + redaction + "@" + firstRune(domain) + redaction
}

// MaskPhone reveals the dialing prefix and the last two digits.
func MaskPhone(number, region string) string {
	if strings.TrimSpace(number) == "" {
		return ""
	}

	prefix, national, ok := phone.Parts(number, region)
	if !ok || len(national) < 2 {
		return redaction
	}

	return prefix + " " + redaction + national[len(national)-2:]
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
