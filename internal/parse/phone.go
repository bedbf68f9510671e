package parse

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	spaceRe       = regexp.MustCompile(`\s+`)
	countryCodeRe = regexp.MustCompile(`^\+\d{1,4}$`)
	subscriberRe  = regexp.MustCompile(`^\d{6,14}$`)
	otpCodeRe     = regexp.MustCompile(`^\d{6}$`)
)

// PhoneNumber joins a dialling code and a local number into the single
// string the OTP backend expects, e.g. ("+91", "98765 43210") -> "+919876543210".
func PhoneNumber(countryCode, number string) (string, error) {
	cc := strings.TrimSpace(countryCode)
	if !strings.HasPrefix(cc, "+") {
		cc = "+" + cc
	}
	if !countryCodeRe.MatchString(cc) {
		return "", fmt.Errorf("invalid country code %q", countryCode)
	}

	digits := spaceRe.ReplaceAllString(number, "")
	if !subscriberRe.MatchString(digits) {
		return "", fmt.Errorf("invalid phone number %q", number)
	}
	return cc + digits, nil
}

// IsOTPCode reports whether code looks like a six digit passcode.
func IsOTPCode(code string) bool {
	return otpCodeRe.MatchString(code)
}
