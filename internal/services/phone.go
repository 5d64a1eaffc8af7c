package services

import (
	"regexp"
	"strings"
)

var localPhonePattern = regexp.MustCompile(`^01[3-9]\d{8}$`)

var phoneStripper = strings.NewReplacer(" ", "", "\t", "", "-", "")

// NormalizePhone strips spaces and dashes. The second result reports whether the
// number matches the 11-digit local mobile format; callers log rather than reject.
func NormalizePhone(raw string) (string, bool) {
	phone := phoneStripper.Replace(raw)
	return phone, localPhonePattern.MatchString(phone)
}
