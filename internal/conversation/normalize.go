package conversation

import (
	"regexp"
	"strings"
)

var (
	// Spoken "at the rate of" / "at the rate" collapse to "@". The optional
	// "of" group keeps the longer phrase from being half-consumed by the
	// shorter one.
	atTheRateRe = regexp.MustCompile(`at\s*the\s*rate(\s*of)?`)
	// Whitespace-delimited "at", including at the start or end of the input.
	spacedAtRe   = regexp.MustCompile(`(^|\s)at(\s|$)`)
	gMailRe      = regexp.MustCompile(`g\s*mail`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nonPhoneRe = regexp.MustCompile(`[^\d+]`)
	nonDigitRe = regexp.MustCompile(`[^\d]`)
)

// affirmations are matched as substrings, so "not sure, but ok" reads as
// positive. Deliberately permissive: transcription rarely yields a clean "yes".
var affirmations = []string{
	"yes", "yeah", "yep", "correct", "right", "that's right", "that is right",
	"ok", "okay", "sure", "yup", "affirmative", "confirm",
}

// NormalizeEmail converts a speech-to-text transcription of an email address
// into a canonical form: "john at the rate of gmail dot com" becomes
// "john@gmail.com". The result is not guaranteed to be a valid address;
// IsValidEmail is a separate check.
func NormalizeEmail(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))

	s = atTheRateRe.ReplaceAllString(s, "@")
	s = spacedAtRe.ReplaceAllString(s, "@")
	s = gMailRe.ReplaceAllString(s, "gmail")
	s = whitespaceRe.ReplaceAllString(s, "")

	// Some transcriptions concatenate everything ("johnatgmaildotcom").
	// If no separator survived, treat the first bare "at" as one.
	if !strings.Contains(s, "@") {
		if i := strings.Index(s, "at"); i >= 0 {
			s = s[:i] + "@" + s[i+2:]
		}
	}

	s = strings.ReplaceAll(s, "dot", ".")
	return s
}

// IsValidEmail reports whether a normalized email is structurally valid:
// local part, "@", domain, and a final label of two or more letters.
func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// NormalizePhone strips everything except digits and "+".
func NormalizePhone(text string) string {
	return nonPhoneRe.ReplaceAllString(text, "")
}

// IsValidPhone reports whether the input contains 10 to 15 digits once all
// non-digit characters are removed.
func IsValidPhone(phone string) bool {
	n := len(nonDigitRe.ReplaceAllString(phone, ""))
	return n >= 10 && n <= 15
}

// IsAffirmative classifies free text as a positive confirmation. Anything
// without an affirmative token is treated as negative; there is no explicit
// negative-word detection.
func IsAffirmative(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, word := range affirmations {
		if strings.Contains(t, word) {
			return true
		}
	}
	return false
}
