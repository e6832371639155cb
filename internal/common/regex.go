package common

import (
	"fmt"
	"regexp"
)

// Pattern is a compile-or-reject regular expression wrapper. Matching never
// fails: a pattern that did not compile matches nothing.
type Pattern struct {
	re  *regexp.Regexp
	raw string
}

// CompilePattern compiles a pattern, rejecting invalid input. Use at
// registration time so broken patterns are caught before evaluation.
func CompilePattern(raw string) (Pattern, error) {
	re, err := regexp.Compile(raw)
	if err != nil {
		return Pattern{raw: raw}, fmt.Errorf("%w %q: %v", ErrInvalidPattern, raw, err)
	}
	return Pattern{re: re, raw: raw}, nil
}

// LenientPattern compiles a pattern, degrading invalid input to a
// never-matching pattern instead of returning an error. Use at evaluation
// time, where a broken pattern must mean "does not apply", not a crash.
func LenientPattern(raw string) Pattern {
	p, _ := CompilePattern(raw)
	return p
}

// Matches reports whether the pattern matches the text. Invalid patterns
// match nothing.
func (p Pattern) Matches(text string) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(text)
}

// String returns the original pattern source.
func (p Pattern) String() string {
	return p.raw
}
