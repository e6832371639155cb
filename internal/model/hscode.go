// Package model defines the core domain models used throughout the application.
package model

import "strings"

// HSCode is a Harmonized System tariff classification code, commonly 6-10
// digits with optional dot separators (e.g. "8517.12.00").
type HSCode string

// Digits returns the code with separators stripped.
func (c HSCode) Digits() string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, string(c))
}

// Chapter returns the first two digits of the code, or "" if the code is too
// short.
func (c HSCode) Chapter() string {
	d := c.Digits()
	if len(d) < 2 {
		return ""
	}
	return d[:2]
}

// Heading returns the first four digits of the code, or the full digit string
// when shorter.
func (c HSCode) Heading() string {
	d := c.Digits()
	if len(d) < 4 {
		return d
	}
	return d[:4]
}

// IsEmpty reports whether the code contains no digits.
func (c HSCode) IsEmpty() bool {
	return c.Digits() == ""
}
