/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: count.go
Description: Lenient integer parsing for driver knobs. Command-line counts and
environment overrides are read the way C's atoi/strtol read them: the leading
integer is used and anything malformed degrades to zero instead of failing the run.
*/

package core

import (
	"math"
	"strings"
)

// ParseCount returns the leading base-10 integer of s.
// Leading whitespace and one sign are accepted, trailing garbage is ignored,
// and a string without leading digits yields 0. Values saturate at the int64 range.
func ParseCount(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	if s == "" {
		return 0
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		d := int64(c - '0')
		if n > (math.MaxInt64-d)/10 {
			if negative {
				return math.MinInt64
			}
			return math.MaxInt64
		}
		n = n*10 + d
	}

	if negative {
		return -n
	}
	return n
}

// ClampInt converts v to int, saturating on platforms where int is narrower than int64
func ClampInt(v int64) int {
	if v > math.MaxInt {
		return math.MaxInt
	}
	if v < math.MinInt {
		return math.MinInt
	}
	return int(v)
}
