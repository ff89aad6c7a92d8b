// Package sanitize coerces untrusted client input into bounded,
// whitespace-normalized strings safe to use as map keys and log fields.
package sanitize

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Text converts any value to its string form, collapses whitespace runs
// to single spaces, trims, and truncates to max runes. It never fails;
// nil yields "".
func Text(v any, max int) string {
	s := stringify(v)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if max > 0 {
		r := []rune(s)
		if len(r) > max {
			s = string(r[:max])
		}
	}
	return s
}

// Key is Text lower-cased, for use as a collision-safe mapping key.
func Key(v any, max int) string {
	return strings.ToLower(Text(v, max))
}

// stringify renders the value the way it appeared on the wire. JSON
// numbers decode as float64, so integral values must not pick up a
// trailing ".0" or exponent form.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
