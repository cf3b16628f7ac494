package searchcache

import (
	"reflect"
	"strings"
	"unicode"
)

// namespaceFor derives a default namespace from the result type, e.g.
// []*talents.Profile becomes "talents_profile".
func namespaceFor[T any]() string {
	name := toSnake(reflect.TypeOf((*T)(nil)).Elem().String())
	if name == "" {
		return "search"
	}
	return name
}

// toSnake converts s to snake_case. Anything that is not a letter or digit
// (pointer stars, brackets, package dots) collapses into a single
// underscore, so the result is safe to use as a key prefix.
func toSnake(s string) string {
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	pendingSep := false
	sep := func() {
		if b.Len() > 0 {
			pendingSep = true
		}
	}

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					sep()
				}
			}
			if pendingSep {
				b.WriteByte('_')
				pendingSep = false
			}
			b.WriteRune(unicode.ToLower(r))

		case unicode.IsLower(r):
			if pendingSep {
				b.WriteByte('_')
				pendingSep = false
			}
			b.WriteRune(r)

		case unicode.IsDigit(r):
			if i > 0 && !unicode.IsDigit(runes[i-1]) {
				sep()
			}
			if pendingSep {
				b.WriteByte('_')
				pendingSep = false
			}
			b.WriteRune(r)

		default:
			sep()
		}
	}

	return b.String()
}
