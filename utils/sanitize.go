package utils

import (
	"reflect"
	"strings"
)

// Sanitize trims surrounding whitespace and strips escaping backslashes.
// HTML encoding is left to the template layer so values are encoded once.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// SanitizeFields runs Sanitize over every exported string field of the
// struct pointed to by v. Fields tagged `sanitize:"-"` are left alone.
func SanitizeFields(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	rv = rv.Elem()
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		if field.Kind() != reflect.String || !field.CanSet() {
			continue
		}
		if rt.Field(i).Tag.Get("sanitize") == "-" {
			continue
		}
		field.SetString(Sanitize(field.String()))
	}
}
