// Package dynamic provides string-like values that always reflect the latest
// state of some source, such as the current locale taken from a topic.
package dynamic

import (
	"strings"

	"golang.org/x/text/language"
)

// String is a read-only string whose value is computed on every access.
type String struct {
	get func() string
}

// NewString wraps get. A nil getter yields the empty string.
func NewString(get func() string) String {
	return String{get: get}
}

// Static returns a String that never changes.
func Static(s string) String {
	return String{get: func() string { return s }}
}

// String returns the current value.
func (s String) String() string {
	if s.get == nil {
		return ""
	}
	return s.get()
}

// Equal reports whether the current value equals other.
func (s String) Equal(other string) bool {
	return s.String() == other
}

// HasPrefix reports whether the current value starts with prefix.
func (s String) HasPrefix(prefix string) bool {
	return strings.HasPrefix(s.String(), prefix)
}

// IsZero reports whether the current value is empty.
func (s String) IsZero() bool {
	return s.String() == ""
}

// Locale is a String holding a BCP 47 language tag. Values that do not parse
// fall back to a default tag.
type Locale struct {
	raw      String
	fallback language.Tag
}

// NewLocale wraps get. fallback is used while get returns an empty or
// malformed tag.
func NewLocale(get func() string, fallback language.Tag) Locale {
	return Locale{raw: NewString(get), fallback: fallback}
}

// Tag returns the current language tag.
func (l Locale) Tag() language.Tag {
	raw := strings.TrimSpace(l.raw.String())
	if raw == "" {
		return l.fallback
	}
	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil {
		return l.fallback
	}
	return tag
}

// String returns the canonical form of the current tag, e.g. "de-DE".
func (l Locale) String() string {
	return l.Tag().String()
}

// Language returns the base language of the current tag, e.g. "de".
func (l Locale) Language() string {
	base, _ := l.Tag().Base()
	return base.String()
}

// Equal reports whether the current tag equals other once both are
// canonicalized.
func (l Locale) Equal(other string) bool {
	tag, err := language.Parse(other)
	if err != nil {
		return false
	}
	return l.Tag() == tag
}

// Match returns the best of supported for the current tag.
func (l Locale) Match(supported ...language.Tag) language.Tag {
	if len(supported) == 0 {
		return l.Tag()
	}
	tag, _, _ := language.NewMatcher(supported).Match(l.Tag())
	return tag
}
