package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func lower(s string) string {
	return strings.ToLower(s)
}

func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func collapseSpaces(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// SanitizeText is used for client names, vessel names, usernames and berth status.
func SanitizeText(input string) string {
	return Pipeline{dropControl, collapseSpaces}.Apply(input)
}

// SanitizeEmail case-folds so that uniqueness checks are case-insensitive.
func SanitizeEmail(input string) string {
	return Pipeline{strings.TrimSpace, lower}.Apply(input)
}

func SanitizeEnum(input string) string {
	return Pipeline{collapseSpaces, lower}.Apply(input)
}
