// Package utils provides utility functions for the application.
package utils

import (
	"net/url"
	"strings"
)

const dicebearBackground = "b6e3f4,c0aede,d1d4f9"

func ToPtr[T any](v T) *T {
	return &v
}

func IsTrue(b *bool) bool {
	return b != nil && *b
}

// DerefString returns the pointed-to string or "".
func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// InitialsAvatarURL builds the generated initials avatar for a display name.
func InitialsAvatarURL(name string) string {
	return "https://api.dicebear.com/9.x/initials/png?seed=" + url.QueryEscape(strings.TrimSpace(name)) +
		"&backgroundColor=" + url.QueryEscape(dicebearBackground)
}
