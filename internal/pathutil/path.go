// Package pathutil provides helpers for slash-separated archive member names.
package pathutil

import "strings"

// TrimDir returns a directory member name without its trailing slashes.
// The root entry "/" is returned unchanged.
func TrimDir(name string) string {
	if trimmed := strings.TrimRight(name, "/"); trimmed != "" {
		return trimmed
	}
	return name
}
