// Package env reads process environment variables with fallbacks.
package env

import "os"

// Get looks up key in the process environment, returning fallback when the
// variable is unset or empty.
func Get(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
