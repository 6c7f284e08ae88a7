// Package env reads raw process environment variables. Application settings
// flow through pkg/config; this covers the few lookups needed before the
// config is loaded, such as the logger's output format.
package env

import "os"

// Get returns the variable's value, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
