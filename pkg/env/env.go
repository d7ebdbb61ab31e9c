// Package env reads process-level overrides that sit outside the
// validated config struct, such as the PORT a hosting runtime injects
// or the LOG_FORMAT switch the logger consults before config loads.
package env

import "os"

// Get returns the named variable, or the fallback when unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
