package env

import "os"

// Get returns the value of the given environment variable, falling back
// when it is unset or empty.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
