package utils

import (
	"os"
	"strings"
)

// SafeEnv returns the trimmed value of key, or fallback if it is blank.
func SafeEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// FirstEnv returns the first non-blank value among keys, or fallback.
func FirstEnv(fallback string, keys ...string) string {
	for _, k := range keys {
		if v := SafeEnv(k, ""); v != "" {
			return v
		}
	}
	return fallback
}
