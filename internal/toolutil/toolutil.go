// Package toolutil provides shared helper functions for the transcript tools.
package toolutil

import (
	"encoding/json"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// NormFormat normalises an output format field: trimmed, lower-case, empty → "text".
func NormFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return "text"
	}
	return format
}

// BoolOr dereferences b, or returns def when b is nil.
func BoolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// CacheLoadJSON tries to load a cached value of type T from the engine cache.
// Returns the decoded value and true on hit; zero value and false on miss or decode error.
func CacheLoadJSON[T any](key string) (T, bool) {
	cached, ok := engine.CacheGet(key)
	if !ok {
		var zero T
		return zero, false
	}
	var out T
	if err := json.Unmarshal(cached, &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// CacheStoreJSON marshals v and stores it in the engine cache.
func CacheStoreJSON[T any](key string, v T) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	engine.CacheSet(key, data)
}
