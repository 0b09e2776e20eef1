package toolutil

import (
	"testing"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

func TestNormFormat(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "text"},
		{"  ", "text"},
		{"Markdown", "markdown"},
		{" json ", "json"},
		{"pdf", "pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormFormat(tt.in); got != tt.want {
				t.Errorf("NormFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBoolOr(t *testing.T) {
	yes, no := true, false
	if !BoolOr(nil, true) || BoolOr(nil, false) {
		t.Error("nil should return the default")
	}
	if !BoolOr(&yes, false) || BoolOr(&no, true) {
		t.Error("set value should win over the default")
	}
}

func TestCacheJSONRoundTrip(t *testing.T) {
	engine.InitCache(time.Minute, 10, time.Minute)
	defer engine.InitCache(0, 0, 0)

	type info struct {
		Title string `json:"title"`
	}
	key := engine.CacheKey("video_info", "abc")
	if _, ok := CacheLoadJSON[info](key); ok {
		t.Fatal("unexpected hit before store")
	}
	CacheStoreJSON(key, info{Title: "T"})
	got, ok := CacheLoadJSON[info](key)
	if !ok || got.Title != "T" {
		t.Errorf("CacheLoadJSON = %+v, %v", got, ok)
	}

	engine.CacheSet(key, []byte("not json"))
	if _, ok := CacheLoadJSON[info](key); ok {
		t.Error("decode error should be a miss")
	}
}
