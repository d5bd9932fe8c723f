package s3adapter

import (
	"testing"

	"github.com/gowvp/pothole/internal/conf"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw        string
		secure     bool
		wantHost   string
		wantSecure bool
	}{
		{"fly.storage.tigris.dev", true, "fly.storage.tigris.dev", true},
		{"https://fly.storage.tigris.dev", false, "fly.storage.tigris.dev", true},
		{"http://127.0.0.1:9000/", true, "127.0.0.1:9000", false},
	}
	for _, tc := range tests {
		host, secure := ParseEndpoint(tc.raw, tc.secure)
		if host != tc.wantHost || secure != tc.wantSecure {
			t.Errorf("ParseEndpoint(%q) = %q, %v", tc.raw, host, secure)
		}
	}
}

func TestNewStorageRequiresBucket(t *testing.T) {
	cfg := conf.DefaultConfig().Upload
	cfg.Bucket = ""
	if _, err := NewStorage(&cfg); err == nil {
		t.Fatal("expected error without bucket")
	}
	cfg.Bucket = "pothole-images"
	if _, err := NewStorage(&cfg); err != nil {
		t.Fatal(err)
	}
}
