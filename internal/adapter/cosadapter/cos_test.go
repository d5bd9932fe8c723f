package cosadapter

import (
	"context"
	"hash/crc64"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gowvp/pothole/internal/conf"
)

func TestPut(t *testing.T) {
	var gotPath, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("x-cos-hash-crc64ecma", crc64ECMA(b))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := conf.DefaultConfig().Upload
	cfg.Driver = "cos"
	cfg.Endpoint = srv.URL
	cfg.AccessKey, cfg.SecretKey = "id", "key"
	s, err := NewStorage(&cfg)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "pothole_1.json")
	if err := os.WriteFile(path, []byte(`{"frame_count":2}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(context.Background(), "2024-05-01/pothole_1.json", path); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/2024-05-01/pothole_1.json" {
		t.Errorf("path = %s", gotPath)
	}
	if gotType != "application/json" {
		t.Errorf("content type = %s", gotType)
	}
	if gotBody != `{"frame_count":2}` {
		t.Errorf("body = %s", gotBody)
	}
}

func crc64ECMA(b []byte) string {
	return strconv.FormatUint(crc64.Checksum(b, crc64.MakeTable(crc64.ECMA)), 10)
}

func TestPutChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.ReadAll(r.Body)
		// 服务端收到的内容与本地不一致
		w.Header().Set("x-cos-hash-crc64ecma", crc64ECMA([]byte("truncated")))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := conf.DefaultConfig().Upload
	cfg.Endpoint = srv.URL
	s, err := NewStorage(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "pothole_1.avi")
	if err := os.WriteFile(path, []byte("video frames"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(context.Background(), "2024-05-01/pothole_1.avi", path); err == nil {
		t.Fatal("expected checksum verification error")
	}
}

func TestPutServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := conf.DefaultConfig().Upload
	cfg.Endpoint = srv.URL
	s, err := NewStorage(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "a.jpg")
	_ = os.WriteFile(path, []byte("x"), 0o644)
	if err := s.Put(context.Background(), "k/a.jpg", path); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestNewStorageInvalidURL(t *testing.T) {
	cfg := conf.DefaultConfig().Upload
	cfg.Endpoint = "fly.storage.tigris.dev"
	if _, err := NewStorage(&cfg); err == nil {
		t.Fatal("expected error for url without scheme")
	}
}
