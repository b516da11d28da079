package objstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPutFile_SignsAndUploads(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotBody   []byte
		gotHdr    http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotHdr = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		rw.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "worlds", "AKID", "sekrit")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	local := filepath.Join(t.TempDir(), "requests-2026-08-25.jsonl.zst")
	payload := []byte("not really zstd, but bytes travel the same")
	if err := os.WriteFile(local, payload, 0o644); err != nil {
		t.Fatalf("write local: %v", err)
	}

	if err := c.PutFile(context.Background(), "requests/requests-2026-08-25.jsonl.zst", local); err != nil {
		t.Fatalf("put: %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Fatalf("method = %s", gotMethod)
	}
	if want := "/worlds/requests/requests-2026-08-25.jsonl.zst"; gotPath != want {
		t.Fatalf("path = %s want %s", gotPath, want)
	}
	if string(gotBody) != string(payload) {
		t.Fatalf("body = %q", gotBody)
	}

	sum := sha256.Sum256(payload)
	if got := gotHdr.Get("x-amz-content-sha256"); got != hex.EncodeToString(sum[:]) {
		t.Fatalf("content sha = %s", got)
	}
	if gotHdr.Get("x-amz-date") == "" {
		t.Fatalf("missing x-amz-date")
	}
	auth := gotHdr.Get("Authorization")
	if !strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKID/") {
		t.Fatalf("authorization = %s", auth)
	}
	if !strings.Contains(auth, "SignedHeaders=host;x-amz-content-sha256;x-amz-date") {
		t.Fatalf("authorization = %s", auth)
	}
}

func TestPutFile_RejectsEscapingKeys(t *testing.T) {
	c, err := New("https://example.invalid", "b", "k", "s")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	for _, key := range []string{"", "../up", "a/../../b"} {
		if err := c.PutFile(context.Background(), key, "whatever"); err == nil {
			t.Fatalf("key %q: no error", key)
		}
	}
}

func TestPutFile_ReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, "access denied", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "worlds", "AKID", "sekrit")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	local := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(local, []byte("x"), 0o644); err != nil {
		t.Fatalf("write local: %v", err)
	}

	err = c.PutFile(context.Background(), "f", local)
	if err == nil || !strings.Contains(err.Error(), "status=403") {
		t.Fatalf("err = %v", err)
	}
}

func TestNew_RequiresAllCredentials(t *testing.T) {
	if _, err := New("", "b", "k", "s"); err == nil {
		t.Fatalf("empty endpoint accepted")
	}
	if _, err := New("example.com", "b", "", "s"); err == nil {
		t.Fatalf("empty access key accepted")
	}
}
