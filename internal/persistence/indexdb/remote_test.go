package indexdb

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"voxelito.dev/internal/transport"
)

func TestRemoteIndex_PushesBatches(t *testing.T) {
	var (
		mu     sync.Mutex
		got    []remoteEntry
		tokens []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Entries []remoteEntry `json:"entries"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("bad batch body: %v", err)
		}
		mu.Lock()
		got = append(got, payload.Entries...)
		tokens = append(tokens, r.Header.Get("x-vx-index-token"))
		mu.Unlock()
		rw.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	idx, err := OpenRemote(RemoteConfig{
		Endpoint: srv.URL,
		Token:    "secret",
		Instance: "gen-1",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	at := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"a", "b", "c"} {
		_ = idx.WriteGeneration(transport.GenerationEntry{
			RequestID:  id,
			ReceivedAt: at,
			Kind:       "city",
			Seed:       7,
			Chunks:     5,
			DurationMS: 10,
		})
	}
	// Close flushes whatever is still queued.
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Fatalf("collector got %d entries, want 3", len(got))
	}
	if got[0].Instance != "gen-1" || got[0].Kind != "city" || got[0].ReceivedAt != "2026-08-25T12:00:00Z" {
		t.Fatalf("entry = %+v", got[0])
	}
	for _, tok := range tokens {
		if tok != "secret" {
			t.Fatalf("token header = %q", tok)
		}
	}
}

func TestRemoteIndex_RetriesFailedFlush(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts int
		received int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		fail := attempts <= 2
		mu.Unlock()
		if fail {
			http.Error(rw, "try later", http.StatusServiceUnavailable)
			return
		}
		var payload struct {
			Entries []remoteEntry `json:"entries"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		mu.Lock()
		received += len(payload.Entries)
		mu.Unlock()
		rw.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	idx, err := OpenRemote(RemoteConfig{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = idx.WriteGeneration(transport.GenerationEntry{RequestID: "r", ReceivedAt: time.Now()})
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	if received != 1 {
		t.Fatalf("received = %d, want 1", received)
	}
}

func TestOpenRemote_RequiresEndpoint(t *testing.T) {
	if _, err := OpenRemote(RemoteConfig{}); err == nil {
		t.Fatalf("expected an error for an empty endpoint")
	}
}
