package indexdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/transport"
)

// RemoteConfig points a RemoteIndex at an HTTP ingest endpoint. Instance
// names this server in the pushed entries so one collector can serve a
// whole fleet.
type RemoteConfig struct {
	Endpoint      string
	Token         string
	Instance      string
	BatchSize     int
	FlushInterval time.Duration
	HTTPTimeout   time.Duration
	Logger        *log.Logger
}

// RemoteIndex mirrors generation records to an HTTP collector. Same contract
// as the SQLite index: enqueue never blocks, delivery is best effort.
type RemoteIndex struct {
	cfg        RemoteConfig
	httpClient *http.Client

	ch   chan remoteEntry
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Int64
}

type remoteEntry struct {
	Instance      string `json:"instance,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	ReceivedAt    string `json:"received_at"`
	Kind          string `json:"kind"`
	SceneDigest   string `json:"scene_digest,omitempty"`
	Seed          int64  `json:"seed"`
	Chunks        int    `json:"chunks"`
	ShapesOK      int    `json:"shapes_ok"`
	ShapesSkipped int    `json:"shapes_skipped"`
	DurationMS    int64  `json:"duration_ms"`
	Remote        string `json:"remote,omitempty"`
}

func OpenRemote(cfg RemoteConfig) (*RemoteIndex, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("empty ingest endpoint")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 128
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}

	r := &RemoteIndex{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		ch: make(chan remoteEntry, 8192),
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop()
	}()

	return r, nil
}

func (r *RemoteIndex) Close() error {
	if r == nil {
		return nil
	}
	r.once.Do(func() {
		r.closed.Store(true)
		close(r.ch)
		r.wg.Wait()
	})
	return nil
}

func (r *RemoteIndex) WriteGeneration(entry transport.GenerationEntry) error {
	if r == nil || r.closed.Load() {
		return nil
	}
	e := remoteEntry{
		Instance:      r.cfg.Instance,
		RequestID:     entry.RequestID,
		ReceivedAt:    entry.ReceivedAt.UTC().Format(time.RFC3339Nano),
		Kind:          entry.Kind,
		SceneDigest:   entry.SceneDigest,
		Seed:          entry.Seed,
		Chunks:        entry.Chunks,
		ShapesOK:      entry.ShapesOK,
		ShapesSkipped: entry.ShapesSkipped,
		DurationMS:    entry.DurationMS,
		Remote:        entry.Remote,
	}
	select {
	case r.ch <- e:
	default:
		r.dropped.Add(1)
		r.printf("remote index queue full; drop request_id=%s", entry.RequestID)
	}
	return nil
}

func (r *RemoteIndex) Stats() QueueStats {
	if r == nil {
		return QueueStats{}
	}
	return QueueStats{Depth: len(r.ch), DropTotal: r.dropped.Load()}
}

// UpsertPalette is a no-op for the remote backend. The collector keeps its
// own material tables; pushed entries already carry scene digests.
func (r *RemoteIndex) UpsertPalette(*palette.Palette) error { return nil }

func (r *RemoteIndex) loop() {
	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]remoteEntry, 0, r.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := r.sendBatch(batch); err != nil {
			r.printf("remote index flush failed batch=%d err=%v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case e, ok := <-r.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, e)
			if len(batch) >= r.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (r *RemoteIndex) sendBatch(entries []remoteEntry) error {
	if len(entries) == 0 {
		return nil
	}

	body := struct {
		Entries []remoteEntry `json:"entries"`
	}{Entries: entries}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequest(http.MethodPost, r.cfg.Endpoint, bytes.NewReader(buf))
		if err != nil {
			return err
		}
		req.Header.Set("content-type", "application/json")
		if r.cfg.Token != "" {
			req.Header.Set("x-vx-index-token", r.cfg.Token)
		}

		resp, err := r.httpClient.Do(req)
		if err == nil {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			err = fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		lastErr = err
		time.Sleep(time.Duration(100*(1<<attempt)) * time.Millisecond)
	}
	return lastErr
}

func (r *RemoteIndex) printf(format string, args ...any) {
	if r != nil && r.cfg.Logger != nil {
		r.cfg.Logger.Printf(format, args...)
	}
}
