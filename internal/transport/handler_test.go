package transport

import (
	"encoding/json"
	"testing"

	"voxelito.dev/internal/gen"
	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/tuning"
	"voxelito.dev/internal/protocol"
)

func newHandler() *Handler {
	pal := palette.Default()
	return &Handler{
		Engine:        gen.NewEngine(pal, tuning.Defaults(), nil),
		Stats:         &Stats{},
		PaletteDigest: pal.Digest,
	}
}

func TestDecode_VersionMismatch(t *testing.T) {
	h := newHandler()
	_, rerr := h.Decode([]byte(`{"protocol_version":"2.0","intent":"city"}`))
	if rerr == nil || rerr.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("rerr = %v, want %s", rerr, protocol.ErrProtoBadRequest)
	}
}

func TestDecode_NoSchemaStillParses(t *testing.T) {
	h := newHandler()
	msg, rerr := h.Decode([]byte(`{"protocol_version":"1.0","intent":"forest","seed":12}`))
	if rerr != nil {
		t.Fatalf("decode: %v", rerr)
	}
	if msg.Intent != "forest" || msg.Seed != 12 {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestBatch_Default(t *testing.T) {
	h := &Handler{}
	if h.Batch() != 64 {
		t.Fatalf("default batch = %d, want 64", h.Batch())
	}
	h.BatchChunks = 7
	if h.Batch() != 7 {
		t.Fatalf("batch = %d, want 7", h.Batch())
	}
}

func TestGenerate_CountsStats(t *testing.T) {
	h := newHandler()
	msg, rerr := h.Decode([]byte(`{"protocol_version":"1.0","intent":"village","seed":5}`))
	if rerr != nil {
		t.Fatalf("decode: %v", rerr)
	}
	out, rerr := h.Generate("10.0.0.9", msg)
	if rerr != nil {
		t.Fatalf("generate: %v", rerr)
	}
	if out.Chunks == 0 || len(out.Records) != out.Chunks {
		t.Fatalf("outcome = %+v", out)
	}

	m := h.Stats.Snapshot()
	if m.Requests != 1 || m.Generations != 1 || m.Rejected != 0 {
		t.Fatalf("metrics = %+v", m)
	}
	if m.Chunks != int64(out.Chunks) {
		t.Fatalf("chunk counter = %d, want %d", m.Chunks, out.Chunks)
	}
	if m.GenerateNanos <= 0 {
		t.Fatalf("generate nanos = %d", m.GenerateNanos)
	}
}

func TestGenerate_SceneDigestIsStable(t *testing.T) {
	scene := []json.RawMessage{
		json.RawMessage(`{"type":"box","position":[0,0,0],"size":[1,1,1],"material":"stone"}`),
	}
	entries := &captureLogger{}
	h := newHandler()
	h.Index = entries

	for i := 0; i < 2; i++ {
		if _, rerr := h.Generate("host", protocol.GenerateMsg{ProtocolVersion: protocol.Version, Scene: scene}); rerr != nil {
			t.Fatalf("generate %d: %v", i, rerr)
		}
	}
	if len(entries.got) != 2 {
		t.Fatalf("logged %d entries, want 2", len(entries.got))
	}
	if entries.got[0].SceneDigest != entries.got[1].SceneDigest {
		t.Fatalf("same scene hashed to %q and %q", entries.got[0].SceneDigest, entries.got[1].SceneDigest)
	}
	if len(entries.got[0].SceneDigest) != 64 {
		t.Fatalf("digest = %q", entries.got[0].SceneDigest)
	}
}

type captureLogger struct {
	got []GenerationEntry
}

func (c *captureLogger) WriteGeneration(e GenerationEntry) error {
	c.got = append(c.got, e)
	return nil
}

func TestRemoteHost(t *testing.T) {
	for in, want := range map[string]string{
		"192.0.2.7:41234":  "192.0.2.7",
		"[2001:db8::1]:80": "2001:db8::1",
		"192.0.2.7":        "192.0.2.7",
		"":                 "",
	} {
		if got := RemoteHost(in); got != want {
			t.Fatalf("RemoteHost(%q) = %q, want %q", in, got, want)
		}
	}
}
