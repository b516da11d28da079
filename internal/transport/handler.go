// Package transport holds the request pipeline shared by the REST and
// WebSocket frontends: payload validation, rate limiting, dispatch into the
// generation engine and bookkeeping around it. The frontends only differ in
// framing; everything that decides whether a request runs lives here.
package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"voxelito.dev/internal/gen"
	"voxelito.dev/internal/protocol"
	"voxelito.dev/internal/ratelimit"
)

// GenerationEntry is one serviced request, as recorded by the index
// database and the JSONL request log.
type GenerationEntry struct {
	RequestID     string    `json:"request_id,omitempty"`
	ReceivedAt    time.Time `json:"received_at"`
	Kind          string    `json:"kind"` // "scene" or the intent token
	SceneDigest   string    `json:"scene_digest,omitempty"`
	Seed          int64     `json:"seed"`
	Chunks        int       `json:"chunks"`
	ShapesOK      int       `json:"shapes_ok"`
	ShapesSkipped int       `json:"shapes_skipped"`
	DurationMS    int64     `json:"duration_ms"`
	Remote        string    `json:"remote,omitempty"`
}

// GenerationLogger receives finished request records. Implementations should
// hand the entry off quickly; the request path calls this inline.
type GenerationLogger interface {
	WriteGeneration(entry GenerationEntry) error
}

// RequestError pairs a protocol error code with a client-facing message.
// The REST frontend maps the code to an HTTP status; the WebSocket frontend
// puts it in an ERROR frame.
type RequestError struct {
	Code    string
	Message string
}

func (e *RequestError) Error() string { return e.Code + ": " + e.Message }

func reqErr(code, format string, args ...any) *RequestError {
	return &RequestError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Handler validates and runs GENERATE requests.
type Handler struct {
	Engine  *gen.Engine
	Schema  *jsonschema.Schema // nil skips schema validation
	Limiter *ratelimit.Limiter // nil disables rate limiting
	Index   GenerationLogger   // nil disables request logging
	Stats   *Stats
	Log     *log.Logger

	PaletteDigest string
	MaxShapes     int
	BatchChunks   int
}

// Batch returns the chunk batch size for streaming responses.
func (h *Handler) Batch() int {
	if h.BatchChunks <= 0 {
		return 64
	}
	return h.BatchChunks
}

var discardStats Stats

func (h *Handler) stats() *Stats {
	if h.Stats == nil {
		return &discardStats
	}
	return h.Stats
}

// Decode parses a raw GENERATE payload, runs it through the request schema
// and checks the protocol version. Failures carry E_PROTO_BAD_REQUEST.
func (h *Handler) Decode(raw []byte) (protocol.GenerateMsg, *RequestError) {
	var msg protocol.GenerateMsg
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return msg, reqErr(protocol.ErrProtoBadRequest, "invalid json: %v", err)
	}
	if h.Schema != nil {
		if err := h.Schema.Validate(doc); err != nil {
			return msg, reqErr(protocol.ErrProtoBadRequest, "request rejected by schema: %v", err)
		}
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, reqErr(protocol.ErrProtoBadRequest, "invalid request: %v", err)
	}
	if msg.ProtocolVersion != protocol.Version {
		return msg, reqErr(protocol.ErrProtoBadRequest,
			"unsupported protocol_version %q (server speaks %q)", msg.ProtocolVersion, protocol.Version)
	}
	return msg, nil
}

// Outcome is a finished generation plus how long it took.
type Outcome struct {
	gen.Result
	Elapsed time.Duration
}

// Generate runs a decoded request. remote keys the rate limiter; use the
// client address without the port so reconnects share a window.
func (h *Handler) Generate(remote string, msg protocol.GenerateMsg) (Outcome, *RequestError) {
	h.stats().Requests.Add(1)
	if h.Limiter != nil {
		if ok, retryIn := h.Limiter.Allow(remote); !ok {
			h.stats().RateLimited.Add(1)
			return Outcome{}, reqErr(protocol.ErrRateLimit,
				"rate limit exceeded, retry in %s", retryIn.Round(time.Second))
		}
	}

	start := time.Now()
	var (
		res  gen.Result
		kind string
	)
	// An empty scene list is a valid (if pointless) request; only a request
	// carrying neither field, or both, is malformed.
	switch {
	case msg.Intent != "" && msg.Scene != nil:
		h.stats().Rejected.Add(1)
		return Outcome{}, reqErr(protocol.ErrBadRequest, "intent and scene are mutually exclusive")
	case msg.Intent == "" && msg.Scene == nil:
		h.stats().Rejected.Add(1)
		return Outcome{}, reqErr(protocol.ErrBadRequest, "request needs an intent or a scene")
	case msg.Intent != "":
		kind = msg.Intent
		r, err := h.Engine.Intent(msg.Intent, msg.Seed)
		if err != nil {
			if errors.Is(err, gen.ErrUnknownIntent) {
				h.stats().Rejected.Add(1)
				return Outcome{}, reqErr(protocol.ErrUnknownIntent, "%v", err)
			}
			h.stats().Errors.Add(1)
			return Outcome{}, reqErr(protocol.ErrInternal, "generation failed")
		}
		res = r
	default:
		kind = "scene"
		if h.MaxShapes > 0 && len(msg.Scene) > h.MaxShapes {
			h.stats().Rejected.Add(1)
			return Outcome{}, reqErr(protocol.ErrBadRequest,
				"scene has %d shapes, limit is %d", len(msg.Scene), h.MaxShapes)
		}
		res = h.Engine.Scene(msg.Scene)
	}
	elapsed := time.Since(start)

	h.stats().Generations.Add(1)
	h.stats().Chunks.Add(int64(res.Chunks))
	h.stats().ShapesSkipped.Add(int64(res.ShapesSkipped))
	h.stats().GenerateNanos.Add(elapsed.Nanoseconds())

	if h.Index != nil {
		entry := GenerationEntry{
			RequestID:     msg.RequestID,
			ReceivedAt:    start,
			Kind:          kind,
			Seed:          res.Seed,
			Chunks:        res.Chunks,
			ShapesOK:      res.ShapesOK,
			ShapesSkipped: res.ShapesSkipped,
			DurationMS:    elapsed.Milliseconds(),
			Remote:        remote,
		}
		if kind == "scene" {
			entry.SceneDigest = sceneDigest(msg.Scene)
		}
		if err := h.Index.WriteGeneration(entry); err != nil && h.Log != nil {
			h.Log.Printf("indexdb: write generation: %v", err)
		}
	}
	return Outcome{Result: res, Elapsed: elapsed}, nil
}

// sceneDigest fingerprints the raw scene entries so repeated submissions of
// the same scene collate in the index.
func sceneDigest(scene []json.RawMessage) string {
	hsh := sha256.New()
	for _, raw := range scene {
		hsh.Write(raw)
		hsh.Write([]byte{'\n'})
	}
	return hex.EncodeToString(hsh.Sum(nil))
}

// RemoteHost strips the port from a client address so reconnects from the
// same host share one rate-limit window.
func RemoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
