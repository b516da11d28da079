package protocol

import (
	"encoding/json"

	"voxelito.dev/internal/gen/encoding"
	"voxelito.dev/internal/gen/palette"
)

// GENERATE (client -> server). Also the POST /v1/generate request body.
// Exactly one of Intent or Scene should be set; the server rejects requests
// carrying both or neither.
type GenerateMsg struct {
	Type            string            `json:"type,omitempty"`
	ProtocolVersion string            `json:"protocol_version"`
	RequestID       string            `json:"request_id,omitempty"`
	Intent          string            `json:"intent,omitempty"`
	Seed            int64             `json:"seed,omitempty"`
	Scene           []json.RawMessage `json:"scene,omitempty"`
}

// CHUNKS (server -> client). One batch of chunk records; Seq starts at 0
// and increments per batch within a request.
type ChunksMsg struct {
	Type      string                 `json:"type"`
	RequestID string                 `json:"request_id,omitempty"`
	Seq       int                    `json:"seq"`
	Chunks    []encoding.ChunkRecord `json:"chunks"`
}

// DONE (server -> client) closes a request stream.
type DoneMsg struct {
	Type          string `json:"type"`
	RequestID     string `json:"request_id,omitempty"`
	Seed          int64  `json:"seed"`
	Chunks        int    `json:"chunks"`
	ShapesOK      int    `json:"shapes_ok"`
	ShapesSkipped int    `json:"shapes_skipped"`
	ElapsedMS     int64  `json:"elapsed_ms"`
	PaletteDigest string `json:"palette_digest,omitempty"`
}

// ERROR (server -> client).
type ErrorMsg struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// GenerateResponse is the POST /v1/generate response body: the full record
// list plus the DONE summary fields.
type GenerateResponse struct {
	RequestID     string                 `json:"request_id,omitempty"`
	Seed          int64                  `json:"seed"`
	ChunkCount    int                    `json:"chunk_count"`
	ShapesOK      int                    `json:"shapes_ok"`
	ShapesSkipped int                    `json:"shapes_skipped"`
	ElapsedMS     int64                  `json:"elapsed_ms"`
	PaletteDigest string                 `json:"palette_digest,omitempty"`
	Chunks        []encoding.ChunkRecord `json:"chunks"`
}

// PaletteResponse is the GET /v1/palette response body.
type PaletteResponse struct {
	Palette   []string           `json:"palette"`
	Digest    string             `json:"digest"`
	Materials []palette.Material `json:"materials"`
}
