// Package rest is the one-shot HTTP frontend: POST /v1/generate returns the
// whole record list in a single response, GET /v1/palette serves the
// material table. Validation and limits are shared with the WebSocket path.
package rest

import (
	"encoding/json"
	"io"
	"net/http"

	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/protocol"
	"voxelito.dev/internal/transport"
)

// maxBody caps a request body. A full scene at the shape limit is well
// under a megabyte; anything bigger is not a generation request.
const maxBody = 4 << 20

type Server struct {
	h   *transport.Handler
	pal *palette.Palette
}

func NewServer(h *transport.Handler, pal *palette.Palette) *Server {
	return &Server{h: h, pal: pal}
}

// GenerateHandler serves POST /v1/generate.
func (s *Server) GenerateHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxBody))
		if err != nil {
			writeError(rw, http.StatusBadRequest, protocol.ErrProtoBadRequest, "read body: "+err.Error())
			return
		}

		msg, rerr := s.h.Decode(body)
		if rerr != nil {
			writeError(rw, statusFor(rerr.Code), rerr.Code, rerr.Message)
			return
		}
		res, rerr := s.h.Generate(transport.RemoteHost(r.RemoteAddr), msg)
		if rerr != nil {
			writeError(rw, statusFor(rerr.Code), rerr.Code, rerr.Message)
			return
		}

		writeJSON(rw, http.StatusOK, protocol.GenerateResponse{
			RequestID:     msg.RequestID,
			Seed:          res.Seed,
			ChunkCount:    res.Chunks,
			ShapesOK:      res.ShapesOK,
			ShapesSkipped: res.ShapesSkipped,
			ElapsedMS:     res.Elapsed.Milliseconds(),
			PaletteDigest: s.h.PaletteDigest,
			Chunks:        res.Records,
		})
	}
}

// PaletteHandler serves GET /v1/palette.
func (s *Server) PaletteHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(rw, http.StatusOK, protocol.PaletteResponse{
			Palette:   s.pal.Names,
			Digest:    s.pal.Digest,
			Materials: s.pal.Defs,
		})
	}
}

func statusFor(code string) int {
	switch code {
	case protocol.ErrRateLimit:
		return http.StatusTooManyRequests
	case protocol.ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, code, message string) {
	writeJSON(rw, status, protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Message: message})
}
