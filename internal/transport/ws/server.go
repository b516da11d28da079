// Package ws serves the generation protocol over a WebSocket. A client
// sends GENERATE messages and receives the chunk stream for each one as
// CHUNKS batches followed by DONE, in order, on the same connection.
package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"voxelito.dev/internal/protocol"
	"voxelito.dev/internal/transport"
)

type Server struct {
	h   *transport.Handler
	log *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(h *transport.Handler, logger *log.Logger) *Server {
	s := &Server{
		h:   h,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		remote := transport.RemoteHost(r.RemoteAddr)
		if st := s.h.Stats; st != nil {
			st.WSConnections.Add(1)
			defer st.WSConnections.Add(-1)
		}

		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if st := s.h.Stats; st != nil {
				st.WSMessages.Add(1)
			}
			s.serve(conn, remote, raw)
		}
	}
}

// serve answers one GENERATE message. Request failures become ERROR frames
// and the connection stays up for the next message; a failed write ends the
// connection through the next read.
func (s *Server) serve(conn *websocket.Conn, remote string, raw []byte) {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		s.writeError(conn, "", protocol.ErrProtoBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}
	if base.Type != protocol.TypeGenerate {
		s.writeError(conn, "", protocol.ErrProtoBadRequest, fmt.Sprintf("unexpected message type %q", base.Type))
		return
	}

	msg, rerr := s.h.Decode(raw)
	if rerr != nil {
		s.writeError(conn, msg.RequestID, rerr.Code, rerr.Message)
		return
	}
	res, rerr := s.h.Generate(remote, msg)
	if rerr != nil {
		s.writeError(conn, msg.RequestID, rerr.Code, rerr.Message)
		return
	}

	batch := s.h.Batch()
	for off, seq := 0, 0; off < len(res.Records); off, seq = off+batch, seq+1 {
		end := off + batch
		if end > len(res.Records) {
			end = len(res.Records)
		}
		out := protocol.ChunksMsg{
			Type:      protocol.TypeChunks,
			RequestID: msg.RequestID,
			Seq:       seq,
			Chunks:    res.Records[off:end],
		}
		if err := writeJSON(conn, out); err != nil {
			return
		}
	}

	done := protocol.DoneMsg{
		Type:          protocol.TypeDone,
		RequestID:     msg.RequestID,
		Seed:          res.Seed,
		Chunks:        res.Chunks,
		ShapesOK:      res.ShapesOK,
		ShapesSkipped: res.ShapesSkipped,
		ElapsedMS:     res.Elapsed.Milliseconds(),
		PaletteDigest: s.h.PaletteDigest,
	}
	_ = writeJSON(conn, done)
}

func (s *Server) writeError(conn *websocket.Conn, requestID, code, message string) {
	out := protocol.ErrorMsg{
		Type:      protocol.TypeError,
		RequestID: requestID,
		Code:      code,
		Message:   message,
	}
	if err := writeJSON(conn, out); err != nil && s.log != nil {
		s.log.Printf("ws: write error frame: %v", err)
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
