package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"voxelito.dev/internal/gen/encoding"
	"voxelito.dev/internal/gen/voxel"
	"voxelito.dev/internal/protocol"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		intent   = flag.String("intent", "city", "layout intent to request")
		seed     = flag.Int64("seed", 0, "generation seed (0 lets the server pick)")
		count    = flag.Int("n", 1, "requests to send")
		interval = flag.Duration("interval", 0, "pause between requests")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[probe] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	var totalChunks, totalVoxels int
	for i := 0; i < *count; i++ {
		select {
		case <-stop:
			return
		default:
		}
		if i > 0 && *interval > 0 {
			time.Sleep(*interval)
		}

		reqID := fmt.Sprintf("probe-%d", i)
		req := protocol.GenerateMsg{
			Type:            protocol.TypeGenerate,
			ProtocolVersion: protocol.Version,
			RequestID:       reqID,
			Intent:          *intent,
			Seed:            *seed,
		}
		start := time.Now()
		if err := conn.WriteJSON(req); err != nil {
			logger.Fatalf("send GENERATE: %v", err)
		}

		chunks, voxels, err := readStream(conn, logger, reqID, start)
		if err != nil {
			logger.Fatalf("%s: %v", reqID, err)
		}
		totalChunks += chunks
		totalVoxels += voxels
	}
	logger.Printf("probe ok: requests=%d chunks=%d voxels=%d", *count, totalChunks, totalVoxels)
}

// readStream consumes one request's worth of frames: CHUNKS batches in seq
// order, then DONE. Every record is decoded the way a real client would.
func readStream(conn *websocket.Conn, logger *log.Logger, reqID string, start time.Time) (int, int, error) {
	var (
		chunks  int
		voxels  int
		wantSeq int
	)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return 0, 0, fmt.Errorf("read: %w", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			return 0, 0, fmt.Errorf("decode: %w", err)
		}

		switch base.Type {
		case protocol.TypeChunks:
			var cm protocol.ChunksMsg
			if err := json.Unmarshal(msg, &cm); err != nil {
				return 0, 0, fmt.Errorf("CHUNKS: %w", err)
			}
			if cm.Seq != wantSeq {
				return 0, 0, fmt.Errorf("CHUNKS out of order: seq=%d want=%d", cm.Seq, wantSeq)
			}
			wantSeq++
			for _, rec := range cm.Chunks {
				filled, err := checkRecord(rec)
				if err != nil {
					return 0, 0, fmt.Errorf("chunk %v: %w", rec.Position, err)
				}
				chunks++
				voxels += filled
			}

		case protocol.TypeDone:
			var dm protocol.DoneMsg
			if err := json.Unmarshal(msg, &dm); err != nil {
				return 0, 0, fmt.Errorf("DONE: %w", err)
			}
			if dm.Chunks != chunks {
				return 0, 0, fmt.Errorf("DONE says chunks=%d, received %d", dm.Chunks, chunks)
			}
			logger.Printf("DONE request=%s seed=%d chunks=%d voxels=%d batches=%d server_ms=%d rtt_ms=%d",
				reqID, dm.Seed, chunks, voxels, wantSeq, dm.ElapsedMS, time.Since(start).Milliseconds())
			return chunks, voxels, nil

		case protocol.TypeError:
			var em protocol.ErrorMsg
			if err := json.Unmarshal(msg, &em); err != nil {
				return 0, 0, fmt.Errorf("ERROR: %w", err)
			}
			return 0, 0, fmt.Errorf("server error %s: %s", em.Code, em.Message)

		default:
			return 0, 0, fmt.Errorf("unexpected message type %q", base.Type)
		}
	}
}

func checkRecord(rec encoding.ChunkRecord) (int, error) {
	ids, err := encoding.DecodeRuns(rec.RLEData)
	if err != nil {
		return 0, err
	}
	if len(ids) != voxel.Volume {
		return 0, fmt.Errorf("decoded %d cells, want %d", len(ids), voxel.Volume)
	}
	filled := 0
	for _, id := range ids {
		if int(id) >= len(rec.Palette) {
			return 0, fmt.Errorf("id %d outside palette of %d", id, len(rec.Palette))
		}
		if id != 0 {
			filled++
		}
	}
	return filled, nil
}
