// Package archive persists finished generations as .vxz files: a zstd
// stream opening with one JSON header line, followed by a gob-encoded body.
// The header line makes archives inspectable without decoding the body.
package archive

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxelito.dev/internal/gen/encoding"
)

// Ext is the archive filename extension.
const Ext = ".vxz"

type Header struct {
	Version       int    `json:"version"`
	CreatedAt     string `json:"created_at"`
	Source        string `json:"source"` // "scene" or the intent token
	Seed          int64  `json:"seed"`
	PaletteDigest string `json:"palette_digest,omitempty"`
}

// WorldV1 is the archived form of one generation: the chunk records exactly
// as a client would have received them, plus enough context to replay.
type WorldV1 struct {
	Header Header `json:"header"`

	Bound   int                    `json:"bound"`
	Records []encoding.ChunkRecord `json:"records"`
}

// New stamps a WorldV1 with the current time.
func New(source string, seed int64, paletteDigest string, bound int, records []encoding.ChunkRecord) WorldV1 {
	return WorldV1{
		Header: Header{
			Version:       1,
			CreatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
			Source:        source,
			Seed:          seed,
			PaletteDigest: paletteDigest,
		},
		Bound:   bound,
		Records: records,
	}
}

func Write(path string, w WorldV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(w.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&w); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}

	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func Read(path string) (WorldV1, error) {
	var w WorldV1
	f, err := os.Open(path)
	if err != nil {
		return w, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return w, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line; the gob body carries the header too.
	if _, err := br.ReadBytes('\n'); err != nil {
		return w, fmt.Errorf("archive header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&w); err != nil {
		return w, fmt.Errorf("gob decode: %w", err)
	}
	return w, nil
}

// ReadHeader decodes only the JSON header line, leaving the body alone.
// Listing tools use this to show archives without paying for the records.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReaderSize(dec, 64*1024).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("archive header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("archive header: %w", err)
	}
	return h, nil
}
