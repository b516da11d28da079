package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxelito.dev/internal/transport"
)

// Options tunes segment rotation. The zero value writes day files and
// reports closed segments to nobody.
type Options struct {
	RotateLayout string            // time layout for segment names (default "2006-01-02")
	OnClose      func(path string) // called after a finished segment file is closed
}

// JSONLZstdWriter appends JSON lines to rotated zstd files
// (prefix-SEGMENT.jsonl.zst). Every write is flushed, so the current
// file is readable while the process runs.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	layout  string
	onClose func(string)

	mu      sync.Mutex
	curSeg  string
	curPath string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return NewJSONLZstdWriterWithOptions(baseDir, prefix, Options{})
}

func NewJSONLZstdWriterWithOptions(baseDir, prefix string, opts Options) *JSONLZstdWriter {
	layout := opts.RotateLayout
	if layout == "" {
		layout = "2006-01-02"
	}
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		layout:  layout,
		onClose: opts.OnClose,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	seg := time.Now().UTC().Format(w.layout)
	if seg != w.curSeg {
		if err := w.rotateLocked(seg); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(seg string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	p := w.pathForSeg(seg)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curSeg = seg
	w.curPath = p
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	if w.onClose != nil && w.curPath != "" {
		w.onClose(w.curPath)
	}
	w.curPath = ""
	return err1
}

func (w *JSONLZstdWriter) pathForSeg(seg string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, seg))
}

// GenerationLogger writes one JSONL entry per serviced request (compressed).
type GenerationLogger struct{ w *JSONLZstdWriter }

func NewGenerationLogger(dataDir string) *GenerationLogger {
	return NewGenerationLoggerWithOptions(dataDir, Options{})
}

func NewGenerationLoggerWithOptions(dataDir string, opts Options) *GenerationLogger {
	return &GenerationLogger{w: NewJSONLZstdWriterWithOptions(filepath.Join(dataDir, "requests"), "requests", opts)}
}

func (l *GenerationLogger) WriteGeneration(v transport.GenerationEntry) error { return l.w.Write(v) }
func (l *GenerationLogger) Close() error                                      { return l.w.Close() }
