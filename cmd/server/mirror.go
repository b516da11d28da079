package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"voxelito.dev/internal/persistence/objstore"
)

// mirrorRuntime ships finished request-log segments to an S3-compatible
// bucket. Disabled unless VX_MIRROR=true.
type mirrorRuntime struct {
	enabled      bool
	rotateLayout string
	uploader     *objstore.Uploader
}

func buildMirrorRuntime(dataDir string, logger *log.Logger) (*mirrorRuntime, error) {
	if !envBool("VX_MIRROR", false) {
		return &mirrorRuntime{}, nil
	}

	endpoint := strings.TrimSpace(os.Getenv("VX_MIRROR_ENDPOINT"))
	bucket := strings.TrimSpace(os.Getenv("VX_MIRROR_BUCKET"))
	accessKeyID := strings.TrimSpace(os.Getenv("VX_MIRROR_ACCESS_KEY_ID"))
	secretAccessKey := strings.TrimSpace(os.Getenv("VX_MIRROR_SECRET_ACCESS_KEY"))
	prefix := strings.TrimSpace(os.Getenv("VX_MIRROR_PREFIX"))

	if endpoint == "" || bucket == "" || accessKeyID == "" || secretAccessKey == "" {
		return nil, fmt.Errorf("VX_MIRROR=true but VX_MIRROR_ENDPOINT/VX_MIRROR_BUCKET/VX_MIRROR_ACCESS_KEY_ID/VX_MIRROR_SECRET_ACCESS_KEY are not fully set")
	}

	client, err := objstore.New(endpoint, bucket, accessKeyID, secretAccessKey)
	if err != nil {
		return nil, err
	}

	workers := envInt("VX_MIRROR_UPLOAD_WORKERS", 2)
	queueCap := envInt("VX_MIRROR_QUEUE", 1024)
	uploader := objstore.NewUploader(client, dataDir, prefix, workers, queueCap, 25*time.Millisecond, logger)

	return &mirrorRuntime{
		enabled:      true,
		rotateLayout: "2006-01-02-15", // hourly segments while mirroring
		uploader:     uploader,
	}, nil
}

func (m *mirrorRuntime) Close() {
	if m == nil || m.uploader == nil {
		return
	}
	m.uploader.Close()
}

func (m *mirrorRuntime) Enqueue(localPath string) {
	if m == nil || !m.enabled || m.uploader == nil {
		return
	}
	m.uploader.Enqueue(localPath)
}

func (m *mirrorRuntime) Stats() objstore.Stats {
	if m == nil || m.uploader == nil {
		return objstore.Stats{}
	}
	return m.uploader.Stats()
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
