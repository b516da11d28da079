package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/persistence/indexdb"
	"voxelito.dev/internal/transport"
)

// runtimeIndex is what main needs from an index backend. Both backends
// accept entries off the hot path and drop on saturation.
type runtimeIndex interface {
	transport.GenerationLogger
	Close() error
	UpsertPalette(pal *palette.Palette) error
	Stats() indexdb.QueueStats
}

func openRuntimeIndex(dataDir string, disableDB bool, logger *log.Logger) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("VX_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.Open(filepath.Join(dataDir, "index", "index.db"))
	case "remote":
		endpoint := strings.TrimSpace(os.Getenv("VX_INDEX_INGEST_URL"))
		token := strings.TrimSpace(os.Getenv("VX_INDEX_TOKEN"))
		if endpoint == "" {
			return nil, fmt.Errorf("VX_INDEX_BACKEND=remote but VX_INDEX_INGEST_URL is empty")
		}
		instance := strings.TrimSpace(os.Getenv("VX_INDEX_INSTANCE"))
		if instance == "" {
			instance, _ = os.Hostname()
		}
		return indexdb.OpenRemote(indexdb.RemoteConfig{
			Endpoint:      endpoint,
			Token:         token,
			Instance:      instance,
			BatchSize:     envInt("VX_INDEX_BATCH_SIZE", 128),
			FlushInterval: time.Duration(envInt("VX_INDEX_FLUSH_MS", 500)) * time.Millisecond,
			Logger:        logger,
		})
	default:
		return nil, fmt.Errorf("unsupported VX_INDEX_BACKEND: %s", backend)
	}
}
