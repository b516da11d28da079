package objstore

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Stats struct {
	QueueDepth          int
	QueueCapacity       int
	EnqueuedTotal       uint64
	QueueSaturatedTotal uint64
	DroppedTotal        uint64
	UploadSuccessTotal  uint64
	UploadFailTotal     uint64
	LastSuccessUnix     int64
	LastErrorUnix       int64
}

// Uploader ships files that live under baseDir to the bucket, keyed by
// their path relative to baseDir (plus an optional prefix). Uploads run on
// background workers; Close drains the queue.
type Uploader struct {
	client  *Client
	baseDir string
	prefix  string
	logger  *log.Logger

	jobs        chan string
	enqueueWait time.Duration
	wg          sync.WaitGroup

	enqueuedTotal       atomic.Uint64
	queueSaturatedTotal atomic.Uint64
	droppedTotal        atomic.Uint64
	uploadSuccessTotal  atomic.Uint64
	uploadFailTotal     atomic.Uint64
	lastSuccessUnix     atomic.Int64
	lastErrorUnix       atomic.Int64
}

func NewUploader(client *Client, baseDir, prefix string, workers, queueCapacity int, enqueueWait time.Duration, logger *log.Logger) *Uploader {
	if workers <= 0 {
		workers = 1
	}
	if queueCapacity <= 0 {
		queueCapacity = 1024
	}
	if enqueueWait <= 0 {
		enqueueWait = 25 * time.Millisecond
	}
	u := &Uploader{
		client:      client,
		baseDir:     baseDir,
		prefix:      strings.Trim(strings.ReplaceAll(prefix, "\\", "/"), "/"),
		logger:      logger,
		jobs:        make(chan string, queueCapacity),
		enqueueWait: enqueueWait,
	}
	for i := 0; i < workers; i++ {
		u.wg.Add(1)
		go func() {
			defer u.wg.Done()
			for localPath := range u.jobs {
				u.uploadOne(localPath)
			}
		}()
	}
	return u
}

// Enqueue hands a file to the workers. It is called from log rotation and
// must return quickly, so a saturated queue gets one short bounded wait and
// then the file is dropped (it stays on disk either way).
func (u *Uploader) Enqueue(localPath string) {
	if u == nil || u.client == nil {
		return
	}
	u.enqueuedTotal.Add(1)

	select {
	case u.jobs <- localPath:
		return
	default:
	}

	u.queueSaturatedTotal.Add(1)
	timer := time.NewTimer(u.enqueueWait)
	defer timer.Stop()
	select {
	case u.jobs <- localPath:
		return
	case <-timer.C:
		dropped := u.droppedTotal.Add(1)
		u.printf("mirror drop local=%s reason=queue_saturated wait_ms=%d dropped_total=%d", localPath, u.enqueueWait.Milliseconds(), dropped)
	}
}

func (u *Uploader) Close() {
	if u == nil {
		return
	}
	close(u.jobs)
	u.wg.Wait()
}

func (u *Uploader) Stats() Stats {
	if u == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:          len(u.jobs),
		QueueCapacity:       cap(u.jobs),
		EnqueuedTotal:       u.enqueuedTotal.Load(),
		QueueSaturatedTotal: u.queueSaturatedTotal.Load(),
		DroppedTotal:        u.droppedTotal.Load(),
		UploadSuccessTotal:  u.uploadSuccessTotal.Load(),
		UploadFailTotal:     u.uploadFailTotal.Load(),
		LastSuccessUnix:     u.lastSuccessUnix.Load(),
		LastErrorUnix:       u.lastErrorUnix.Load(),
	}
}

func (u *Uploader) uploadOne(localPath string) {
	key, err := u.objectKey(localPath)
	if err != nil {
		u.printf("mirror skip local=%s err=%v", localPath, err)
		return
	}

	if err := u.uploadWithRetry(key, localPath); err != nil {
		u.uploadFailTotal.Add(1)
		u.lastErrorUnix.Store(time.Now().UTC().Unix())
		u.printf("mirror upload failed key=%s local=%s err=%v", key, localPath, err)
		return
	}
	u.uploadSuccessTotal.Add(1)
	u.lastSuccessUnix.Store(time.Now().UTC().Unix())
	u.printf("mirror uploaded key=%s local=%s", key, localPath)
}

func (u *Uploader) uploadWithRetry(key, localPath string) error {
	const maxAttempts = 4
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err := u.client.PutFile(ctx, key, localPath)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < maxAttempts {
			time.Sleep(time.Duration(attempt*attempt) * 200 * time.Millisecond)
		}
	}
	return lastErr
}

func (u *Uploader) objectKey(localPath string) (string, error) {
	if localPath == "" {
		return "", fmt.Errorf("empty local path")
	}
	if _, err := os.Stat(localPath); err != nil {
		return "", err
	}

	absBase, err := filepath.Abs(u.baseDir)
	if err != nil {
		return "", err
	}
	absLocal, err := filepath.Abs(localPath)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(absBase, absLocal)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path %s is outside data dir %s", absLocal, absBase)
	}

	if u.prefix != "" {
		return path.Join(u.prefix, rel), nil
	}
	return rel, nil
}

func (u *Uploader) printf(format string, args ...any) {
	if u.logger != nil {
		u.logger.Printf(format, args...)
	}
}
