package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"voxelito.dev/internal/gen"
	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/tuning"
	"voxelito.dev/internal/persistence/indexdb"
	persistlog "voxelito.dev/internal/persistence/log"
	"voxelito.dev/internal/persistence/objstore"
	"voxelito.dev/internal/ratelimit"
	"voxelito.dev/internal/transport"
	"voxelito.dev/internal/transport/rest"
	"voxelito.dev/internal/transport/ws"
)

func main() {
	var (
		addr          = flag.String("addr", ":8080", "http listen address")
		configDir     = flag.String("configs", "./configs", "config directory")
		schemaDir     = flag.String("schemas", "./schemas", "request schema directory")
		dataDir       = flag.String("data", "./data", "runtime data directory")
		tuningPath    = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		materialsPath = flag.String("materials", "", "path to materials.json (default: <configs>/materials.json)")
		disableDB     = flag.Bool("disable_db", false, "disable generation indexing")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	mp := strings.TrimSpace(*materialsPath)
	if mp == "" {
		mp = filepath.Join(*configDir, "materials.json")
	}
	pal, err := palette.Load(mp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load materials: %v", err)
		}
		logger.Printf("materials not found (%s); using built-in palette", mp)
		pal = palette.Default()
	}

	schema, err := jsonschema.Compile(filepath.Join(*schemaDir, "generate.schema.json"))
	if err != nil {
		logger.Fatalf("compile generate schema: %v", err)
	}

	idx, err := openRuntimeIndex(*dataDir, *disableDB, logger)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertPalette(pal); err != nil {
			logger.Printf("index backend: upsert palette: %v", err)
		}
	}

	mirror, err := buildMirrorRuntime(*dataDir, logger)
	if err != nil {
		logger.Fatalf("init mirror: %v", err)
	}
	defer mirror.Close()

	// Request log closes before the mirror, so the final segment still gets
	// enqueued and drained on shutdown.
	logOpts := persistlog.Options{}
	if mirror.enabled {
		logOpts.RotateLayout = mirror.rotateLayout
		logOpts.OnClose = mirror.Enqueue
	}
	reqLog := persistlog.NewGenerationLoggerWithOptions(*dataDir, logOpts)
	defer reqLog.Close()

	stats := &transport.Stats{}
	h := &transport.Handler{
		Engine:        gen.NewEngine(pal, tune, logger),
		Schema:        schema,
		Limiter:       ratelimit.New(tune.Limits.RateMaxRequests, time.Duration(tune.Limits.RateWindowSeconds)*time.Second, nil),
		Index:         multiGenerationLogger{a: reqLog, b: idx},
		Stats:         stats,
		Log:           logger,
		PaletteDigest: pal.Digest,
		MaxShapes:     tune.Limits.MaxSceneShapes,
		BatchChunks:   tune.Server.BatchChunks,
	}

	ctx, cancel := signalContext()
	defer cancel()

	mux := buildMux(h, pal, idx, mirror, logger,
		envBool("VX_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
		envBool("VX_ENABLE_PPROF_HTTP", false))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (palette %s, %d materials)", *addr, pal.Digest[:12], pal.Len())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func buildMux(h *transport.Handler, pal *palette.Palette, idx runtimeIndex, mirror *mirrorRuntime, logger *log.Logger, enableAdmin, enablePprof bool) *http.ServeMux {
	stats := h.Stats
	restSrv := rest.NewServer(h, pal)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := stats.Snapshot()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP voxelito_requests_total Decoded generate requests by outcome.\n")
		fmt.Fprintf(rw, "# TYPE voxelito_requests_total counter\n")
		fmt.Fprintf(rw, "voxelito_requests_total{outcome=%q} %d\n", "ok", m.Generations)
		fmt.Fprintf(rw, "voxelito_requests_total{outcome=%q} %d\n", "rejected", m.Rejected)
		fmt.Fprintf(rw, "voxelito_requests_total{outcome=%q} %d\n", "rate_limited", m.RateLimited)
		fmt.Fprintf(rw, "voxelito_requests_total{outcome=%q} %d\n", "error", m.Errors)

		fmt.Fprintf(rw, "# HELP voxelito_chunks_total Chunk records produced.\n")
		fmt.Fprintf(rw, "# TYPE voxelito_chunks_total counter\n")
		fmt.Fprintf(rw, "voxelito_chunks_total %d\n", m.Chunks)

		fmt.Fprintf(rw, "# HELP voxelito_shapes_skipped_total Scene shapes skipped during rasterization.\n")
		fmt.Fprintf(rw, "# TYPE voxelito_shapes_skipped_total counter\n")
		fmt.Fprintf(rw, "voxelito_shapes_skipped_total %d\n", m.ShapesSkipped)

		fmt.Fprintf(rw, "# HELP voxelito_generate_seconds Time spent generating.\n")
		fmt.Fprintf(rw, "# TYPE voxelito_generate_seconds summary\n")
		fmt.Fprintf(rw, "voxelito_generate_seconds_sum %.6f\n", float64(m.GenerateNanos)/1e9)
		fmt.Fprintf(rw, "voxelito_generate_seconds_count %d\n", m.Generations)

		fmt.Fprintf(rw, "# HELP voxelito_ws_connections Currently open websocket connections.\n")
		fmt.Fprintf(rw, "# TYPE voxelito_ws_connections gauge\n")
		fmt.Fprintf(rw, "voxelito_ws_connections %d\n", m.WSConnections)

		fmt.Fprintf(rw, "# HELP voxelito_ws_messages_total Websocket messages received.\n")
		fmt.Fprintf(rw, "# TYPE voxelito_ws_messages_total counter\n")
		fmt.Fprintf(rw, "voxelito_ws_messages_total %d\n", m.WSMessages)

		if idx != nil {
			qs := idx.Stats()
			fmt.Fprintf(rw, "# HELP voxelito_index_queue_depth Index writer backlog.\n")
			fmt.Fprintf(rw, "# TYPE voxelito_index_queue_depth gauge\n")
			fmt.Fprintf(rw, "voxelito_index_queue_depth %d\n", qs.Depth)

			fmt.Fprintf(rw, "# HELP voxelito_index_dropped_total Index entries dropped on saturation.\n")
			fmt.Fprintf(rw, "# TYPE voxelito_index_dropped_total counter\n")
			fmt.Fprintf(rw, "voxelito_index_dropped_total %d\n", qs.DropTotal)
		}

		writeMirrorMetrics(rw, mirror)
	})

	if enableAdmin {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/stats", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				Metrics transport.Metrics   `json:"metrics"`
				Index   *indexdb.QueueStats `json:"index,omitempty"`
				Mirror  *objstore.Stats     `json:"mirror,omitempty"`
			}{Metrics: stats.Snapshot()}
			if idx != nil {
				qs := idx.Stats()
				resp.Index = &qs
			}
			if mirror.enabled {
				ms := mirror.Stats()
				resp.Mirror = &ms
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		if sq, ok := idx.(*indexdb.SQLiteIndex); ok {
			mux.HandleFunc("/admin/v1/generations", func(rw http.ResponseWriter, r *http.Request) {
				if !isLoopbackRemote(r.RemoteAddr) {
					http.Error(rw, "forbidden", http.StatusForbidden)
					return
				}
				n, _ := strconv.Atoi(r.URL.Query().Get("n"))
				entries, err := sq.Recent(n)
				rw.Header().Set("Content-Type", "application/json")
				if err != nil {
					rw.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(rw).Encode(map[string]any{"error": err.Error()})
					return
				}
				_ = json.NewEncoder(rw).Encode(struct {
					Generations []transport.GenerationEntry `json:"generations"`
				}{Generations: entries})
			})
		}
	} else {
		logger.Printf("admin endpoints disabled (VX_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (VX_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/generate", restSrv.GenerateHandler())
	mux.HandleFunc("/v1/palette", restSrv.PaletteHandler())
	mux.HandleFunc("/v1/ws", ws.NewServer(h, logger).Handler())

	return mux
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func writeMirrorMetrics(rw http.ResponseWriter, mirror *mirrorRuntime) {
	if mirror == nil || !mirror.enabled {
		return
	}
	s := mirror.Stats()

	fmt.Fprintf(rw, "# HELP voxelito_mirror_queue_depth Current mirror queue depth.\n")
	fmt.Fprintf(rw, "# TYPE voxelito_mirror_queue_depth gauge\n")
	fmt.Fprintf(rw, "voxelito_mirror_queue_depth %d\n", s.QueueDepth)

	fmt.Fprintf(rw, "# HELP voxelito_mirror_queue_capacity Mirror queue capacity.\n")
	fmt.Fprintf(rw, "# TYPE voxelito_mirror_queue_capacity gauge\n")
	fmt.Fprintf(rw, "voxelito_mirror_queue_capacity %d\n", s.QueueCapacity)

	fmt.Fprintf(rw, "# HELP voxelito_mirror_enqueued_total Total mirror enqueue attempts.\n")
	fmt.Fprintf(rw, "# TYPE voxelito_mirror_enqueued_total counter\n")
	fmt.Fprintf(rw, "voxelito_mirror_enqueued_total %d\n", s.EnqueuedTotal)

	fmt.Fprintf(rw, "# HELP voxelito_mirror_queue_saturated_total Total enqueue attempts when the queue was saturated.\n")
	fmt.Fprintf(rw, "# TYPE voxelito_mirror_queue_saturated_total counter\n")
	fmt.Fprintf(rw, "voxelito_mirror_queue_saturated_total %d\n", s.QueueSaturatedTotal)

	fmt.Fprintf(rw, "# HELP voxelito_mirror_dropped_total Total files dropped because the queue stayed saturated.\n")
	fmt.Fprintf(rw, "# TYPE voxelito_mirror_dropped_total counter\n")
	fmt.Fprintf(rw, "voxelito_mirror_dropped_total %d\n", s.DroppedTotal)

	fmt.Fprintf(rw, "# HELP voxelito_mirror_upload_success_total Total successful mirror uploads.\n")
	fmt.Fprintf(rw, "# TYPE voxelito_mirror_upload_success_total counter\n")
	fmt.Fprintf(rw, "voxelito_mirror_upload_success_total %d\n", s.UploadSuccessTotal)

	fmt.Fprintf(rw, "# HELP voxelito_mirror_upload_fail_total Total failed mirror uploads after retry.\n")
	fmt.Fprintf(rw, "# TYPE voxelito_mirror_upload_fail_total counter\n")
	fmt.Fprintf(rw, "voxelito_mirror_upload_fail_total %d\n", s.UploadFailTotal)

	fmt.Fprintf(rw, "# HELP voxelito_mirror_last_success_unix Unix timestamp of the last successful upload.\n")
	fmt.Fprintf(rw, "# TYPE voxelito_mirror_last_success_unix gauge\n")
	fmt.Fprintf(rw, "voxelito_mirror_last_success_unix %d\n", s.LastSuccessUnix)

	fmt.Fprintf(rw, "# HELP voxelito_mirror_last_error_unix Unix timestamp of the last failed upload.\n")
	fmt.Fprintf(rw, "# TYPE voxelito_mirror_last_error_unix gauge\n")
	fmt.Fprintf(rw, "voxelito_mirror_last_error_unix %d\n", s.LastErrorUnix)
}

type multiGenerationLogger struct {
	a transport.GenerationLogger
	b transport.GenerationLogger
}

func (m multiGenerationLogger) WriteGeneration(entry transport.GenerationEntry) error {
	if m.a != nil {
		_ = m.a.WriteGeneration(entry)
	}
	if m.b != nil {
		_ = m.b.WriteGeneration(entry)
	}
	return nil
}
