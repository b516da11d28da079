package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxelito.dev/internal/gen"
	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/tuning"
	"voxelito.dev/internal/transport"
)

func main() {
	var (
		dataDir       = flag.String("data", "./data", "runtime data directory")
		reqDir        = flag.String("requests", "", "request log directory (default: <data>/requests)")
		tuningPath    = flag.String("tuning", "", "path to tuning.yaml (optional)")
		materialsPath = flag.String("materials", "", "path to materials.json (optional)")
		fromArg       = flag.String("from", "", "replay entries received at or after this time (RFC3339 or YYYY-MM-DD)")
		toArg         = flag.String("to", "", "replay entries received at or before this time")
	)
	flag.Parse()

	tune := tuning.Defaults()
	if *tuningPath != "" {
		var err error
		tune, err = tuning.Load(*tuningPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
	}
	pal := palette.Default()
	if *materialsPath != "" {
		var err error
		pal, err = palette.Load(*materialsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load materials:", err)
			os.Exit(1)
		}
	}

	from, err := parseWhen(*fromArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -from:", err)
		os.Exit(2)
	}
	to, err := parseWhen(*toArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -to:", err)
		os.Exit(2)
	}

	dir := strings.TrimSpace(*reqDir)
	if dir == "" {
		dir = filepath.Join(*dataDir, "requests")
	}

	files, err := listRequestFiles(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list requests:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no request logs found in", dir)
		os.Exit(1)
	}

	eng := gen.NewEngine(pal, tune, log.New(os.Stderr, "", 0))
	fmt.Printf("replaying %d files against palette=%.12s bound=%d\n", len(files), pal.Digest, tune.World.Bound)

	var checked, skipped int
	for _, path := range files {
		if err := replayFile(eng, path, from, to, &checked, &skipped); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("replay ok: checked=%d skipped=%d\n", checked, skipped)
}

func listRequestFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "requests-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// replayFile re-runs every intent entry in one log segment and checks the
// engine still produces what was served. A mismatch means the generator or
// its tuning has drifted since the entry was written.
func replayFile(eng *gen.Engine, path string, from, to time.Time, checked, skipped *int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		var e transport.GenerationEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if !from.IsZero() && e.ReceivedAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.ReceivedAt.After(to) {
			continue
		}
		// Scene payloads are not logged, so only intent entries can re-run.
		if e.Kind == "scene" || e.Seed == 0 {
			*skipped++
			continue
		}

		res, err := eng.Intent(e.Kind, e.Seed)
		if err != nil {
			return fmt.Errorf("%s seed=%d: %w (file=%s)", e.Kind, e.Seed, err, filepath.Base(path))
		}
		if res.Chunks != e.Chunks {
			return fmt.Errorf("chunks mismatch for %s seed=%d: got=%d want=%d (file=%s)",
				e.Kind, e.Seed, res.Chunks, e.Chunks, filepath.Base(path))
		}
		*checked++
	}
	return sc.Err()
}

func parseWhen(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
