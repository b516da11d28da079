package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	get "github.com/hashicorp/go-getter"

	"voxelito.dev/internal/gen"
	"voxelito.dev/internal/gen/encoding"
	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/tuning"
	"voxelito.dev/internal/gen/voxel"
	"voxelito.dev/internal/persistence/archive"
)

func main() {
	var (
		scenePath     = flag.String("scene", "", "scene JSON array, a local path or a go-getter URL")
		intent        = flag.String("intent", "", "layout intent (city, village, forest)")
		seed          = flag.Int64("seed", 0, "generation seed (0 picks a time-derived one)")
		outPath       = flag.String("out", "", "write the world archive here (.vxz)")
		recordsPath   = flag.String("records", "", "write the raw chunk records here (.json)")
		tuningPath    = flag.String("tuning", "", "path to tuning.yaml (optional)")
		materialsPath = flag.String("materials", "", "path to materials.json (optional)")
		verify        = flag.Bool("verify", false, "re-read the archive and check every record decodes to a full chunk")
	)
	flag.Parse()

	if (*scenePath == "") == (*intent == "") {
		fmt.Fprintln(os.Stderr, "need exactly one of -scene or -intent")
		os.Exit(2)
	}
	if *outPath == "" && *recordsPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: need -out and/or -records")
		os.Exit(2)
	}
	if *verify && *outPath == "" {
		fmt.Fprintln(os.Stderr, "-verify needs -out")
		os.Exit(2)
	}

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

	eng := gen.NewEngine(pal, tune, log.New(os.Stderr, "", 0))

	var (
		res    gen.Result
		source string
	)
	start := time.Now()
	if *intent != "" {
		source = *intent
		var err error
		res, err = eng.Intent(*intent, *seed)
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate:", err)
			os.Exit(1)
		}
	} else {
		source = "scene"
		shapes, err := loadScene(*scenePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load scene:", err)
			os.Exit(1)
		}
		res = eng.Scene(shapes)
	}
	elapsed := time.Since(start)

	if *recordsPath != "" {
		b, err := json.Marshal(res.Records)
		if err != nil {
			fmt.Fprintln(os.Stderr, "encode records:", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*recordsPath, b, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, "write records:", err)
			os.Exit(1)
		}
	}

	if *outPath != "" {
		w := archive.New(source, res.Seed, pal.Digest, tune.World.Bound, res.Records)
		if err := archive.Write(*outPath, w); err != nil {
			fmt.Fprintln(os.Stderr, "write archive:", err)
			os.Exit(1)
		}
		if *verify {
			if err := verifyArchive(*outPath); err != nil {
				fmt.Fprintln(os.Stderr, "verify:", err)
				os.Exit(1)
			}
		}
	}

	fmt.Printf("generated source=%s seed=%d chunks=%d shapes_ok=%d shapes_skipped=%d elapsed_ms=%d\n",
		source, res.Seed, res.Chunks, res.ShapesOK, res.ShapesSkipped, elapsed.Milliseconds())
}

// loadScene reads a scene shape array from disk, fetching through go-getter
// first when the source is not a local file (https::, git::, s3:: and the
// rest of its schemes all work).
func loadScene(src string) ([]json.RawMessage, error) {
	path := src
	if _, err := os.Stat(src); err != nil {
		tmp, err := os.MkdirTemp("", "worldgen-scene-*")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(tmp)
		path = filepath.Join(tmp, "scene.json")
		if err := get.GetFile(path, src); err != nil {
			return nil, fmt.Errorf("fetch %s: %w", src, err)
		}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var shapes []json.RawMessage
	if err := json.Unmarshal(raw, &shapes); err != nil {
		return nil, fmt.Errorf("scene is not a JSON array of shapes: %w", err)
	}
	return shapes, nil
}

// verifyArchive re-reads a written archive and decodes every record the way
// a client would.
func verifyArchive(path string) error {
	w, err := archive.Read(path)
	if err != nil {
		return err
	}
	for i, rec := range w.Records {
		ids, err := encoding.DecodeRuns(rec.RLEData)
		if err != nil {
			return fmt.Errorf("record %d (%v): %w", i, rec.Position, err)
		}
		if len(ids) != voxel.Volume {
			return fmt.Errorf("record %d (%v): decoded %d cells, want %d", i, rec.Position, len(ids), voxel.Volume)
		}
		for _, id := range ids {
			if int(id) >= len(rec.Palette) {
				return fmt.Errorf("record %d (%v): id %d outside palette of %d", i, rec.Position, id, len(rec.Palette))
			}
		}
	}
	fmt.Printf("verify ok: records=%d\n", len(w.Records))
	return nil
}
