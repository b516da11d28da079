// Package gen is the generation engine. It owns the pipeline from a scene
// or intent to a list of chunk records: rasterize (or plan + emit), run the
// detail pass, encode. Every call builds a fresh store, so one Engine is
// safe for any number of concurrent requests.
package gen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"voxelito.dev/internal/gen/assets"
	"voxelito.dev/internal/gen/detail"
	"voxelito.dev/internal/gen/encoding"
	"voxelito.dev/internal/gen/layout"
	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/shape"
	"voxelito.dev/internal/gen/tuning"
	"voxelito.dev/internal/gen/voxel"
)

// Intent tokens.
const (
	IntentCity    = "city"
	IntentVillage = "village"
	IntentForest  = "forest"
)

var ErrUnknownIntent = errors.New("unknown intent")

type Engine struct {
	pal    *palette.Palette
	tune   tuning.Tuning
	logger *log.Logger
}

func NewEngine(pal *palette.Palette, tune tuning.Tuning, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Engine{pal: pal, tune: tune, logger: logger}
}

// Result is one finished generation.
type Result struct {
	Records       []encoding.ChunkRecord
	Chunks        int
	ShapesOK      int
	ShapesSkipped int
	Seed          int64
}

// Scene rasterizes a list of raw shape entries. A shape that fails to
// decode, errors, or panics while rasterizing is logged and skipped; the
// rest of the scene still lands.
func (e *Engine) Scene(shapes []json.RawMessage) Result {
	st := voxel.NewBounded(e.tune.World.Bound)
	var ok, skipped int
	for i, raw := range shapes {
		s, err := shape.Decode(raw)
		if err != nil {
			e.logger.Printf("scene: shape %d skipped: %v", i, err)
			skipped++
			continue
		}
		if err := rasterize(st, e.pal, s); err != nil {
			e.logger.Printf("scene: shape %d (%s) skipped: %v", i, s.Kind(), err)
			skipped++
			continue
		}
		ok++
	}
	e.finish(st)
	return e.result(st, ok, skipped, 0)
}

// Intent runs one of the procedural generators. A zero seed asks for a
// time-derived one; the seed actually used comes back in the Result so
// callers can replay it.
func (e *Engine) Intent(token string, seed int64) (Result, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	st := voxel.NewBounded(e.tune.World.Bound)
	switch token {
	case IntentCity:
		e.buildLayout(st, e.tune.City, seed)
	case IntentVillage:
		e.buildLayout(st, e.tune.Village, seed)
	case IntentForest:
		e.buildForest(st, seed)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownIntent, token)
	}
	e.finish(st)
	return e.result(st, 0, 0, seed), nil
}

// rasterize confines a shape's failure to that shape. Geometry code indexes
// dense arrays; a bug there must not take down the whole request.
func rasterize(st *voxel.Store, pal *palette.Palette, s shape.Shape) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Rasterize(st, pal)
}

func (e *Engine) buildLayout(st *voxel.Store, lt tuning.LayoutTuning, seed int64) {
	cfg := layout.Config{
		Width:       lt.GridWidth,
		Height:      1,
		Depth:       lt.GridDepth,
		RoadProb:    lt.RoadProb,
		ZoneWeights: [3]float64{lt.ResidentialWeight, lt.CommercialWeight, lt.ParkWeight},
		VisitFrac:   lt.VisitFrac,
	}
	blocks := layout.NewGenerator(cfg, rand.New(rand.NewSource(seed))).Generate()
	assets.NewBuilder(st, e.pal).EmitAll(blocks)
}

// buildForest lays a grass pad over the city footprint and scatters trees
// on a coarse cell grid. Presence, in-cell jitter, height and variant all
// derive from the seeded hash of the cell, so one seed is one forest.
func (e *Engine) buildForest(st *voxel.Store, seed int64) {
	f := e.tune.Forest
	w := e.tune.City.GridWidth * assets.BlockSize
	d := e.tune.City.GridDepth * assets.BlockSize
	st.FillRegion([3]int{0, 0, 0}, [3]int{w, 1, d}, e.pal.Resolve("grass"))

	span := f.MaxHeight - f.MinHeight + 1
	if span < 1 {
		span = 1
	}
	cell := f.CellSize
	for cz := 0; cz < d/cell; cz++ {
		for cx := 0; cx < w/cell; cx++ {
			h := voxel.SeededHash(seed, cx, 0, cz)
			if int(h%100) >= f.TreeProbPercent {
				continue
			}
			jx := int((h >> 8) % uint64(cell))
			jz := int((h >> 16) % uint64(cell))
			variant := shape.VariantPine
			if (h>>32)&1 == 1 {
				variant = shape.VariantOak
			}
			tr := shape.Tree{
				Base:    [3]int{cx*cell + jx, 1, cz*cell + jz},
				Height:  f.MinHeight + int((h>>24)%uint64(span)),
				Variant: variant,
			}
			if err := rasterize(st, e.pal, &tr); err != nil {
				e.logger.Printf("forest: tree at cell (%d,%d) skipped: %v", cx, cz, err)
			}
		}
	}
}

func (e *Engine) finish(st *voxel.Store) {
	if n := detail.Apply(st, e.pal, e.tune.Detail.Threshold); n > 0 {
		e.logger.Printf("detail: retagged %d voxels", n)
	}
}

func (e *Engine) result(st *voxel.Store, ok, skipped int, seed int64) Result {
	recs := encoding.Records(st, e.pal)
	return Result{
		Records:       recs,
		Chunks:        len(recs),
		ShapesOK:      ok,
		ShapesSkipped: skipped,
		Seed:          seed,
	}
}
