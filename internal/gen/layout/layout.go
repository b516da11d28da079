// Package layout plans a coarse zone grid for the procedural intents. It
// grows a road network outward from a central seed and hangs building zones
// off the roads; the asset emitters turn the resulting semantic blocks into
// voxels.
package layout

import (
	"math/rand"
)

// ZoneType tags a coarse grid cell with its land use. Water and empty are
// reserved kinds with no emitter.
type ZoneType string

const (
	ZoneEmpty       ZoneType = "empty"
	ZoneRoad        ZoneType = "road"
	ZoneResidential ZoneType = "residential"
	ZoneCommercial  ZoneType = "commercial"
	ZonePark        ZoneType = "park"
	ZoneWater       ZoneType = "water"
)

// SemanticBlock is one planned cell. Coordinates are in grid cells, not
// voxels. Rotation is reserved for emitters that orient their asset; the
// current set ignores it.
type SemanticBlock struct {
	X, Y, Z  int
	Zone     ZoneType
	Rotation int
}

// Config sizes the grid and tunes the growth probabilities. ZoneWeights
// orders residential, commercial, park.
type Config struct {
	Width, Height, Depth int
	RoadProb             float64
	ZoneWeights          [3]float64
	VisitFrac            float64
}

// CityConfig is the default city grid.
func CityConfig() Config {
	return Config{
		Width: 10, Height: 1, Depth: 10,
		RoadProb:    0.4,
		ZoneWeights: [3]float64{0.6, 0.2, 0.2},
		VisitFrac:   0.2,
	}
}

// VillageConfig shrinks the grid and drops commercial zoning.
func VillageConfig() Config {
	return Config{
		Width: 6, Height: 1, Depth: 6,
		RoadProb:    0.4,
		ZoneWeights: [3]float64{0.7, 0.0, 0.3},
		VisitFrac:   0.2,
	}
}

// Generator grows one layout. All randomness flows through the injected
// source, so a fixed seed reproduces the layout exactly.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

func NewGenerator(cfg Config, rng *rand.Rand) *Generator {
	return &Generator{cfg: cfg, rng: rng}
}

type cell struct {
	x, y, z int
}

// Generate runs breadth-first road growth from the grid center. Roads join
// the frontier and keep spreading; building zones are placed beside roads
// and never spread. Growth stops when the frontier drains or when
// VisitFrac*Width*Depth cells have been visited beyond the seed, so
// coverage stays sparse on any grid size. Blocks come back in visit order.
func (g *Generator) Generate() []SemanticBlock {
	seed := cell{g.cfg.Width / 2, 0, g.cfg.Depth / 2}
	blocks := []SemanticBlock{{X: seed.x, Y: seed.y, Z: seed.z, Zone: ZoneRoad}}
	visited := map[cell]bool{seed: true}
	frontier := []cell{seed}
	budget := int(g.cfg.VisitFrac * float64(g.cfg.Width*g.cfg.Depth))

	for len(frontier) > 0 && budget > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		neigh := g.neighbors(cur)
		g.rng.Shuffle(len(neigh), func(i, j int) {
			neigh[i], neigh[j] = neigh[j], neigh[i]
		})
		for _, n := range neigh {
			if budget <= 0 {
				break
			}
			if visited[n] {
				continue
			}
			visited[n] = true
			budget--
			if g.rng.Float64() < g.cfg.RoadProb {
				blocks = append(blocks, SemanticBlock{X: n.x, Y: n.y, Z: n.z, Zone: ZoneRoad})
				frontier = append(frontier, n)
				continue
			}
			blocks = append(blocks, SemanticBlock{X: n.x, Y: n.y, Z: n.z, Zone: g.pickZone()})
		}
	}
	return blocks
}

// neighbors lists the in-grid horizontal neighbors. Vertical growth is out
// of scope; the planner works a single ground layer.
func (g *Generator) neighbors(c cell) []cell {
	dirs := [4]cell{{1, 0, 0}, {-1, 0, 0}, {0, 0, 1}, {0, 0, -1}}
	out := make([]cell, 0, 4)
	for _, d := range dirs {
		n := cell{c.x + d.x, c.y + d.y, c.z + d.z}
		if n.x < 0 || n.x >= g.cfg.Width || n.z < 0 || n.z >= g.cfg.Depth {
			continue
		}
		if n.y < 0 || n.y >= g.cfg.Height {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (g *Generator) pickZone() ZoneType {
	w := g.cfg.ZoneWeights
	v := g.rng.Float64() * (w[0] + w[1] + w[2])
	switch {
	case v < w[0]:
		return ZoneResidential
	case v < w[0]+w[1]:
		return ZoneCommercial
	default:
		return ZonePark
	}
}
