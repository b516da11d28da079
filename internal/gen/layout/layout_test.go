package layout

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestGenerate_SeedBlockIsCentralRoad(t *testing.T) {
	g := NewGenerator(CityConfig(), rand.New(rand.NewSource(1)))
	blocks := g.Generate()
	if len(blocks) == 0 {
		t.Fatal("no blocks")
	}
	first := blocks[0]
	if first.Zone != ZoneRoad || first.X != 5 || first.Y != 0 || first.Z != 5 {
		t.Fatalf("seed block = %+v, want road at (5,0,5)", first)
	}
}

func TestGenerate_DeterministicForSeed(t *testing.T) {
	a := NewGenerator(CityConfig(), rand.New(rand.NewSource(42))).Generate()
	b := NewGenerator(CityConfig(), rand.New(rand.NewSource(42))).Generate()
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different layouts")
	}
}

func TestGenerate_VisitBudget(t *testing.T) {
	cfg := CityConfig()
	// 10x10 grid at 0.2 visit fraction: seed plus at most 20 more cells.
	for seed := int64(0); seed < 20; seed++ {
		blocks := NewGenerator(cfg, rand.New(rand.NewSource(seed))).Generate()
		if len(blocks) > 21 {
			t.Fatalf("seed %d visited %d cells, budget allows 21", seed, len(blocks))
		}
	}
}

func TestGenerate_CellsUniqueAndInGrid(t *testing.T) {
	cfg := CityConfig()
	for seed := int64(0); seed < 10; seed++ {
		blocks := NewGenerator(cfg, rand.New(rand.NewSource(seed))).Generate()
		seen := map[[3]int]bool{}
		for _, b := range blocks {
			if b.X < 0 || b.X >= cfg.Width || b.Z < 0 || b.Z >= cfg.Depth || b.Y != 0 {
				t.Fatalf("seed %d: block %+v outside grid", seed, b)
			}
			k := [3]int{b.X, b.Y, b.Z}
			if seen[k] {
				t.Fatalf("seed %d: cell %v planned twice", seed, k)
			}
			seen[k] = true
		}
	}
}

func TestGenerate_RoadsConnectedToSeed(t *testing.T) {
	cfg := CityConfig()
	for seed := int64(0); seed < 10; seed++ {
		blocks := NewGenerator(cfg, rand.New(rand.NewSource(seed))).Generate()
		roads := map[[2]int]bool{}
		for _, b := range blocks {
			if b.Zone == ZoneRoad {
				roads[[2]int{b.X, b.Z}] = true
			}
		}
		// Flood from the seed over road-to-road adjacency.
		start := [2]int{cfg.Width / 2, cfg.Depth / 2}
		reached := map[[2]int]bool{start: true}
		queue := [][2]int{start}
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				n := [2]int{c[0] + d[0], c[1] + d[1]}
				if roads[n] && !reached[n] {
					reached[n] = true
					queue = append(queue, n)
				}
			}
		}
		if len(reached) != len(roads) {
			t.Fatalf("seed %d: %d of %d road cells reachable from seed", seed, len(reached), len(roads))
		}
	}
}

func TestGenerate_ZonesTouchRoads(t *testing.T) {
	blocks := NewGenerator(CityConfig(), rand.New(rand.NewSource(7))).Generate()
	roads := map[[2]int]bool{}
	for _, b := range blocks {
		if b.Zone == ZoneRoad {
			roads[[2]int{b.X, b.Z}] = true
		}
	}
	for _, b := range blocks {
		if b.Zone == ZoneRoad {
			continue
		}
		adjacent := false
		for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			if roads[[2]int{b.X + d[0], b.Z + d[1]}] {
				adjacent = true
				break
			}
		}
		if !adjacent {
			t.Fatalf("block %+v placed away from any road", b)
		}
	}
}

func TestVillage_NeverPlacesCommercial(t *testing.T) {
	cfg := VillageConfig()
	for seed := int64(0); seed < 25; seed++ {
		for _, b := range NewGenerator(cfg, rand.New(rand.NewSource(seed))).Generate() {
			if b.Zone == ZoneCommercial {
				t.Fatalf("seed %d: commercial block in village layout", seed)
			}
		}
	}
}
