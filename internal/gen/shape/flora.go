package shape

import (
	"fmt"

	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/voxel"
)

// Tree canopy variants.
const (
	VariantPine = "pine"
	VariantOak  = "oak"
)

// Tree grows a wood trunk with a leaf canopy. All variety (height jitter,
// canopy radius) derives from the lattice hash of the base coordinate, so
// re-rasterizing the same tree writes the identical voxel set. Editors rely
// on that to re-run scenes without drift.
type Tree struct {
	Base    [3]int `json:"base"`
	Height  int    `json:"height"`
	Variant string `json:"variant"`
}

func (t *Tree) Kind() string { return KindTree }

func (t *Tree) Rasterize(st *voxel.Store, pal *palette.Palette) error {
	switch t.Variant {
	case VariantPine, VariantOak:
	default:
		return fmt.Errorf("tree: unknown variant %q", t.Variant)
	}
	wood := pal.Resolve("wood")
	leaves := pal.Resolve("leaves")
	x, y, z := t.Base[0], t.Base[1], t.Base[2]

	seed := voxel.LatticeHash(x, y, z)
	h := t.Height + int(seed%3) - 1
	if h < 1 {
		h = 1
	}
	trunk := h * 3 / 10
	if trunk < 1 {
		trunk = 1
	}
	for i := 0; i < trunk; i++ {
		st.SetVoxel(x, y+i, z, wood)
	}
	if h >= 8 {
		// Tall trees get a thicker footing: a 4-neighbor cross on the two
		// lowest trunk layers.
		for i := 0; i < 2 && i < trunk; i++ {
			st.SetVoxel(x+1, y+i, z, wood)
			st.SetVoxel(x-1, y+i, z, wood)
			st.SetVoxel(x, y+i, z+1, wood)
			st.SetVoxel(x, y+i, z-1, wood)
		}
	}

	switch t.Variant {
	case VariantPine:
		// Shrinking disks from the trunk top to a single voxel at y+h-1.
		for j := trunk; j < h; j++ {
			fillDisk(st, x, y+j, z, h-1-j, leaves)
		}
	case VariantOak:
		r := h / 2
		if r < 2 {
			r = 2
		}
		r += int((seed >> 8) % 2)
		fillBall(st, [3]int{x, y + h - 1, z}, r, leaves)
	}
	return nil
}

func fillDisk(st *voxel.Store, x, y, z, r int, id uint16) {
	if r < 0 {
		return
	}
	rr := r * r
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dz*dz <= rr {
				st.SetVoxel(x+dx, y, z+dz, id)
			}
		}
	}
}

// Flower is a stem topped by a plus-shaped five voxel bloom.
type Flower struct {
	Base     [3]int `json:"base"`
	Height   int    `json:"height"`
	Material string `json:"material"`
}

func (f *Flower) Kind() string { return KindFlower }

func (f *Flower) Rasterize(st *voxel.Store, pal *palette.Palette) error {
	if f.Height < 0 {
		return nil
	}
	stem := pal.Resolve("shrub")
	bloom := pal.Resolve(f.Material)
	x, y, z := f.Base[0], f.Base[1], f.Base[2]
	for i := 0; i < f.Height; i++ {
		st.SetVoxel(x, y+i, z, stem)
	}
	top := y + f.Height
	st.SetVoxel(x, top, z, bloom)
	st.SetVoxel(x+1, top, z, bloom)
	st.SetVoxel(x-1, top, z, bloom)
	st.SetVoxel(x, top, z+1, bloom)
	st.SetVoxel(x, top, z-1, bloom)
	return nil
}

// Shrub is a filled ball, a full sphere rather than a hemisphere.
type Shrub struct {
	Center   [3]int `json:"center"`
	Radius   int    `json:"radius"`
	Material string `json:"material"`
}

func (s *Shrub) Kind() string { return KindShrub }

func (s *Shrub) Rasterize(st *voxel.Store, pal *palette.Palette) error {
	fillBall(st, s.Center, s.Radius, pal.Resolve(s.Material))
	return nil
}
