package shape

import (
	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/voxel"
)

// House is four wall slabs under a roof. Near-square footprints get a
// stepped pyramid roof; elongated ones get a gable with the ridge along the
// longer axis.
type House struct {
	Base     [3]int `json:"base"`
	Width    int    `json:"width"`
	Depth    int    `json:"depth"`
	Height   int    `json:"height"`
	Material string `json:"material"`
	Roof     string `json:"roof"`
}

func (h *House) Kind() string { return KindHouse }

func (h *House) Rasterize(st *voxel.Store, pal *palette.Palette) error {
	w, d, ht := h.Width, h.Depth, h.Height
	if w <= 0 || d <= 0 || ht < 0 {
		return nil
	}
	wall := pal.Resolve(h.Material)
	roof := pal.Resolve(h.Roof)
	x, y, z := h.Base[0], h.Base[1], h.Base[2]

	// Walls: two full slabs along x, two shortened slabs along z so the
	// corners are written once.
	st.FillRegion([3]int{x, y, z}, [3]int{w, ht, 1}, wall)
	st.FillRegion([3]int{x, y, z + d - 1}, [3]int{w, ht, 1}, wall)
	st.FillRegion([3]int{x, y, z + 1}, [3]int{1, ht, d - 2}, wall)
	st.FillRegion([3]int{x + w - 1, y, z + 1}, [3]int{1, ht, d - 2}, wall)

	ry := y + ht
	diff := w - d
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff < 3:
		// Near-square: inset one on both axes per level.
		for l := 0; w-2*l > 0 && d-2*l > 0; l++ {
			st.FillRegion([3]int{x + l, ry + l, z + l}, [3]int{w - 2*l, 1, d - 2*l}, roof)
		}
	case w > d:
		// Ridge along x.
		for l := 0; d-2*l > 0; l++ {
			st.FillRegion([3]int{x, ry + l, z + l}, [3]int{w, 1, d - 2*l}, roof)
		}
	default:
		// Ridge along z.
		for l := 0; w-2*l > 0; l++ {
			st.FillRegion([3]int{x + l, ry + l, z}, [3]int{w - 2*l, 1, d}, roof)
		}
	}
	return nil
}
