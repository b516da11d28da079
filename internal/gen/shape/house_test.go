package shape

import (
	"testing"

	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/voxel"
)

func TestHouse_SquareFootprintPyramidRoof(t *testing.T) {
	st := voxel.NewStore()
	pal := palette.Default()
	h := &House{Base: [3]int{0, 0, 0}, Width: 5, Depth: 5, Height: 3, Material: "brick", Roof: "roof"}
	if err := h.Rasterize(st, pal); err != nil {
		t.Fatal(err)
	}
	brick, _ := pal.ID("brick")
	roof, _ := pal.ID("roof")
	if got := st.GetVoxel(0, 1, 2); got != brick {
		t.Fatalf("wall voxel = %d, want brick", got)
	}
	if got := st.GetVoxel(2, 1, 2); got != palette.Air {
		t.Fatalf("interior = %d, want air (walls are hollow)", got)
	}
	if got := st.GetVoxel(2, 5, 2); got != roof {
		t.Fatalf("roof apex = %d, want roof", got)
	}
	// 16*3 wall voxels plus 25+9+1 roof voxels.
	if n := countNonAir(st); n != 83 {
		t.Fatalf("house wrote %d voxels, want 83", n)
	}
}

func TestHouse_ElongatedFootprintGableRoof(t *testing.T) {
	st := voxel.NewStore()
	pal := palette.Default()
	h := &House{Base: [3]int{0, 0, 0}, Width: 9, Depth: 4, Height: 2, Material: "brick", Roof: "roof"}
	if err := h.Rasterize(st, pal); err != nil {
		t.Fatal(err)
	}
	roof, _ := pal.ID("roof")
	// Ridge runs along x at full width; only depth shrinks per level.
	if got := st.GetVoxel(0, 3, 1); got != roof {
		t.Fatalf("ridge end = %d, want roof", got)
	}
	if got := st.GetVoxel(8, 3, 2); got != roof {
		t.Fatalf("ridge far end = %d, want roof", got)
	}
	if got := st.GetVoxel(0, 3, 0); got != palette.Air {
		t.Fatalf("gable eave overfilled at ridge level")
	}
	// 22*2 wall voxels, then 9x4 and 9x2 roof levels.
	if n := countNonAir(st); n != 98 {
		t.Fatalf("house wrote %d voxels, want 98", n)
	}
}

func TestHouse_DegenerateFootprintNoop(t *testing.T) {
	st := voxel.NewStore()
	h := &House{Base: [3]int{0, 0, 0}, Width: 0, Depth: 4, Height: 2, Material: "brick", Roof: "roof"}
	if err := h.Rasterize(st, palette.Default()); err != nil {
		t.Fatal(err)
	}
	if st.Len() != 0 {
		t.Fatalf("store has %d chunks, want 0", st.Len())
	}
}
