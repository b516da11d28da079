package shape

import (
	"testing"

	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/voxel"
)

func countNonAir(st *voxel.Store) int {
	n := 0
	for _, k := range st.Keys() {
		for _, v := range st.ChunkAt(k).Blocks {
			if v != palette.Air {
				n++
			}
		}
	}
	return n
}

func TestBox_HalfOpenBounds(t *testing.T) {
	st := voxel.NewStore()
	pal := palette.Default()
	b := &Box{Position: [3]int{0, 0, 0}, Size: [3]int{2, 2, 2}, Material: "stone"}
	if err := b.Rasterize(st, pal); err != nil {
		t.Fatal(err)
	}
	stone, _ := pal.ID("stone")
	if got := st.GetVoxel(1, 1, 1); got != stone {
		t.Fatalf("inside voxel = %d, want %d", got, stone)
	}
	if got := st.GetVoxel(2, 0, 0); got != palette.Air {
		t.Fatalf("upper bound voxel = %d, want air", got)
	}
	if n := countNonAir(st); n != 8 {
		t.Fatalf("filled %d voxels, want 8", n)
	}
}

func TestSphere_BoundaryInclusive(t *testing.T) {
	st := voxel.NewStore()
	pal := palette.Default()
	s := &Sphere{Center: [3]int{0, 0, 0}, Radius: 3, Material: "stone"}
	if err := s.Rasterize(st, pal); err != nil {
		t.Fatal(err)
	}
	stone, _ := pal.ID("stone")
	// 2^2+2^2+1 = 9 = r^2 sits exactly on the boundary and is included.
	if got := st.GetVoxel(2, 2, 1); got != stone {
		t.Fatalf("boundary voxel = %d, want %d", got, stone)
	}
	// 3^2+1 = 10 > 9 is outside.
	if got := st.GetVoxel(3, 1, 0); got != palette.Air {
		t.Fatalf("outside voxel = %d, want air", got)
	}
	if n := countNonAir(st); n != 123 {
		t.Fatalf("filled %d voxels, want 123", n)
	}
}

func TestSphere_NegativeRadiusNoop(t *testing.T) {
	st := voxel.NewStore()
	s := &Sphere{Center: [3]int{0, 0, 0}, Radius: -1, Material: "stone"}
	if err := s.Rasterize(st, palette.Default()); err != nil {
		t.Fatal(err)
	}
	if st.Len() != 0 {
		t.Fatalf("store has %d chunks, want 0", st.Len())
	}
}

func TestPyramid_LayerHalfWidths(t *testing.T) {
	st := voxel.NewStore()
	pal := palette.Default()
	p := &Pyramid{Base: [3]int{0, 0, 0}, Height: 3, Material: "brick"}
	if err := p.Rasterize(st, pal); err != nil {
		t.Fatal(err)
	}
	brick, _ := pal.ID("brick")
	// Base layer half-width 2, then 1, then the apex. 25+9+1 voxels.
	if n := countNonAir(st); n != 35 {
		t.Fatalf("filled %d voxels, want 35", n)
	}
	if got := st.GetVoxel(2, 0, -2); got != brick {
		t.Fatalf("base corner = %d, want %d", got, brick)
	}
	if got := st.GetVoxel(2, 1, 0); got != palette.Air {
		t.Fatalf("outside middle layer = %d, want air", got)
	}
	if got := st.GetVoxel(0, 2, 0); got != brick {
		t.Fatalf("apex = %d, want %d", got, brick)
	}
}

func TestPyramid_NonPositiveHeightNoop(t *testing.T) {
	st := voxel.NewStore()
	p := &Pyramid{Base: [3]int{0, 0, 0}, Height: 0, Material: "brick"}
	if err := p.Rasterize(st, palette.Default()); err != nil {
		t.Fatal(err)
	}
	if st.Len() != 0 {
		t.Fatalf("store has %d chunks, want 0", st.Len())
	}
}

func TestCylinder_Axes(t *testing.T) {
	pal := palette.Default()
	metal, _ := pal.ID("metal")

	st := voxel.NewStore()
	c := &Cylinder{Base: [3]int{0, 0, 0}, Radius: 1, Height: 2, Axis: "y", Material: "metal"}
	if err := c.Rasterize(st, pal); err != nil {
		t.Fatal(err)
	}
	if got := st.GetVoxel(1, 1, 0); got != metal {
		t.Fatalf("disk edge = %d, want %d", got, metal)
	}
	if got := st.GetVoxel(1, 0, 1); got != palette.Air {
		t.Fatalf("disk corner = %d, want air", got)
	}
	// Two 5-voxel disks.
	if n := countNonAir(st); n != 10 {
		t.Fatalf("filled %d voxels, want 10", n)
	}

	st = voxel.NewStore()
	c = &Cylinder{Base: [3]int{0, 0, 0}, Radius: 1, Height: 3, Axis: "x", Material: "metal"}
	if err := c.Rasterize(st, pal); err != nil {
		t.Fatal(err)
	}
	if got := st.GetVoxel(2, 1, 0); got != metal {
		t.Fatalf("extruded along x: voxel = %d, want %d", got, metal)
	}
}

func TestCylinder_UnknownAxis(t *testing.T) {
	st := voxel.NewStore()
	c := &Cylinder{Base: [3]int{0, 0, 0}, Radius: 1, Height: 1, Axis: "w", Material: "metal"}
	if err := c.Rasterize(st, palette.Default()); err == nil {
		t.Fatal("expected error for unknown axis")
	}
	if st.Len() != 0 {
		t.Fatalf("store has %d chunks after failed shape, want 0", st.Len())
	}
}

func TestWedge_RampProfile(t *testing.T) {
	st := voxel.NewStore()
	pal := palette.Default()
	w := &Wedge{Position: [3]int{0, 0, 0}, Size: [3]int{4, 4, 4}, Orientation: "xp", Material: "stone"}
	if err := w.Rasterize(st, pal); err != nil {
		t.Fatal(err)
	}
	stone, _ := pal.ID("stone")
	// Column lx has top (lx+1)*4/4-1 = lx: a staircase to the full height.
	for lx := 0; lx < 4; lx++ {
		if got := st.GetVoxel(lx, lx, 0); got != stone {
			t.Fatalf("column %d top missing", lx)
		}
		if got := st.GetVoxel(lx, lx+1, 0); got != palette.Air {
			t.Fatalf("column %d overfilled", lx)
		}
	}
	if n := countNonAir(st); n != 40 {
		t.Fatalf("filled %d voxels, want 40", n)
	}
}

func TestWedge_OrientationFlips(t *testing.T) {
	st := voxel.NewStore()
	pal := palette.Default()
	w := &Wedge{Position: [3]int{0, 0, 0}, Size: [3]int{4, 4, 4}, Orientation: "xn", Material: "stone"}
	if err := w.Rasterize(st, pal); err != nil {
		t.Fatal(err)
	}
	stone, _ := pal.ID("stone")
	// High edge moved to lx=0.
	if got := st.GetVoxel(0, 3, 0); got != stone {
		t.Fatalf("xn high edge = %d, want %d", got, stone)
	}
	if got := st.GetVoxel(3, 1, 0); got != palette.Air {
		t.Fatalf("xn low edge = %d, want air", got)
	}
}

func TestWedge_UnknownOrientation(t *testing.T) {
	w := &Wedge{Position: [3]int{0, 0, 0}, Size: [3]int{2, 2, 2}, Orientation: "up", Material: "stone"}
	if err := w.Rasterize(voxel.NewStore(), palette.Default()); err == nil {
		t.Fatal("expected error for unknown orientation")
	}
}

func TestLine_TruncatedInterpolation(t *testing.T) {
	st := voxel.NewStore()
	pal := palette.Default()
	l := &Line{Start: [3]int{0, 0, 0}, End: [3]int{2, 1, 0}, Width: 1, Material: "asphalt"}
	if err := l.Rasterize(st, pal); err != nil {
		t.Fatal(err)
	}
	asphalt, _ := pal.ID("asphalt")
	// steps=2 samples (0,0,0), (1,0,0) from t=0.5, (2,1,0).
	want := [][3]int{{0, 0, 0}, {1, 0, 0}, {2, 1, 0}}
	for _, p := range want {
		if got := st.GetVoxel(p[0], p[1], p[2]); got != asphalt {
			t.Fatalf("sample %v = %d, want %d", p, got, asphalt)
		}
	}
	if got := st.GetVoxel(1, 1, 0); got != palette.Air {
		t.Fatalf("midpoint rounded up, want truncation")
	}
	if n := countNonAir(st); n != 3 {
		t.Fatalf("stamped %d voxels, want 3", n)
	}
}

func TestLine_WidthStampFloorBiased(t *testing.T) {
	st := voxel.NewStore()
	pal := palette.Default()
	l := &Line{Start: [3]int{5, 5, 5}, End: [3]int{5, 5, 5}, Width: 2, Material: "stone"}
	if err := l.Rasterize(st, pal); err != nil {
		t.Fatal(err)
	}
	stone, _ := pal.ID("stone")
	// Width 2 covers offsets -1 and 0 on every axis.
	if got := st.GetVoxel(4, 4, 4); got != stone {
		t.Fatalf("negative offset corner = %d, want %d", got, stone)
	}
	if got := st.GetVoxel(6, 5, 5); got != palette.Air {
		t.Fatalf("positive overflow = %d, want air", got)
	}
	if n := countNonAir(st); n != 8 {
		t.Fatalf("stamped %d voxels, want 8", n)
	}
}

func TestLine_ZeroLengthAndNegativeWidth(t *testing.T) {
	st := voxel.NewStore()
	pal := palette.Default()
	l := &Line{Start: [3]int{1, 2, 3}, End: [3]int{1, 2, 3}, Width: 1, Material: "stone"}
	if err := l.Rasterize(st, pal); err != nil {
		t.Fatal(err)
	}
	if n := countNonAir(st); n != 1 {
		t.Fatalf("zero-length line stamped %d voxels, want 1", n)
	}

	st = voxel.NewStore()
	l = &Line{Start: [3]int{0, 0, 0}, End: [3]int{5, 0, 0}, Width: -2, Material: "stone"}
	if err := l.Rasterize(st, pal); err != nil {
		t.Fatal(err)
	}
	if st.Len() != 0 {
		t.Fatalf("negative width wrote %d chunks, want 0", st.Len())
	}
}
