package shape

import (
	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/voxel"
)

// Line walks from start to end in max(|dx|,|dy|,|dz|) interpolation steps
// and stamps a width-edge cube at each sample. Both endpoints are stamped;
// a zero-length line stamps once.
type Line struct {
	Start    [3]int `json:"start"`
	End      [3]int `json:"end"`
	Width    int    `json:"width"`
	Material string `json:"material"`
}

func (l *Line) Kind() string { return KindLine }

func (l *Line) Rasterize(st *voxel.Store, pal *palette.Palette) error {
	if l.Width < 0 {
		return nil
	}
	id := pal.Resolve(l.Material)
	dx := l.End[0] - l.Start[0]
	dy := l.End[1] - l.Start[1]
	dz := l.End[2] - l.Start[2]
	steps := maxInt(absInt(dx), maxInt(absInt(dy), absInt(dz)))
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		// Truncation, not rounding: matches the sample positions the rest
		// of the pipeline was calibrated against.
		px := int(float64(l.Start[0]) + t*float64(dx))
		py := int(float64(l.Start[1]) + t*float64(dy))
		pz := int(float64(l.Start[2]) + t*float64(dz))
		l.stamp(st, px, py, pz, id)
	}
	return nil
}

// stamp writes a width-edge cube centered floor-biased on the point, so a
// width of 2 extends one voxel toward negative and one at the point.
func (l *Line) stamp(st *voxel.Store, x, y, z int, id uint16) {
	off := -(l.Width / 2)
	for oz := off; oz < off+l.Width; oz++ {
		for oy := off; oy < off+l.Width; oy++ {
			for ox := off; ox < off+l.Width; ox++ {
				st.SetVoxel(x+ox, y+oy, z+oz, id)
			}
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
