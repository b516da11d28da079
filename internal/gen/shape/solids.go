package shape

import (
	"fmt"

	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/voxel"
)

// Box fills the half-open region [position, position+size).
type Box struct {
	Position [3]int `json:"position"`
	Size     [3]int `json:"size"`
	Material string `json:"material"`
}

func (b *Box) Kind() string { return KindBox }

func (b *Box) Rasterize(st *voxel.Store, pal *palette.Palette) error {
	st.FillRegion(b.Position, b.Size, pal.Resolve(b.Material))
	return nil
}

// Sphere fills every lattice point within radius of the center, boundary
// inclusive.
type Sphere struct {
	Center   [3]int `json:"center"`
	Radius   int    `json:"radius"`
	Material string `json:"material"`
}

func (s *Sphere) Kind() string { return KindSphere }

func (s *Sphere) Rasterize(st *voxel.Store, pal *palette.Palette) error {
	fillBall(st, s.Center, s.Radius, pal.Resolve(s.Material))
	return nil
}

// fillBall stamps a solid sphere, dist*dist <= r*r over the inclusive AABB.
// Shrub reuses it, and the tree canopy uses the same membership rule.
func fillBall(st *voxel.Store, center [3]int, r int, id uint16) {
	if r < 0 {
		return
	}
	rr := r * r
	for dz := -r; dz <= r; dz++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx*dx+dy*dy+dz*dz <= rr {
					st.SetVoxel(center[0]+dx, center[1]+dy, center[2]+dz, id)
				}
			}
		}
	}
}

// Pyramid stacks centered square layers above the base center. Layer k has
// half-width height-k-1, so the apex lands at base.y+height-1.
type Pyramid struct {
	Base     [3]int `json:"base"`
	Height   int    `json:"height"`
	Material string `json:"material"`
}

func (p *Pyramid) Kind() string { return KindPyramid }

func (p *Pyramid) Rasterize(st *voxel.Store, pal *palette.Palette) error {
	id := pal.Resolve(p.Material)
	for k := 0; k < p.Height; k++ {
		half := p.Height - k - 1
		if half < 0 {
			break
		}
		y := p.Base[1] + k
		for dz := -half; dz <= half; dz++ {
			for dx := -half; dx <= half; dx++ {
				st.SetVoxel(p.Base[0]+dx, y, p.Base[2]+dz, id)
			}
		}
	}
	return nil
}

// Cylinder extrudes a filled disk along one axis for height layers.
type Cylinder struct {
	Base     [3]int `json:"base"`
	Radius   int    `json:"radius"`
	Height   int    `json:"height"`
	Axis     string `json:"axis"`
	Material string `json:"material"`
}

func (c *Cylinder) Kind() string { return KindCylinder }

func (c *Cylinder) Rasterize(st *voxel.Store, pal *palette.Palette) error {
	switch c.Axis {
	case "x", "y", "z":
	default:
		return fmt.Errorf("cylinder: unknown axis %q", c.Axis)
	}
	id := pal.Resolve(c.Material)
	r := c.Radius
	rr := r * r
	for j := 0; j < c.Height; j++ {
		for db := -r; db <= r; db++ {
			for da := -r; da <= r; da++ {
				if da*da+db*db > rr {
					continue
				}
				switch c.Axis {
				case "x":
					st.SetVoxel(c.Base[0]+j, c.Base[1]+da, c.Base[2]+db, id)
				case "y":
					st.SetVoxel(c.Base[0]+da, c.Base[1]+j, c.Base[2]+db, id)
				case "z":
					st.SetVoxel(c.Base[0]+da, c.Base[1]+db, c.Base[2]+j, id)
				}
			}
		}
	}
	return nil
}

// Wedge is a box whose fill height ramps from zero at the low edge to the
// full height at the far edge. Orientation picks which face is low: xp/zp
// ramp upward with increasing x/z, xn/zn the reverse.
type Wedge struct {
	Position    [3]int `json:"position"`
	Size        [3]int `json:"size"`
	Orientation string `json:"orientation"`
	Material    string `json:"material"`
}

func (w *Wedge) Kind() string { return KindWedge }

func (w *Wedge) Rasterize(st *voxel.Store, pal *palette.Palette) error {
	switch w.Orientation {
	case "xp", "xn", "zp", "zn":
	default:
		return fmt.Errorf("wedge: unknown orientation %q", w.Orientation)
	}
	sx, sy, sz := w.Size[0], w.Size[1], w.Size[2]
	if sx <= 0 || sy <= 0 || sz <= 0 {
		return nil
	}
	id := pal.Resolve(w.Material)
	for lz := 0; lz < sz; lz++ {
		for lx := 0; lx < sx; lx++ {
			var t, n int
			switch w.Orientation {
			case "xp":
				t, n = lx, sx
			case "xn":
				t, n = sx-1-lx, sx
			case "zp":
				t, n = lz, sz
			case "zn":
				t, n = sz-1-lz, sz
			}
			top := (t+1)*sy/n - 1
			for ly := 0; ly <= top; ly++ {
				st.SetVoxel(w.Position[0]+lx, w.Position[1]+ly, w.Position[2]+lz, id)
			}
		}
	}
	return nil
}
