// Package assets turns semantic blocks into voxels. One emitter per zone
// kind; every emitter stays inside its own BlockSize footprint, so blocks
// never contend for voxels and emission order does not matter.
package assets

import (
	"voxelito.dev/internal/gen/layout"
	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/voxel"
)

// BlockSize is the voxel pitch of one coarse grid cell. It matches the
// chunk side, which keeps most emitter fills on the bulk path.
const BlockSize = 32

// Builder emits zone assets into one store.
type Builder struct {
	st  *voxel.Store
	pal *palette.Palette
}

func NewBuilder(st *voxel.Store, pal *palette.Palette) *Builder {
	return &Builder{st: st, pal: pal}
}

// EmitAll renders every block. Water and empty cells are reserved kinds
// with nothing to render yet.
func (b *Builder) EmitAll(blocks []layout.SemanticBlock) {
	for _, blk := range blocks {
		b.Emit(blk)
	}
}

func (b *Builder) Emit(blk layout.SemanticBlock) {
	x := blk.X * BlockSize
	y := blk.Y * BlockSize
	z := blk.Z * BlockSize
	switch blk.Zone {
	case layout.ZoneRoad:
		b.road(x, y, z)
	case layout.ZoneResidential:
		b.residential(x, y, z)
	case layout.ZoneCommercial:
		b.commercial(x, y, z)
	case layout.ZonePark:
		b.park(x, y, z)
	}
}

func (b *Builder) road(x, y, z int) {
	b.st.FillRegion([3]int{x, y, z}, [3]int{BlockSize, 1, BlockSize}, b.pal.Resolve("asphalt"))
	// Dashed center line.
	white := b.pal.Resolve("road_white")
	for i := 0; i < BlockSize; i += 8 {
		b.st.FillRegion([3]int{x + 15, y, z + i + 2}, [3]int{2, 1, 4}, white)
	}
}

func (b *Builder) residential(x, y, z int) {
	b.st.FillRegion([3]int{x, y, z}, [3]int{BlockSize, 1, BlockSize}, b.pal.Resolve("grass"))

	const margin = 4
	const width = BlockSize - 2*margin
	const height = 10
	b.st.FillRegion([3]int{x + margin, y + 1, z + margin}, [3]int{width, height, width}, b.pal.Resolve("brick"))

	roof := b.pal.Resolve("roof")
	for i := 0; i < width/2; i++ {
		b.st.FillRegion(
			[3]int{x + margin + i, y + 1 + height + i, z + margin + i},
			[3]int{width - 2*i, 1, width - 2*i},
			roof,
		)
	}
}

func (b *Builder) commercial(x, y, z int) {
	b.st.FillRegion([3]int{x, y, z}, [3]int{BlockSize, 1, BlockSize}, b.pal.Resolve("concrete"))

	const margin = 2
	const width = BlockSize - 2*margin
	const height = BlockSize + 10
	b.st.FillRegion([3]int{x + margin, y + 1, z + margin}, [3]int{width, height, width}, b.pal.Resolve("metal"))

	// Window bands over the tower face, every fourth row.
	glass := b.pal.Resolve("glass")
	for h := y + 4; h < y+height; h += 4 {
		b.st.FillRegion([3]int{x + margin, h, z + margin}, [3]int{width, 1, width}, glass)
	}
	b.st.FillRegion([3]int{x + margin, y + height, z + margin}, [3]int{width, 1, width}, b.pal.Resolve("neon_blue"))
}

func (b *Builder) park(x, y, z int) {
	b.st.FillRegion([3]int{x, y, z}, [3]int{BlockSize, 1, BlockSize}, b.pal.Resolve("grass"))

	tx := x + BlockSize/2
	tz := z + BlockSize/2
	b.st.FillRegion([3]int{tx, y + 1, tz}, [3]int{2, 8, 2}, b.pal.Resolve("wood"))

	// Leaf ball over the trunk. The scan is half-open on the positive side
	// of each axis; the canopy is intentionally a voxel slimmer there.
	leaves := b.pal.Resolve("leaves")
	cy := y + 8
	const r = 6
	for lx := tx - r; lx < tx+r; lx++ {
		for ly := cy - r; ly < cy+r; ly++ {
			for lz := tz - r; lz < tz+r; lz++ {
				dx, dy, dz := lx-tx, ly-cy, lz-tz
				if dx*dx+dy*dy+dz*dz <= r*r {
					b.st.SetVoxel(lx, ly, lz, leaves)
				}
			}
		}
	}
}
