// Package detail runs the post-generation surfacing pass. It walks every
// materialized chunk once and retags voxels in place from a deterministic
// per-coordinate noise value. The pass never materializes chunks and never
// reads across a chunk boundary, so it parallelizes trivially if it ever
// needs to.
package detail

import (
	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/voxel"
)

// DefaultThreshold is the noise cutoff for sprouting grass on dirt.
const DefaultThreshold = 0.8

// Apply scans the store and returns the number of voxels it retagged.
// Current rule set: dirt with air directly above in the same chunk becomes
// grass when its noise exceeds the threshold. Voxels on a chunk's top local
// layer are left alone rather than peeking into the chunk above.
func Apply(st *voxel.Store, pal *palette.Palette, threshold float64) int {
	dirt := pal.Resolve("dirt")
	grass := pal.Resolve("grass")
	changed := 0
	for _, key := range st.Keys() {
		c := st.ChunkAt(key)
		bx := key.CX * voxel.Side
		by := key.CY * voxel.Side
		bz := key.CZ * voxel.Side
		for i, v := range c.Blocks {
			if v == palette.Air {
				continue
			}
			rx := i % voxel.Side
			ry := (i % voxel.Area) / voxel.Side
			rz := i / voxel.Area
			if v != dirt || ry >= voxel.Side-1 || c.Blocks[i+voxel.Side] != palette.Air {
				continue
			}
			if voxel.Noise01(voxel.LatticeHash(bx+rx, by+ry, bz+rz)) > threshold {
				c.Blocks[i] = grass
				changed++
			}
		}
	}
	return changed
}
