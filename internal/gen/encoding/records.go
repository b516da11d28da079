package encoding

import (
	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/voxel"
)

// ChunkRecord is the external form of one touched chunk. The palette is the
// same fixed list on every record; consumers rely on it for self-description.
type ChunkRecord struct {
	Position [3]int   `json:"position"`
	RLEData  string   `json:"rle_data"`
	Palette  []string `json:"palette"`
}

// Records emits one record per materialized chunk, in stable key order.
// Chunks that were never touched are never emitted.
func Records(st *voxel.Store, pal *palette.Palette) []ChunkRecord {
	keys := st.Keys()
	out := make([]ChunkRecord, 0, len(keys))
	for _, key := range keys {
		c := st.ChunkAt(key)
		out = append(out, ChunkRecord{
			Position: [3]int{key.CX, key.CY, key.CZ},
			RLEData:  EncodeRuns(c.Blocks),
			Palette:  pal.Names,
		})
	}
	return out
}
