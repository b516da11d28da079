// Package voxel implements the chunked sparse voxel grid: a map from chunk
// coordinates to dense 32^3 material-id arrays, materialized lazily on first
// write. Reads of untouched space cost nothing and allocate nothing.
package voxel

import "sort"

const (
	// Side is the chunk edge length; Area and Volume derive from it.
	Side   = 32
	Area   = Side * Side
	Volume = Side * Side * Side

	// DefaultBound is the half-extent of the world cube: coordinates live in
	// [-DefaultBound, DefaultBound) on every axis.
	DefaultBound = 512
)

type ChunkKey struct {
	CX, CY, CZ int
}

// Chunk owns a dense Volume-sized array, linearized x + y*Side + z*Area.
type Chunk struct {
	Blocks []uint16
}

// Store maps chunk coordinates to chunks for one generation session. It is
// not safe for concurrent use; concurrent requests each build their own.
type Store struct {
	chunks map[ChunkKey]*Chunk
	bound  int

	min, max [3]int
	touched  bool
}

func NewStore() *Store {
	return NewBounded(DefaultBound)
}

// NewBounded builds a store whose writes are confined to [-bound, bound)
// per axis. Writes outside are dropped silently: shape generators are
// allowed to overshoot the world edge.
func NewBounded(bound int) *Store {
	if bound <= 0 {
		bound = DefaultBound
	}
	return &Store{
		chunks: make(map[ChunkKey]*Chunk),
		bound:  bound,
	}
}

func (s *Store) Bound() int { return s.bound }

// Len reports the number of materialized chunks.
func (s *Store) Len() int { return len(s.chunks) }

// Index linearizes local chunk coordinates.
func Index(rx, ry, rz int) int { return rx + ry*Side + rz*Area }

// Split maps one world coordinate to its chunk coordinate and local offset
// with floor semantics, so chunk -1 covers [-Side, -1].
func Split(v int) (c, r int) {
	return floorDiv(v, Side), mod(v, Side)
}

func (s *Store) inBounds(x, y, z int) bool {
	b := s.bound
	return x >= -b && x < b && y >= -b && y < b && z >= -b && z < b
}

func (s *Store) chunk(key ChunkKey) *Chunk {
	c, ok := s.chunks[key]
	if !ok {
		c = &Chunk{Blocks: make([]uint16, Volume)}
		s.chunks[key] = c
	}
	return c
}

func (s *Store) mark(x, y, z int) {
	if !s.touched {
		s.min = [3]int{x, y, z}
		s.max = [3]int{x, y, z}
		s.touched = true
		return
	}
	if x < s.min[0] {
		s.min[0] = x
	}
	if y < s.min[1] {
		s.min[1] = y
	}
	if z < s.min[2] {
		s.min[2] = z
	}
	if x > s.max[0] {
		s.max[0] = x
	}
	if y > s.max[1] {
		s.max[1] = y
	}
	if z > s.max[2] {
		s.max[2] = z
	}
}

// SetVoxel writes one material id. Out-of-bounds writes are dropped.
// Last writer wins.
func (s *Store) SetVoxel(x, y, z int, id uint16) {
	if !s.inBounds(x, y, z) {
		return
	}
	cx, rx := Split(x)
	cy, ry := Split(y)
	cz, rz := Split(z)
	c := s.chunk(ChunkKey{cx, cy, cz})
	c.Blocks[Index(rx, ry, rz)] = id
	s.mark(x, y, z)
}

// GetVoxel reads one material id. Untouched space reads as air without
// materializing a chunk.
func (s *Store) GetVoxel(x, y, z int) uint16 {
	cx, rx := Split(x)
	cy, ry := Split(y)
	cz, rz := Split(z)
	c, ok := s.chunks[ChunkKey{cx, cy, cz}]
	if !ok {
		return 0
	}
	return c.Blocks[Index(rx, ry, rz)]
}

// FillRegion writes the axis-aligned box [start, start+size), clipped to the
// world bound. Chunks fully covered by the box are bulk-filled; partial
// overlaps fall back to row writes inside the intersection. Non-positive
// sizes degrade to a no-op.
func (s *Store) FillRegion(start, size [3]int, id uint16) {
	b := s.bound
	sx, ex := clampSpan(start[0], size[0], b)
	sy, ey := clampSpan(start[1], size[1], b)
	sz, ez := clampSpan(start[2], size[2], b)
	if sx >= ex || sy >= ey || sz >= ez {
		return
	}

	minCX := floorDiv(sx, Side)
	minCY := floorDiv(sy, Side)
	minCZ := floorDiv(sz, Side)
	maxCX := floorDiv(ex-1, Side)
	maxCY := floorDiv(ey-1, Side)
	maxCZ := floorDiv(ez-1, Side)

	for cx := minCX; cx <= maxCX; cx++ {
		for cy := minCY; cy <= maxCY; cy++ {
			for cz := minCZ; cz <= maxCZ; cz++ {
				csx, csy, csz := cx*Side, cy*Side, cz*Side

				isx, iex := maxInt(sx, csx), minInt(ex, csx+Side)
				isy, iey := maxInt(sy, csy), minInt(ey, csy+Side)
				isz, iez := maxInt(sz, csz), minInt(ez, csz+Side)

				c := s.chunk(ChunkKey{cx, cy, cz})

				if iex-isx == Side && iey-isy == Side && iez-isz == Side {
					fillChunk(c, id)
					continue
				}

				lsx, lex := isx-csx, iex-csx
				for rz := isz - csz; rz < iez-csz; rz++ {
					zoff := rz * Area
					for ry := isy - csy; ry < iey-csy; ry++ {
						row := c.Blocks[zoff+ry*Side+lsx : zoff+ry*Side+lex]
						for i := range row {
							row[i] = id
						}
					}
				}
			}
		}
	}
	s.mark(sx, sy, sz)
	s.mark(ex-1, ey-1, ez-1)
}

// Keys returns the materialized chunk coordinates sorted by (CZ, CY, CX) so
// downstream output is stable across runs.
func (s *Store) Keys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.CZ != b.CZ {
			return a.CZ < b.CZ
		}
		if a.CY != b.CY {
			return a.CY < b.CY
		}
		return a.CX < b.CX
	})
	return keys
}

// ChunkAt returns the materialized chunk at key, or nil.
func (s *Store) ChunkAt(key ChunkKey) *Chunk {
	return s.chunks[key]
}

// TouchedBounds reports the min/max world coordinates written so far.
func (s *Store) TouchedBounds() (min, max [3]int, ok bool) {
	return s.min, s.max, s.touched
}

func fillChunk(c *Chunk, id uint16) {
	for i := range c.Blocks {
		c.Blocks[i] = id
	}
}

func clampSpan(start, size, bound int) (lo, hi int) {
	lo, hi = start, start+size
	if lo < -bound {
		lo = -bound
	}
	if hi > bound {
		hi = bound
	}
	return lo, hi
}

func floorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
