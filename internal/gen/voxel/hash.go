package voxel

// Deterministic coordinate hashing for procedural variation. All arithmetic
// is fixed-width unsigned with wraparound, so results match across
// platforms; coordinates pass through their uint32 two's-complement form.

// LatticeHash mixes a world coordinate into a reproducible seed. Trees and
// the detail pass key their variation off this, which is what makes
// re-running the same edit idempotent.
func LatticeHash(x, y, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	uz := uint64(uint32(int32(z)))
	return (ux * 73856093) ^ (uy * 19349663) ^ (uz * 83492791)
}

// Noise01 folds a hash to [0, 1) in hundredths.
func Noise01(h uint64) float64 {
	return float64(h%100) / 100.0
}

// SeededHash combines a session seed with a lattice position, for variation
// that should differ between seeds (forest scatter) rather than stay pinned
// to the coordinate alone.
func SeededHash(seed int64, x, y, z int) uint64 {
	return mix64(uint64(seed) ^ LatticeHash(x, y, z))
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
