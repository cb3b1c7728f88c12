// Package farsector groups all FarBlocks sharing an (x, z) column.
package farsector

import (
	"github.com/voxelfar/farmap/internal/farblock"
	"github.com/voxelfar/farmap/internal/geom"
)

// Sector owns every FarBlock at a given (x, z), keyed by y.
type Sector struct {
	X, Z   int32
	blocks map[int32]*farblock.Block
}

// New returns an empty sector at (x, z).
func New(x, z int32) *Sector {
	return &Sector{X: x, Z: z, blocks: make(map[int32]*farblock.Block)}
}

// Get returns the block at y, if any.
func (s *Sector) Get(y int32) (*farblock.Block, bool) {
	b, ok := s.blocks[y]
	return b, ok
}

// Set inserts or replaces the block at y. Exclusive ownership of the
// sector's blocks means the caller must not retain a pointer to a replaced
// block.
func (s *Sector) Set(y int32, b *farblock.Block) {
	s.blocks[y] = b
}

// All returns every block in the sector, for traversal (draw scheduler,
// fetch advisor bookkeeping).
func (s *Sector) All() map[int32]*farblock.Block {
	return s.blocks
}

// Pos combines the sector's (x, z) with y to form a full far-block
// position.
func (s *Sector) Pos(y int32) geom.Vec3i {
	return geom.Vec3i{X: s.X, Y: y, Z: s.Z}
}
