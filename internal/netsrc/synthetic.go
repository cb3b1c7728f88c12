package netsrc

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/zlib"

	"github.com/voxelfar/farmap/internal/farblock"
	"github.com/voxelfar/farmap/internal/farnode"
	"github.com/voxelfar/farmap/internal/geom"
	"github.com/voxelfar/farmap/internal/wire"
)

// SyntheticSource stands in for the out-of-scope network layer in the demo
// binary: it answers every requested FarBlock position immediately with a
// deterministic rolling-terrain payload, using the same integer hash the
// teacher's world package uses for its chunk heightmap (internal/world/
// noise.go's hash2): one hash per (x, z) FarNode column picks that
// column's surface height, with stone at and below it and air above.
type SyntheticSource struct {
	Seed      int64
	DivsPerMB geom.Vec3i

	pending []geom.Vec3i
}

// NewSyntheticSource returns a source that answers every FarBlock at the
// default subdivision (one FarNode per map-block).
func NewSyntheticSource(seed int64) *SyntheticSource {
	return &SyntheticSource{Seed: seed, DivsPerMB: geom.Vec3i{X: 1, Y: 1, Z: 1}}
}

// Request queues position to be answered on a future Poll, standing in for
// the advisor's suggestions being sent out over the network.
func (s *SyntheticSource) Request(position geom.Vec3i) {
	s.pending = append(s.pending, position)
}

// Poll answers the oldest queued request, deflating its generated content
// exactly as the real server's wire format would.
func (s *SyntheticSource) Poll() (wire.CompressedFarBlock, bool) {
	if len(s.pending) == 0 {
		return wire.CompressedFarBlock{}, false
	}
	p := s.pending[0]
	s.pending = s.pending[1:]

	bp := farblock.NewBasicParameters(p, s.DivsPerMB)
	blob := s.deflate(bp)
	return wire.CompressedFarBlock{
		Position:  p,
		Status:    wire.StatusFullyLoaded,
		DivsPerMB: s.DivsPerMB,
		Blob:      blob,
	}, true
}

// deflate generates one (id, light) tuple per FarNode in the block's
// effective volume and zlib-compresses them in the wire's Z-outer,
// Y-middle, X-inner order.
func (s *SyntheticSource) deflate(bp farblock.BasicParameters) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)

	tuple := make([]byte, 3)
	for z := int32(0); z < bp.EffectiveSize.Z; z++ {
		for y := int32(0); y < bp.EffectiveSize.Y; y++ {
			for x := int32(0); x < bp.EffectiveSize.X; x++ {
				wp := bp.DP00.Add(geom.Vec3i{X: x, Y: y, Z: z})
				id := s.contentAt(wp)
				binary.LittleEndian.PutUint16(tuple[0:2], id)
				tuple[2] = 0xff
				zw.Write(tuple)
			}
		}
	}
	zw.Close()
	return buf.Bytes()
}

// contentAt returns stone below a hashed rolling surface height and air
// above it.
func (s *SyntheticSource) contentAt(p geom.Vec3i) uint16 {
	h := hash2(int64(p.X), int64(p.Z), s.Seed)
	surface := int32(h%24) - 12
	if p.Y <= surface {
		return stoneID
	}
	return farnode.AIR
}

// stoneID is the demo's single solid content id.
const stoneID uint16 = 1

// hash2 is a SplitMix64-style integer hash, ported from the teacher's
// world/noise.go lattice hash.
func hash2(x, z, seed int64) uint64 {
	v := uint64(x) + (uint64(z) << 1) + uint64(seed)*0x9E3779B97F4A7C15
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	v = v ^ (v >> 31)
	return v
}
