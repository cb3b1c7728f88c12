// Package wire decodes the server's CompressedFarBlock payload: a
// position, subdivision count, status, and (for loaded statuses) a
// zlib-deflated stream of (id, light) tuples.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/voxelfar/farmap/internal/farnode"
	"github.com/voxelfar/farmap/internal/geom"
)

// Status mirrors the server's per-block load state.
type Status uint8

const (
	StatusFullyLoaded Status = iota
	StatusPartlyLoaded
	StatusEmpty
	StatusCulled
	StatusLoadInProgress
)

func (s Status) IsLoaded() bool {
	return s == StatusFullyLoaded || s == StatusPartlyLoaded
}

// CompressedFarBlock is the inbound network payload for one FarBlock.
type CompressedFarBlock struct {
	Position  geom.Vec3i
	Status    Status
	Flags     uint8 // reserved
	DivsPerMB geom.Vec3i
	Blob      []byte // zlib deflate stream; empty unless Status.IsLoaded()
}

// Decode inflates Blob and unpacks it into content, a slice sized to
// effectiveSize.X*Y*Z in (id u16 LE, light u8) tuples, iterated Z-outer,
// Y-middle, X-inner as the wire format specifies. It returns an error for
// a malformed payload (short read, bad zlib stream); callers must treat
// this the same as "no data" and leave the FarBlock as a stub for re-fetch.
func Decode(blob []byte, effectiveSize geom.Vec3i) ([]farnode.FarNode, error) {
	zr, err := zlib.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("wire: zlib init: %w", err)
	}
	defer zr.Close()

	n := int(effectiveSize.X) * int(effectiveSize.Y) * int(effectiveSize.Z)
	out := make([]farnode.FarNode, n)

	buf := make([]byte, 3)
	idx := 0
	for z := int32(0); z < effectiveSize.Z; z++ {
		for y := int32(0); y < effectiveSize.Y; y++ {
			for x := int32(0); x < effectiveSize.X; x++ {
				if _, err := io.ReadFull(zr, buf); err != nil {
					return nil, fmt.Errorf("wire: short read at tuple %d: %w", idx, err)
				}
				out[idx] = farnode.FarNode{
					ID:    binary.LittleEndian.Uint16(buf[0:2]),
					Light: buf[2],
				}
				idx++
			}
		}
	}
	return out, nil
}

// PlaceIntoContentArea scatters a decoded effective-size buffer into a
// content-area-sized buffer (which carries the extra +1 padding per edge
// face extraction needs), leaving padding cells as IGNORE with full light.
func PlaceIntoContentArea(effective []farnode.FarNode, effectiveSize geom.Vec3i, contentArea geom.Area) []farnode.FarNode {
	out := make([]farnode.FarNode, contentArea.Volume())
	for i := range out {
		out[i] = farnode.FarNode{ID: farnode.IGNORE, Light: 0xff}
	}
	effArea := geom.Area{
		MinEdge: contentArea.MinEdge.Add(geom.Vec3i{X: 1, Y: 1, Z: 1}),
		MaxEdge: contentArea.MinEdge.Add(geom.Vec3i{X: 1, Y: 1, Z: 1}).Add(effectiveSize).Sub(geom.Vec3i{X: 1, Y: 1, Z: 1}),
	}
	idx := 0
	for z := effArea.MinEdge.Z; z <= effArea.MaxEdge.Z; z++ {
		for y := effArea.MinEdge.Y; y <= effArea.MaxEdge.Y; y++ {
			for x := effArea.MinEdge.X; x <= effArea.MaxEdge.X; x++ {
				p := geom.Vec3i{X: x, Y: y, Z: z}
				out[contentArea.Index(p)] = effective[idx]
				idx++
			}
		}
	}
	return out
}
