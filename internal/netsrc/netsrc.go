// Package netsrc represents the out-of-scope network layer: a feed of
// compressed FarBlock payloads the decode task consumes.
package netsrc

import "github.com/voxelfar/farmap/internal/wire"

// PayloadSource delivers compressed FarBlock payloads as they arrive from
// the server. Poll returns ok=false when nothing is currently pending.
type PayloadSource interface {
	Poll() (wire.CompressedFarBlock, bool)
}
