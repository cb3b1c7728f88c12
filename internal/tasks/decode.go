// Package tasks provides the worker.Task implementations the main thread
// posts to the background worker: decoding a network payload into a
// FarBlock's content, and building a FarBlock's meshes at a target LOD.
package tasks

import (
	"log"

	"github.com/voxelfar/farmap/internal/farblock"
	"github.com/voxelfar/farmap/internal/farmap"
	"github.com/voxelfar/farmap/internal/farnode"
	"github.com/voxelfar/farmap/internal/wire"
)

// DecodeTask inflates a CompressedFarBlock off the main thread and, in its
// sync phase, applies the result to the owning FarMap. This is the
// FarBlockInsertTask of spec §4.3.
type DecodeTask struct {
	Map     *farmap.Map
	Logger  *log.Logger
	Payload wire.CompressedFarBlock

	content []farnode.FarNode
	err     error
}

// InThread inflates the payload's blob, if any, into a content-area-sized
// buffer. It touches no shared state: content/err are written only here and
// read only by Sync, after the worker hands the task to the sync queue.
func (t *DecodeTask) InThread() {
	if !t.Payload.Status.IsLoaded() {
		return
	}
	bp := farblock.NewBasicParameters(t.Payload.Position, t.Payload.DivsPerMB)
	effective, err := wire.Decode(t.Payload.Blob, bp.EffectiveSize)
	if err != nil {
		t.err = err
		return
	}
	t.content = wire.PlaceIntoContentArea(effective, bp.EffectiveSize, bp.ContentArea)
}

// Sync dispatches by status exactly per spec §4.3's main-thread table. A
// malformed payload (t.err != nil) is a no-op, leaving the FarBlock (if any)
// as a stub so the fetch advisor re-requests it.
func (t *DecodeTask) Sync() {
	if t.err != nil {
		if t.Logger != nil {
			t.Logger.Printf("farmap: discarding malformed payload at %+v: %v", t.Payload.Position, t.err)
		}
		return
	}
	switch t.Payload.Status {
	case wire.StatusFullyLoaded:
		t.Map.InsertFarBlock(t.Payload.Position, t.Payload.DivsPerMB, t.content, false)
	case wire.StatusPartlyLoaded:
		t.Map.InsertFarBlock(t.Payload.Position, t.Payload.DivsPerMB, t.content, true)
	case wire.StatusEmpty:
		t.Map.InsertEmptyBlock(t.Payload.Position)
	case wire.StatusCulled:
		t.Map.InsertCulledBlock(t.Payload.Position)
	case wire.StatusLoadInProgress:
		t.Map.InsertLoadInProgressBlock(t.Payload.Position)
	}
}
