// Package fetch implements the fetch advisor (spec §4.7): it tells the
// out-of-scope network layer which FarBlock coordinates to request next,
// paced by the worker queue's remaining capacity and a shell-by-shell
// traversal around the camera that avoids re-scanning the already-loaded
// neighborhood.
package fetch

import (
	"github.com/voxelfar/farmap/internal/config"
	"github.com/voxelfar/farmap/internal/farblock"
	"github.com/voxelfar/farmap/internal/farmap"
	"github.com/voxelfar/farmap/internal/geom"
	"github.com/voxelfar/farmap/internal/worker"
)

// retryEvery is how many Suggest calls a load-in-progress FarBlock waits
// between re-requests, matching the original's refresh_from_server_counter
// threshold of 5.
const retryEvery = 5

// resetEvery is how many Suggest calls pass before the shell cursor resets
// to 0, to catch blocks missed after a teleport.
const resetEvery = 10

// maxShellRadius bounds the traversal so a mostly-loaded neighborhood with
// no remaining candidates can't spin the shell walk forever.
const maxShellRadius = 64

// Advisor tracks the per-camera shell cursor and per-block retry counters
// the original's m_farblocks_exist_up_to_d / refresh_from_server_counter
// maintained.
type Advisor struct {
	Map      *farmap.Map
	Worker   *worker.Worker
	Settings *config.Settings

	// Visible gates SuggestAutosendFarblocksRadius; false when the FarMap
	// scene node isn't registered for rendering.
	Visible bool

	existsUpToD   int32
	callCount     int
	retryCounters map[geom.Vec3i]int
	shellCache    map[int32][]geom.Vec3i
}

// NewAdvisor returns an Advisor with Visible defaulted to true.
func NewAdvisor(m *farmap.Map, w *worker.Worker, s *config.Settings) *Advisor {
	return &Advisor{
		Map:           m,
		Worker:        w,
		Settings:      s,
		Visible:       true,
		retryCounters: make(map[geom.Vec3i]int),
		shellCache:    make(map[int32][]geom.Vec3i),
	}
}

// Suggest returns at most (max_queue - in_queue_length) FarBlock coordinates
// to request next, walking outward shell by shell from cameraFarBlockPos.
func (a *Advisor) Suggest(cameraFarBlockPos geom.Vec3i) []geom.Vec3i {
	wanted := int(a.Worker.MaxQueueLength() - a.Worker.QueueLength())
	if wanted <= 0 {
		return nil
	}

	a.callCount++
	if a.callCount%resetEvery == 0 {
		a.existsUpToD = 0
	}

	var out []geom.Vec3i
	d := a.existsUpToD
	for d <= maxShellRadius && len(out) < wanted {
		shellFullyResolved := true
		for _, off := range a.shell(d) {
			p := cameraFarBlockPos.Add(off)
			if a.considerCandidate(p, &out) {
				shellFullyResolved = false
			}
			if len(out) >= wanted {
				break
			}
		}
		if shellFullyResolved && d == a.existsUpToD {
			a.existsUpToD = d + 1
		}
		d++
	}
	return out
}

// considerCandidate applies the per-block state machine from spec §4.7's
// table, appending p to out when it should be (re-)requested. It reports
// whether p is not yet fully resolved (missing or still loading), which
// keeps the shell cursor from skipping past it on future calls.
func (a *Advisor) considerCandidate(p geom.Vec3i, out *[]geom.Vec3i) bool {
	b, ok := a.Map.GetBlock(p)
	if !ok {
		*out = append(*out, p)
		return true
	}
	if b.LoadInProgressOnServer {
		a.retryCounters[p]++
		if a.retryCounters[p]%retryEvery == 0 {
			*out = append(*out, p)
		}
		return true
	}
	return false
}

// shell returns every far-block offset at face-distance exactly d from the
// origin, cached across calls (the original's FacePositionCache).
func (a *Advisor) shell(d int32) []geom.Vec3i {
	if cached, ok := a.shellCache[d]; ok {
		return cached
	}
	var out []geom.Vec3i
	if d == 0 {
		out = []geom.Vec3i{{}}
	} else {
		for x := -d; x <= d; x++ {
			for y := -d; y <= d; y++ {
				for z := -d; z <= d; z++ {
					p := geom.Vec3i{X: x, Y: y, Z: z}
					if p.FaceDistance(geom.Vec3i{}) == d {
						out = append(out, p)
					}
				}
			}
		}
	}
	a.shellCache[d] = out
	return out
}

// SuggestAutosendFarblocksRadius returns the configured far range in
// far-block units, or zero while the FarMap is hidden.
func (a *Advisor) SuggestAutosendFarblocksRadius() int {
	if !a.Visible {
		return 0
	}
	blockNodes := int(farblock.MapBlockSize * farblock.FarBlockMBs)
	return (int(a.Settings.FarMapRange()) + blockNodes - 1) / blockNodes
}

// SuggestFogDistance returns a distance slightly inside the far range to
// mask the visible edge of the far terrain, following the original's
// two-branch formula (a tighter margin once the range itself is small).
func (a *Advisor) SuggestFogDistance() float32 {
	mb := float32(farblock.MapBlockSize)
	fmp := float32(farblock.FarBlockMBs)
	r := float32(a.Settings.FarMapRange())
	if r < 150 {
		return (r - mb*fmp/4) * farblock.BS
	}
	return (r - mb*fmp/2) * farblock.BS
}
