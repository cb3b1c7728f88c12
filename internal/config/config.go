// Package config holds the explicit settings struct FarMap is constructed
// with. There is no process-wide singleton here: callers own a *Settings
// and pass it in, so the core never reaches into global state.
package config

import "sync"

// Settings mirrors the string-keyed configuration queries the far renderer
// used to poll (enable_shaders, far_map_range, far_map_atlas_node_resolution,
// ...), but as typed fields on a value the caller constructs and owns.
type Settings struct {
	mu sync.RWMutex

	enableShaders     bool
	trilinearFilter   bool
	bilinearFilter    bool
	anisotropicFilter bool

	farMapRange          int16
	atlasNodeResolution  int32
	fineMeshDistance     float32
	autosendRadiusBlocks int
}

// Default returns a Settings with the same defaults the original client
// shipped with.
func Default() *Settings {
	return &Settings{
		enableShaders:        true,
		trilinearFilter:      false,
		bilinearFilter:       true,
		anisotropicFilter:    false,
		farMapRange:          500,
		atlasNodeResolution:  16,
		fineMeshDistance:     1000, // in BS units; multiplied by BS by callers
		autosendRadiusBlocks: 4,
	}
}

func (s *Settings) EnableShaders() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enableShaders
}

func (s *Settings) SetEnableShaders(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enableShaders = v
}

func (s *Settings) TrilinearFilter() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trilinearFilter
}

func (s *Settings) BilinearFilter() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bilinearFilter
}

func (s *Settings) AnisotropicFilter() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anisotropicFilter
}

// FarMapRange returns the configured far-map range, clamped to >= 100.
func (s *Settings) FarMapRange() int16 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.farMapRange
}

// SetFarMapRange clamps to >= 100, matching the original's internal clamp.
func (s *Settings) SetFarMapRange(r int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r < 100 {
		r = 100
	}
	s.farMapRange = r
}

// AtlasNodeResolution returns the configured atlas node resolution, clamped
// to >= 1.
func (s *Settings) AtlasNodeResolution() int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.atlasNodeResolution
}

func (s *Settings) SetAtlasNodeResolution(r int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r < 1 {
		r = 1
	}
	s.atlasNodeResolution = r
}

// FineMeshDistance is the distance (in BS units, pre-multiply) below which
// the draw scheduler prefers the fine mesh over the crude mesh. The
// original hardcoded this to roughly 1000*BS; here it is configurable.
func (s *Settings) FineMeshDistance() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fineMeshDistance
}

func (s *Settings) SetFineMeshDistance(d float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < 0 {
		d = 0
	}
	s.fineMeshDistance = d
}

// AutosendRadiusBlocks is a standalone radius setting in far-blocks. The
// fetch advisor's SuggestAutosendFarblocksRadius does not read it; it
// derives its radius from FarMapRange.
func (s *Settings) AutosendRadiusBlocks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autosendRadiusBlocks
}

func (s *Settings) SetAutosendRadiusBlocks(r int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r < 1 {
		r = 1
	}
	s.autosendRadiusBlocks = r
}
