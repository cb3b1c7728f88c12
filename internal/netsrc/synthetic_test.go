package netsrc

import (
	"testing"

	"github.com/voxelfar/farmap/internal/geom"
)

func TestSyntheticSourcePollsRequestsFIFO(t *testing.T) {
	s := NewSyntheticSource(1)
	s.Request(geom.Vec3i{X: 1})
	s.Request(geom.Vec3i{X: 2})

	first, ok := s.Poll()
	if !ok || first.Position.X != 1 {
		t.Fatalf("expected the first request to be answered first, got %+v", first)
	}
	second, ok := s.Poll()
	if !ok || second.Position.X != 2 {
		t.Fatalf("expected the second request next, got %+v", second)
	}
	if _, ok := s.Poll(); ok {
		t.Fatalf("expected no more pending payloads")
	}
}

func TestSyntheticSourceProducesDeterministicContent(t *testing.T) {
	a := NewSyntheticSource(42)
	a.Request(geom.Vec3i{})
	pa, _ := a.Poll()

	b := NewSyntheticSource(42)
	b.Request(geom.Vec3i{})
	pb, _ := b.Poll()

	if string(pa.Blob) != string(pb.Blob) {
		t.Fatalf("expected the same seed and position to deflate identical content")
	}
}

func TestSyntheticSourceReportsFullyLoaded(t *testing.T) {
	s := NewSyntheticSource(7)
	s.Request(geom.Vec3i{})
	p, _ := s.Poll()
	if !p.Status.IsLoaded() {
		t.Fatalf("expected synthetic payloads to report as fully loaded")
	}
}
