package fetch

import (
	"testing"

	"github.com/voxelfar/farmap/internal/config"
	"github.com/voxelfar/farmap/internal/farmap"
	"github.com/voxelfar/farmap/internal/geom"
	"github.com/voxelfar/farmap/internal/worker"
)

type blockingTask struct{ release chan struct{} }

func (t *blockingTask) InThread() { <-t.release }
func (t *blockingTask) Sync()     {}

func TestSuggestReturnsEmptyWhenQueueSaturated(t *testing.T) {
	w := worker.New(2)
	defer w.Close()
	release := make(chan struct{})
	defer close(release)
	if !w.Add(&blockingTask{release: release}) {
		t.Fatalf("expected first task to be accepted")
	}
	if !w.Add(&blockingTask{release: release}) {
		t.Fatalf("expected second task to be accepted")
	}
	if w.Add(&blockingTask{release: release}) {
		t.Fatalf("expected the queue to be at capacity")
	}

	adv := NewAdvisor(farmap.New(), w, config.Default())
	if got := adv.Suggest(geom.Vec3i{}); len(got) != 0 {
		t.Fatalf("expected no suggestions while the queue is saturated, got %v", got)
	}
}

func TestSuggestReturnsUnloadedCoordinatesAroundCamera(t *testing.T) {
	w := worker.New(16)
	defer w.Close()
	adv := NewAdvisor(farmap.New(), w, config.Default())

	got := adv.Suggest(geom.Vec3i{})
	if len(got) == 0 {
		t.Fatalf("expected suggestions from an entirely empty map")
	}
	if len(got) > int(w.MaxQueueLength()) {
		t.Fatalf("expected at most max_queue suggestions, got %d", len(got))
	}
}

func TestSuggestThrottlesRetriesToEveryFifthCall(t *testing.T) {
	w := worker.New(64)
	defer w.Close()
	m := farmap.New()
	p := geom.Vec3i{}
	m.InsertLoadInProgressBlock(p)

	adv := NewAdvisor(m, w, config.Default())

	suggested := 0
	for i := 0; i < 10; i++ {
		got := adv.Suggest(p)
		for _, c := range got {
			if c == p {
				suggested++
			}
		}
	}
	if suggested != 2 {
		t.Fatalf("expected the in-progress block to be suggested exactly twice in 10 calls, got %d", suggested)
	}
}

func TestSuggestFogDistanceUsesSmallerMarginBelow150(t *testing.T) {
	adv := NewAdvisor(farmap.New(), worker.New(1), config.Default())
	defer adv.Worker.Close()

	s := config.Default()
	s.SetFarMapRange(149)
	adv.Settings = s
	below := adv.SuggestFogDistance()

	s2 := config.Default()
	s2.SetFarMapRange(150)
	adv.Settings = s2
	atOrAbove := adv.SuggestFogDistance()

	if below == atOrAbove {
		t.Fatalf("expected the fog distance formula to change across the 150 threshold")
	}
}

func TestSuggestAutosendRadiusZeroWhenHidden(t *testing.T) {
	adv := NewAdvisor(farmap.New(), worker.New(1), config.Default())
	defer adv.Worker.Close()
	adv.Visible = false
	if r := adv.SuggestAutosendFarblocksRadius(); r != 0 {
		t.Fatalf("expected 0 while hidden, got %d", r)
	}
}
