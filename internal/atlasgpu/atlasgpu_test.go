package atlasgpu

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/voxelfar/farmap/internal/atlas"
)

type stubSource map[string]image.Image

func (s stubSource) Load(name string) (image.Image, error) {
	return s[name], nil
}

// missingSource reports an error for any name not present, standing in for
// the out-of-scope asset layer failing to find a texture on disk.
type missingSource map[string]image.Image

func (s missingSource) Load(name string) (image.Image, error) {
	if img, ok := s[name]; ok {
		return img, nil
	}
	return nil, errors.New("not found")
}

func solidImage(size int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestBakePageSizesCanvasToSegmentGrid(t *testing.T) {
	reg := atlas.New(4)
	red := color.RGBA{R: 255, A: 255}
	reg.AddSegment(atlas.SegmentDefinition{
		ImageName:  "stone.png",
		TargetSize: atlas.Size2{X: 16, Y: 16},
	})
	reg.AddSegment(atlas.SegmentDefinition{
		ImageName:  "dirt.png",
		TargetSize: atlas.Size2{X: 16, Y: 16},
	})

	bk := NewBaker(stubSource{
		"stone.png": solidImage(32, red),
		"dirt.png":  solidImage(16, color.RGBA{G: 255, A: 255}),
	}, nil)

	pages := reg.PageIDs()
	if len(pages) != 1 {
		t.Fatalf("expected both same-size segments on one page, got %d pages", len(pages))
	}

	canvas, err := bk.bakePage(reg, pages[0])
	if err != nil {
		t.Fatalf("bakePage: %v", err)
	}
	segRes, totalSegs, _ := reg.PageLayout(pages[0])
	wantW, wantH := int(segRes.X*totalSegs.X), int(segRes.Y*totalSegs.Y)
	if b := canvas.Bounds(); b.Dx() != wantW || b.Dy() != wantH {
		t.Fatalf("expected canvas %dx%d, got %dx%d", wantW, wantH, b.Dx(), b.Dy())
	}

	r, g, b, a := canvas.At(0, 0).RGBA()
	if a == 0 {
		t.Fatalf("expected the first cell to hold the resized stone texture, got transparent pixel")
	}
	if r == 0 || g != 0 || b != 0 {
		t.Fatalf("expected the first cell to be red from the stone texture, got rgba(%d,%d,%d,%d)", r, g, b, a)
	}

	r2, g2, _, _ := canvas.At(int(segRes.X), 0).RGBA()
	if g2 == 0 || r2 != 0 {
		t.Fatalf("expected the second cell to be green from the dirt texture")
	}
}

func TestBakePageDegradesMissingSegmentInsteadOfAborting(t *testing.T) {
	reg := atlas.New(4)
	green := color.RGBA{G: 255, A: 255}
	missingRef := reg.AddSegment(atlas.SegmentDefinition{
		ImageName:  "ghost.png",
		TargetSize: atlas.Size2{X: 16, Y: 16},
	})
	presentRef := reg.AddSegment(atlas.SegmentDefinition{
		ImageName:  "dirt.png",
		TargetSize: atlas.Size2{X: 16, Y: 16},
	})

	bk := NewBaker(missingSource{"dirt.png": solidImage(16, green)}, nil)

	pages := reg.PageIDs()
	canvas, err := bk.bakePage(reg, pages[0])
	if err != nil {
		t.Fatalf("expected bakePage to degrade a missing segment rather than error, got %v", err)
	}
	if canvas == nil {
		t.Fatalf("expected a canvas even with one missing segment")
	}

	missingCache, ok := reg.GetSegmentCache(missingRef)
	if !ok {
		t.Fatalf("expected the missing segment's cache to still exist")
	}
	if missingCache.HasTexture {
		t.Fatalf("expected the missing segment's HasTexture to be flipped to false")
	}

	presentCache, ok := reg.GetSegmentCache(presentRef)
	if !ok || !presentCache.HasTexture {
		t.Fatalf("expected the present segment to be unaffected by the other's missing texture")
	}

	segRes, _, _ := reg.PageLayout(pages[0])
	r, g, _, _ := canvas.At(int(segRes.X), 0).RGBA()
	if g == 0 || r != 0 {
		t.Fatalf("expected the second cell to still hold the resized dirt texture despite the first failing")
	}
}

func TestBakePageUnknownPageErrors(t *testing.T) {
	reg := atlas.New(4)
	bk := NewBaker(stubSource{}, nil)
	if _, err := bk.bakePage(reg, 999); err == nil {
		t.Fatalf("expected an error for an unknown page id")
	}
}
