// Package atlasgpu is the video-driver side of the FarMap pipeline: it
// bakes an atlas.Registry's pages into a GL_TEXTURE_2D_ARRAY and implements
// gpu.MeshUploader for uploading built meshes to VAOs, grounded on the
// teacher's internal/graphics/renderables/blocks package. Bake's page
// rasterization follows InitTextureAtlas (load each segment's source image,
// resize it to its TargetSize, composite it into its page's canvas, then
// upload one array layer per page), swapping the teacher's hand-rolled
// nearest-neighbor loop for golang.org/x/image/draw so mismatched source
// resolutions scale cleanly. A segment whose source image is missing
// degrades to a null texture pointer and is logged, rather than aborting
// the bake. GLMeshUploader follows the VAO/VBO setup in
// blocks/atlas.go, generalized from one shared growing buffer to a
// dedicated buffer per FarBlock mesh slot, since FarMap meshes are built
// and evicted independently rather than packed into one chunk atlas.
package atlasgpu

import (
	"fmt"
	"image"
	"log"

	"github.com/go-gl/gl/v4.1-core/gl"
	"golang.org/x/image/draw"

	"github.com/voxelfar/farmap/internal/atlas"
	"github.com/voxelfar/farmap/internal/config"
)

// ImageSource loads a segment's source image by the name recorded on its
// SegmentDefinition. The out-of-scope asset layer implements this; tests
// supply an in-memory stub.
type ImageSource interface {
	Load(name string) (image.Image, error)
}

// Scaler picks the resampling kernel Bake uses to fit a source image into a
// segment's TargetSize. draw.CatmullRom is the default; draw.NearestNeighbor
// matches the teacher's blocky look for pixel-art sets that want it.
type Scaler = draw.Interpolator

// TextureArray is the uploaded result: one GL_TEXTURE_2D_ARRAY object plus
// the page-id-to-layer mapping a renderer needs to pick the right layer for
// an atlas.SegmentCache.
type TextureArray struct {
	TextureID uint32
	Width     int32
	Height    int32
	Layers    int32

	// PageLayer maps an atlas page id to its layer index in TextureID.
	PageLayer map[uint32]int32
}

// Baker rasterizes atlas.Registry pages and uploads them as a texture array.
type Baker struct {
	Source   ImageSource
	Scaler   Scaler
	Settings *config.Settings
	Logger   *log.Logger
}

// NewBaker returns a Baker defaulting to CatmullRom resampling.
func NewBaker(source ImageSource, settings *config.Settings) *Baker {
	return &Baker{Source: source, Scaler: draw.CatmullRom, Settings: settings}
}

// Bake rasterizes every page in reg and uploads them as one texture array.
// All layers share the dimensions of the largest page's canvas; smaller
// pages are composited into the top-left corner, leaving the remainder
// transparent.
func (bk *Baker) Bake(reg *atlas.Registry) (*TextureArray, error) {
	pageIDs := reg.PageIDs()
	if len(pageIDs) == 0 {
		return nil, fmt.Errorf("atlasgpu: registry has no pages to bake")
	}

	canvases := make([]*image.RGBA, len(pageIDs))
	width, height := int32(0), int32(0)
	for i, id := range pageIDs {
		canvas, err := bk.bakePage(reg, id)
		if err != nil {
			return nil, err
		}
		canvases[i] = canvas
		if w := int32(canvas.Bounds().Dx()); w > width {
			width = w
		}
		if h := int32(canvas.Bounds().Dy()); h > height {
			height = h
		}
	}

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, texture)
	gl.TexImage3D(
		gl.TEXTURE_2D_ARRAY, 0, gl.RGBA8,
		width, height, int32(len(canvases)), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, nil,
	)

	for i, canvas := range canvases {
		layer := canvas
		if int32(canvas.Bounds().Dx()) != width || int32(canvas.Bounds().Dy()) != height {
			padded := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
			draw.Draw(padded, canvas.Bounds(), canvas, image.Point{}, draw.Src)
			layer = padded
		}
		gl.TexSubImage3D(
			gl.TEXTURE_2D_ARRAY, 0,
			0, 0, int32(i),
			width, height, 1,
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(layer.Pix),
		)
	}

	bk.applyFilters()
	gl.GenerateMipmap(gl.TEXTURE_2D_ARRAY)
	if bk.Settings.AnisotropicFilter() {
		var maxAniso float32
		gl.GetFloatv(gl.MAX_TEXTURE_MAX_ANISOTROPY, &maxAniso)
		if maxAniso > 0 {
			gl.TexParameterf(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MAX_ANISOTROPY, maxAniso)
		}
	}

	out := &TextureArray{
		TextureID: texture,
		Width:     width,
		Height:    height,
		Layers:    int32(len(canvases)),
		PageLayer: make(map[uint32]int32, len(pageIDs)),
	}
	for i, id := range pageIDs {
		out.PageLayer[id] = int32(i)
	}
	return out, nil
}

func (bk *Baker) applyFilters() {
	min := int32(gl.NEAREST_MIPMAP_LINEAR)
	mag := int32(gl.NEAREST)
	switch {
	case bk.Settings.TrilinearFilter():
		min, mag = gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	case bk.Settings.BilinearFilter():
		min, mag = gl.LINEAR_MIPMAP_NEAREST, gl.LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MIN_FILTER, min)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MAG_FILTER, mag)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_T, gl.REPEAT)
}

// bakePage composites every segment of page id into one RGBA canvas sized
// segRes * totalSegs, resizing each segment's source image to TargetSize
// (falling back to segRes when a definition leaves it unset) before drawing
// it into its grid cell. A segment whose source image can't be loaded is
// degraded to a null texture pointer (spec's "the segment is still issued
// but its texture pointer is null") rather than aborting the whole page:
// its cell is left blank and reg is told to flip that segment's
// SegmentCache.HasTexture to false.
func (bk *Baker) bakePage(reg *atlas.Registry, id uint32) (*image.RGBA, error) {
	segRes, totalSegs, ok := reg.PageLayout(id)
	if !ok {
		return nil, fmt.Errorf("atlasgpu: unknown page %d", id)
	}
	canvas := image.NewRGBA(image.Rect(0, 0, int(segRes.X*totalSegs.X), int(segRes.Y*totalSegs.Y)))

	segments := reg.PageSegments(id)
	for i, def := range segments {
		if def.ImageName == "" {
			continue
		}
		src, err := bk.Source.Load(def.ImageName)
		if err != nil {
			reg.MarkSegmentMissing(id, uint32(i))
			if bk.Logger != nil {
				bk.Logger.Printf("atlasgpu: missing texture %q on page %d segment %d: %v", def.ImageName, id, i, err)
			}
			continue
		}

		target := def.TargetSize
		if target.X == 0 || target.Y == 0 {
			target = segRes
		}
		cols := totalSegs.X
		col := int32(i) % cols
		row := int32(i) / cols
		cell := image.Rect(
			int(col*segRes.X), int(row*segRes.Y),
			int(col*segRes.X+target.X), int(row*segRes.Y+target.Y),
		)
		bk.Scaler.Scale(canvas, cell, src, src.Bounds(), draw.Src, nil)
	}
	return canvas, nil
}
