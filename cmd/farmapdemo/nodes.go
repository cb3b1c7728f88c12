package main

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"

	"github.com/voxelfar/farmap/internal/farnode"
)

// StaticDefinitions is a fixed content-id table, standing in for the
// out-of-scope game object model, grounded on the teacher's
// internal/registry.Blocks map generalized from a BlockType key to the
// FarNode content ids the far renderer actually meshes.
type StaticDefinitions map[uint16]farnode.Features

const (
	contentStone uint16 = 1
)

// DefaultDefinitions registers the single solid id SyntheticSource emits.
func DefaultDefinitions() StaticDefinitions {
	return StaticDefinitions{
		contentStone: {ExplicitSolidness: 2, TextureName: "stone.png"},
	}
}

func (d StaticDefinitions) Get(id uint16) farnode.Features { return d[id] }

// diskImageSource loads segment source images from an assets directory,
// falling back to a flat-colored placeholder when the file is missing so
// the demo still runs without a populated assets/ directory, grounded on
// the teacher's InitTextureAtlas file-open-and-decode loop.
type diskImageSource struct {
	Dir string
}

func (s diskImageSource) Load(name string) (image.Image, error) {
	path := s.Dir + "/" + name
	f, err := os.Open(path)
	if err != nil {
		return placeholderTexture(), nil
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("farmapdemo: decoding %s: %w", path, err)
	}
	return img, nil
}

func placeholderTexture() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 140, G: 140, B: 140, A: 255})
		}
	}
	return img
}
