package services

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LoadCover decodes a PNG cover image and normalizes it to an RGBA raster.
// PNG is the only accepted carrier on the read side too: a lossy source would
// already have destroyed any embedded bits.
func LoadCover(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cover '%s': %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode cover '%s': %w", path, err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

// LoadCovers loads an ordered list of PNG covers.
func LoadCovers(paths []string) ([]*image.RGBA, error) {
	covers := make([]*image.RGBA, 0, len(paths))
	for _, p := range paths {
		img, err := LoadCover(p)
		if err != nil {
			return nil, err
		}
		covers = append(covers, img)
	}
	return covers, nil
}

// SaveStegoSet writes the rasters as PNGs into dir under a fresh set ID and
// returns the file paths in decode order. The zero-padded sequence number in
// each name is what preserves that order on disk.
func (s *VaultService) SaveStegoSet(dir string, stegos []*image.RGBA) ([]string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	setID := uuid.NewString()

	paths := make([]string, 0, len(stegos))
	for i, img := range stegos {
		path := filepath.Join(dir, fmt.Sprintf("%s-%03d.png", setID, i))
		if err := savePNG(path, img); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func savePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create '%s': %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode '%s': %w", path, err)
	}
	return f.Close()
}
