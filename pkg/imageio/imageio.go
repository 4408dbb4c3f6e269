// Package imageio decodes grayscale images into float intensity grids for
// the normalization core and writes normalized grids back as 16-bit PNGs.
// The core itself never touches files; these are its I/O collaborators.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "image/jpeg" // register JPEG decoding

	"gonum.org/v1/gonum/floats"

	"nyulnorm/internal/models"
)

// LoadGrayscale decodes a PNG or JPEG file into an intensity grid. Samples
// keep their raw 16-bit range; the normalization operates on absolute
// intensities, so no [0,1] rescaling is applied here.
func LoadGrayscale(path string) (*models.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	bounds := src.Bounds()
	img := models.NewImage(bounds.Dx(), bounds.Dy())
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, _, _, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			img.Set(x, y, float64(r))
		}
	}
	return img, nil
}

// LoadDirectory loads every PNG and JPEG image in dir, sorted by the numeric
// part of the filename so scan sequences keep their acquisition order.
// It returns the images together with their filenames in matching order.
func LoadDirectory(dir string) ([]*models.Image, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".png" || ext == ".jpg" || ext == ".jpeg" {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("no PNG or JPEG images found in %s", dir)
	}

	sort.Slice(names, func(i, j int) bool {
		return extractNumber(names[i]) < extractNumber(names[j])
	})

	images := make([]*models.Image, 0, len(names))
	for _, name := range names {
		img, err := LoadGrayscale(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load image %s: %w", name, err)
		}
		images = append(images, img)
	}
	return images, names, nil
}

// extractNumber extracts the numeric part from a filename for ordering
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

// SaveGray16 writes an intensity grid as a 16-bit grayscale PNG, windowing
// the grid's own minimum and maximum onto the full sample range. Normalized
// images carry standard-scale units, so a display window is required to
// render them.
func SaveGray16(img *models.Image, path string) error {
	if img == nil || len(img.Data) == 0 {
		return fmt.Errorf("image has no pixels")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	lo := floats.Min(img.Data)
	span := floats.Max(img.Data) - lo
	if span == 0 {
		span = 1
	}

	out := image.NewGray16(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := (img.At(x, y) - lo) / span
			out.SetGray16(x, y, color.Gray16{Y: uint16(v*65535 + 0.5)})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, out); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
