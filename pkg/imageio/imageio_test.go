package imageio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"nyulnorm/internal/models"
)

// writeGray16PNG writes a width x height 16-bit PNG whose pixel (x, y) has
// the sample value given by value(x, y)
func writeGray16PNG(t *testing.T, path string, width, height int, value func(x, y int) uint16) {
	t.Helper()

	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: value(x, y)})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func TestLoadGrayscale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slice1.png")
	writeGray16PNG(t, path, 3, 2, func(x, y int) uint16 {
		return uint16((x + y) * 1000)
	})

	img, err := LoadGrayscale(path)
	if err != nil {
		t.Fatalf("LoadGrayscale failed: %v", err)
	}
	if img.Width != 3 || img.Height != 2 {
		t.Fatalf("Expected 3x2 image, got %dx%d", img.Width, img.Height)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			want := float64((x + y) * 1000)
			if img.At(x, y) != want {
				t.Errorf("Pixel (%d,%d): expected %g, got %g", x, y, want, img.At(x, y))
			}
		}
	}
}

func TestLoadDirectoryNumericOrder(t *testing.T) {
	dir := t.TempDir()

	// Lexical order would put slice10 before slice2
	values := map[string]uint16{
		"slice10.png": 300,
		"slice2.png":  200,
		"slice1.png":  100,
	}
	for name, v := range values {
		value := v
		writeGray16PNG(t, filepath.Join(dir, name), 1, 1, func(x, y int) uint16 { return value })
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	images, names, err := LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}

	wantNames := []string{"slice1.png", "slice2.png", "slice10.png"}
	if len(names) != len(wantNames) {
		t.Fatalf("Expected %d images, got %d", len(wantNames), len(names))
	}
	for i, want := range wantNames {
		if names[i] != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, names[i])
		}
		if got := images[i].At(0, 0); got != float64(values[want]) {
			t.Errorf("Image %s: expected intensity %d, got %g", want, values[want], got)
		}
	}
}

func TestLoadDirectoryEmpty(t *testing.T) {
	if _, _, err := LoadDirectory(t.TempDir()); err == nil {
		t.Error("Expected an error for a directory without images")
	}
}

func TestSaveGray16Windowing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	img := models.FromData([]float64{-10, 0, 10, 30}, 2, 2)

	if err := SaveGray16(img, path); err != nil {
		t.Fatalf("SaveGray16 failed: %v", err)
	}

	loaded, err := LoadGrayscale(path)
	if err != nil {
		t.Fatalf("LoadGrayscale failed: %v", err)
	}

	// -10..30 windows onto 0..65535
	want := []float64{0, 16384, 32768, 65535}
	for i, v := range want {
		if loaded.Data[i] != v {
			t.Errorf("Pixel %d: expected sample %g, got %g", i, v, loaded.Data[i])
		}
	}
}

func TestExtractNumber(t *testing.T) {
	cases := []struct {
		name string
		want int
	}{
		{"slice12.png", 12},
		{"scan_003.jpeg", 3},
		{"noDigits.png", 0},
	}
	for _, tc := range cases {
		if got := extractNumber(tc.name); got != tc.want {
			t.Errorf("extractNumber(%q): expected %d, got %d", tc.name, tc.want, got)
		}
	}
}
