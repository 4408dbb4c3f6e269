package models

// Image represents a single grayscale image as real-valued intensities
type Image struct {
	// Data is the pixel intensity data as a 1D array in row-major order
	Data []float64

	// Width is the width of the image in pixels
	Width int

	// Height is the height of the image in pixels
	Height int
}

// NewImage allocates a zero-valued image with the given dimensions
func NewImage(width, height int) *Image {
	return &Image{
		Data:   make([]float64, width*height),
		Width:  width,
		Height: height,
	}
}

// FromData wraps an existing intensity buffer as an image.
// The buffer is not copied; len(data) must equal width*height.
func FromData(data []float64, width, height int) *Image {
	return &Image{
		Data:   data,
		Width:  width,
		Height: height,
	}
}

// Clone returns a deep copy of the image
func (im *Image) Clone() *Image {
	data := make([]float64, len(im.Data))
	copy(data, im.Data)
	return &Image{
		Data:   data,
		Width:  im.Width,
		Height: im.Height,
	}
}

// At returns the intensity at pixel (x, y)
func (im *Image) At(x, y int) float64 {
	return im.Data[y*im.Width+x]
}

// Set assigns the intensity at pixel (x, y)
func (im *Image) Set(x, y int, v float64) {
	im.Data[y*im.Width+x] = v
}
