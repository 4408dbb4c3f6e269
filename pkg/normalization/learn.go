package normalization

import (
	"fmt"
	"runtime"

	"gonum.org/v1/gonum/floats"

	"nyulnorm/internal/models"
)

// ProgressFunc reports learning progress. It receives the number of training
// images processed so far and the total, and may be called from the
// collecting goroutine only.
type ProgressFunc func(completed, total int)

// Params holds the landmark configuration for learning a standard scale.
type Params struct {
	// IMin and IMax are the percentile floor and ceiling (in percent) that
	// bound the intensity-of-interest range; values outside are treated as
	// outliers. With IMin=1 and IMax=99 the lower and upper 1% are pruned.
	IMin float64
	IMax float64

	// ISMin and ISMax are the standard-scale values that the IMin and IMax
	// landmarks map to. They define the minimum and maximum of the learned
	// standard scale.
	ISMin float64
	ISMax float64

	// LPercentile, UPercentile and Step define the interior landmark levels
	// LPercentile, LPercentile+Step, ..., UPercentile. The decile
	// formulation uses 10, 90 and 10.
	LPercentile float64
	UPercentile float64
	Step        float64

	// MaskBackground restricts landmark extraction to pixels above the image
	// mean. The same setting must be used when applying the learned scale.
	MaskBackground bool

	// NumWorkers caps how many training images are processed concurrently.
	// Zero or negative uses all available CPU cores.
	NumWorkers int

	// Progress is an optional callback invoked after each training image.
	Progress ProgressFunc
}

// DefaultParams returns the decile landmark configuration with a [1, 100]
// standard range.
func DefaultParams() *Params {
	return &Params{
		IMin:        1,
		IMax:        99,
		ISMin:       1,
		ISMax:       100,
		LPercentile: 10,
		UPercentile: 90,
		Step:        10,
	}
}

// LearnStandardScale determines the standard scale for a set of training
// images. Each image's landmarks are rescaled onto [ISMin, ISMax] with a
// two-point linear map anchored at the image's own IMin/IMax landmarks, and
// the standard scale is the element-wise mean of the rescaled vectors.
//
// Images are processed concurrently; the mean is combined by a
// sum-then-divide reduction on the collecting side, so workers never share a
// mutable accumulator.
func LearnStandardScale(images []*models.Image, params *Params) (*StandardScale, error) {
	if params == nil {
		params = DefaultParams()
	}
	if len(images) == 0 {
		return nil, &ConfigurationError{Reason: "training set is empty"}
	}
	if params.ISMin >= params.ISMax {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("standard range minimum %g must be below maximum %g", params.ISMin, params.ISMax)}
	}
	percs, err := BuildPercentiles(params.IMin, params.IMax, params.LPercentile, params.UPercentile, params.Step)
	if err != nil {
		return nil, err
	}
	for i, img := range images {
		if img == nil || len(img.Data) == 0 {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("training image %d has no pixels", i)}
		}
	}

	numWorkers := params.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	type imageResult struct {
		index     int
		landmarks []float64
	}
	resultChan := make(chan imageResult)
	sem := make(chan struct{}, numWorkers)

	for i, img := range images {
		go func(index int, img *models.Image) {
			sem <- struct{}{}
			defer func() { <-sem }()
			resultChan <- imageResult{
				index:     index,
				landmarks: rescaledLandmarks(img, percs, params),
			}
		}(i, img)
	}

	scale := make([]float64, len(percs))
	for completed := 0; completed < len(images); completed++ {
		res := <-resultChan
		floats.Add(scale, res.landmarks)
		if params.Progress != nil {
			params.Progress(completed+1, len(images))
		}
	}
	floats.Scale(1/float64(len(images)), scale)

	return &StandardScale{Scale: scale, Percentiles: percs}, nil
}

// rescaledLandmarks extracts one training image's landmarks and maps them
// onto the standard range through the linear function that sends the image's
// own IMin landmark to ISMin and its IMax landmark to ISMax.
func rescaledLandmarks(img *models.Image, percs []float64, params *Params) []float64 {
	intensities := foregroundIntensities(img, params.MaskBackground)
	landmarks := landmarksOf(intensities, percs)

	rescaled := make([]float64, len(landmarks))
	minP := landmarks[0]
	maxP := landmarks[len(landmarks)-1]
	if maxP == minP {
		// Flat histogram: there is no anchor span to map through. Interior
		// landmarks take the midpoint of the standard range; the anchors stay
		// pinned so the averaged scale always spans [ISMin, ISMax].
		mid := (params.ISMin + params.ISMax) / 2
		for i := range rescaled {
			rescaled[i] = mid
		}
		rescaled[0] = params.ISMin
		rescaled[len(rescaled)-1] = params.ISMax
		return rescaled
	}

	slope := (params.ISMax - params.ISMin) / (maxP - minP)
	for i, v := range landmarks {
		rescaled[i] = params.ISMin + (v-minP)*slope
	}
	return rescaled
}
