// Package normalization implements intensity standardization for grayscale
// images using the Nyul-Udupa landmark-matching method. A standard scale is
// learned once from a training set by averaging each image's rescaled
// histogram-percentile landmarks; any image is then mapped onto that scale
// with a piecewise interpolation anchored at its own landmarks.
package normalization

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"nyulnorm/internal/models"
)

// BuildPercentiles constructs the ordered percentile configuration
// [iMin, lPercentile, lPercentile+step, ..., uPercentile, iMax]. When step
// does not land exactly on uPercentile the sequence is clipped there, so
// uPercentile is always the last interior level. The same configuration must
// be reused unchanged for every image, training or target.
func BuildPercentiles(iMin, iMax, lPercentile, uPercentile, step float64) ([]float64, error) {
	if iMin >= iMax {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("percentile floor %g must be below ceiling %g", iMin, iMax)}
	}
	if lPercentile >= uPercentile {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("lower percentile %g must be below upper percentile %g", lPercentile, uPercentile)}
	}
	if step <= 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("step %g must be positive", step)}
	}
	if iMin >= lPercentile || uPercentile >= iMax {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("percentile levels must satisfy %g < %g and %g < %g", iMin, lPercentile, uPercentile, iMax)}
	}

	percs := []float64{iMin}
	last := lPercentile
	for i := 0; ; i++ {
		p := lPercentile + float64(i)*step
		if p > uPercentile+1e-9 {
			break
		}
		percs = append(percs, p)
		last = p
	}
	if last < uPercentile-1e-9 {
		percs = append(percs, uPercentile)
	}
	percs = append(percs, iMax)

	// The chain invariant above makes the sequence strictly increasing, but
	// keep the dedupe pass so a config landing a step on a boundary cannot
	// produce repeated levels.
	deduped := percs[:1]
	for _, p := range percs[1:] {
		if p > deduped[len(deduped)-1] {
			deduped = append(deduped, p)
		}
	}
	return deduped, nil
}

// ExtractLandmarks computes, for each level in percs, the intensity value at
// or below which that percentage of the image's pixels fall. The result has
// one entry per percentile level, in the same order as percs. Monotonicity is
// not enforced here; the applier repairs percentile ties before interpolating.
func ExtractLandmarks(img *models.Image, percs []float64) []float64 {
	return landmarksOf(sortedCopy(img.Data), percs)
}

// landmarksOf reads each percentile level off an already-sorted intensity
// sample. Both the learner and the applier go through this routine so their
// landmark values stay comparable.
func landmarksOf(sorted []float64, percs []float64) []float64 {
	landmarks := make([]float64, len(percs))
	for i, p := range percs {
		landmarks[i] = percentileOf(sorted, p)
	}
	return landmarks
}

// percentileOf returns the p-th percentile (0..100) of pre-sorted values
// using linear interpolation between the surrounding order statistics at
// fractional rank (n-1)*p/100.
func percentileOf(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	if rank <= 0 {
		return sorted[0]
	}
	if rank >= float64(n-1) {
		return sorted[n-1]
	}
	lo := int(rank)
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// foregroundIntensities returns the image's intensities sorted ascending,
// restricted to pixels strictly above the image mean when masking is
// enabled. Mean thresholding separates background from foreground in scans
// where most of the frame is empty. A mask that selects nothing (a flat
// image) falls back to the whole image so flat histograms stay usable.
func foregroundIntensities(img *models.Image, maskBackground bool) []float64 {
	if !maskBackground {
		return sortedCopy(img.Data)
	}
	mean := stat.Mean(img.Data, nil)
	foreground := make([]float64, 0, len(img.Data))
	for _, v := range img.Data {
		if v > mean {
			foreground = append(foreground, v)
		}
	}
	if len(foreground) == 0 {
		return sortedCopy(img.Data)
	}
	sort.Float64s(foreground)
	return foreground
}

func sortedCopy(values []float64) []float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	return s
}
