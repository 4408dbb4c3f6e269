package normalization

import (
	"fmt"

	"gonum.org/v1/gonum/interp"

	"nyulnorm/internal/models"
)

// InterpType selects how the landmark-to-landmark mapping interpolates
// between adjacent knots.
type InterpType int

const (
	// Linear is piecewise-linear interpolation between adjacent landmark
	// pairs. This is the baseline mode.
	Linear InterpType = iota

	// Spline is monotonicity-preserving cubic (Fritsch-Butland)
	// interpolation through the landmark pairs.
	Spline
)

// ParseInterpType maps a configuration string to an InterpType.
func ParseInterpType(name string) (InterpType, error) {
	switch name {
	case "linear":
		return Linear, nil
	case "spline":
		return Spline, nil
	}
	return 0, &ConfigurationError{Reason: fmt.Sprintf("unknown interpolation type %q", name)}
}

// ExtrapolationMode selects how intensities beyond the outermost landmarks
// are mapped.
type ExtrapolationMode int

const (
	// ExtrapolateLinear continues the boundary segment's slope beyond the
	// outermost landmarks. This is the default: scans routinely contain
	// values outside the training percentile band.
	ExtrapolateLinear ExtrapolationMode = iota

	// ExtrapolateClamp pins out-of-range intensities to the outermost
	// standard-scale values.
	ExtrapolateClamp
)

// ParseExtrapolationMode maps a configuration string to an ExtrapolationMode.
func ParseExtrapolationMode(name string) (ExtrapolationMode, error) {
	switch name {
	case "linear":
		return ExtrapolateLinear, nil
	case "clamp":
		return ExtrapolateClamp, nil
	}
	return 0, &ConfigurationError{Reason: fmt.Sprintf("unknown extrapolation mode %q", name)}
}

// ApplyParams holds the options for applying a learned standard scale.
// The zero value selects linear interpolation with linear extrapolation and
// no background masking.
type ApplyParams struct {
	Interp        InterpType
	Extrapolation ExtrapolationMode

	// MaskBackground must match the setting used while learning the scale,
	// or the two phases' landmarks are not comparable.
	MaskBackground bool
}

// ApplyStandardScale transforms an image onto the learned standard scale.
// The image's own landmarks are extracted at the scale's percentile levels,
// clamped to non-decreasing order, and a piecewise mapping from them to the
// standard-scale landmarks is evaluated at every pixel. A new image of the
// same dimensions is returned; the input is never mutated.
func ApplyStandardScale(img *models.Image, scale *StandardScale, params *ApplyParams) (*models.Image, error) {
	if err := scale.Validate(); err != nil {
		return nil, err
	}
	if img == nil || len(img.Data) == 0 {
		return nil, &ConfigurationError{Reason: "input image has no pixels"}
	}
	if params == nil {
		params = &ApplyParams{}
	}

	intensities := foregroundIntensities(img, params.MaskBackground)
	landmarks := landmarksOf(intensities, scale.Percentiles)
	clampNonDecreasing(landmarks)

	m, err := newIntensityMap(landmarks, scale.Scale, params.Interp, params.Extrapolation)
	if err != nil {
		return nil, err
	}

	normalized := models.NewImage(img.Width, img.Height)
	for i, v := range img.Data {
		normalized.Data[i] = m.eval(v)
	}
	return normalized, nil
}

// clampNonDecreasing repairs percentile ties in place: each landmark is
// raised to at least its left neighbor so the knot sequence stays sorted.
func clampNonDecreasing(landmarks []float64) {
	for i := 1; i < len(landmarks); i++ {
		if landmarks[i] < landmarks[i-1] {
			landmarks[i] = landmarks[i-1]
		}
	}
}

// intensityMap is the piecewise mapping from an image's own landmarks onto
// the standard scale, with explicit handling for intensities beyond the
// outermost knots.
type intensityMap struct {
	pred          interp.Predictor
	xMin, xMax    float64
	yMin, yMax    float64
	slopeLo       float64
	slopeHi       float64
	extrapolation ExtrapolationMode
}

// newIntensityMap builds the mapping from clamped landmarks. Knots sharing an
// intensity are collapsed when their standard values agree; duplicates with
// conflicting standard values cannot form a function and are surfaced as a
// DegenerateLandmarksError rather than silently dropped.
func newIntensityMap(landmarks, scale []float64, interpType InterpType, mode ExtrapolationMode) (*intensityMap, error) {
	xs := make([]float64, 0, len(landmarks))
	ys := make([]float64, 0, len(landmarks))
	for i, x := range landmarks {
		y := scale[i]
		if n := len(xs); n > 0 && x == xs[n-1] {
			if y != ys[n-1] {
				return nil, &DegenerateLandmarksError{
					Reason: fmt.Sprintf("landmarks %d and %d collapse to intensity %g with conflicting standard values %g and %g", i-1, i, x, ys[n-1], y),
				}
			}
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < 2 {
		return nil, &DegenerateLandmarksError{Reason: "fewer than two distinct landmarks, image histogram is flat"}
	}

	var pred interp.FittablePredictor
	switch interpType {
	case Linear:
		pred = &interp.PiecewiseLinear{}
	case Spline:
		pred = &interp.FritschButland{}
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown interpolation type %d", interpType)}
	}
	if err := pred.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("error fitting landmark mapping: %w", err)
	}

	n := len(xs)
	return &intensityMap{
		pred:          pred,
		xMin:          xs[0],
		xMax:          xs[n-1],
		yMin:          ys[0],
		yMax:          ys[n-1],
		slopeLo:       (ys[1] - ys[0]) / (xs[1] - xs[0]),
		slopeHi:       (ys[n-1] - ys[n-2]) / (xs[n-1] - xs[n-2]),
		extrapolation: mode,
	}, nil
}

// eval maps one intensity onto the standard scale. Gonum predictors hold the
// endpoint value outside the fitted range, so out-of-range intensities are
// extrapolated here with the boundary segment's slope.
func (m *intensityMap) eval(x float64) float64 {
	switch {
	case x < m.xMin:
		if m.extrapolation == ExtrapolateClamp {
			return m.yMin
		}
		return m.yMin + m.slopeLo*(x-m.xMin)
	case x > m.xMax:
		if m.extrapolation == ExtrapolateClamp {
			return m.yMax
		}
		return m.yMax + m.slopeHi*(x-m.xMax)
	}
	return m.pred.Predict(x)
}
