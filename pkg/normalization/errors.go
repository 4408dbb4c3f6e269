package normalization

// ConfigurationError indicates an invalid or mismatched caller-supplied
// parameter, such as an empty training set, inverted percentile bounds, or a
// standard scale whose value and percentile sequences disagree in length.
// It is raised synchronously at the point of detection and never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid normalization configuration: " + e.Reason
}

// DegenerateLandmarksError indicates landmark data that remains unusable
// after the monotonicity clamp: adjacent landmarks collapse to one intensity
// while their standard-scale values differ, so no piecewise mapping exists.
// This is a data-quality condition in the target image, not a transient fault.
type DegenerateLandmarksError struct {
	Reason string
}

func (e *DegenerateLandmarksError) Error() string {
	return "degenerate landmarks: " + e.Reason
}
