package normalization

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StandardScale pairs the learned landmark intensities with the percentile
// levels they correspond to. The two sequences are index-paired: Scale[k] is
// the standard intensity for Percentiles[k], so they must be kept and
// persisted together. A StandardScale is produced once by LearnStandardScale
// and is read-only afterwards; independently learned scales can coexist,
// one per imaging protocol.
type StandardScale struct {
	// Scale holds the mean rescaled landmark intensities.
	Scale []float64 `yaml:"standardScale"`

	// Percentiles holds the percentile level of each Scale entry.
	Percentiles []float64 `yaml:"percentiles"`
}

// Validate checks that the scale is usable for application.
func (s *StandardScale) Validate() error {
	if len(s.Scale) == 0 {
		return &ConfigurationError{Reason: "standard scale is empty"}
	}
	if len(s.Scale) != len(s.Percentiles) {
		return &ConfigurationError{Reason: fmt.Sprintf("standard scale has %d values but %d percentile levels", len(s.Scale), len(s.Percentiles))}
	}
	return nil
}

// Save writes the scale to a YAML file as two parallel numeric sequences,
// creating the directory if needed.
func (s *StandardScale) Save(path string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating scale directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("error marshaling standard scale: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing scale file: %w", err)
	}
	return nil
}

// LoadStandardScale reads a scale previously written by Save.
func LoadStandardScale(path string) (*StandardScale, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading scale file: %w", err)
	}
	s := &StandardScale{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("error parsing scale file: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
