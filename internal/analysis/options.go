package analysis

import "fmt"

// Options holds the pipeline parameters. The zero value is not usable; start
// from DefaultOptions.
type Options struct {
	// ClipLimit is the CLAHE contrast limit.
	ClipLimit float64 `yaml:"clip_limit" json:"clip_limit"`
	// TileGrid is the number of CLAHE tiles per axis.
	TileGrid int `yaml:"tile_grid" json:"tile_grid"`
	// TargetSize is the side of the square image features are computed on.
	TargetSize int `yaml:"target_size" json:"target_size"`
	// HistogramBins is how many leading histogram bins become features.
	HistogramBins int `yaml:"histogram_bins" json:"histogram_bins"`

	// BlockSize is the adaptive threshold neighbourhood. Must be odd.
	BlockSize int `yaml:"block_size" json:"block_size"`
	// C is subtracted from the local mean by the adaptive threshold.
	C float64 `yaml:"c" json:"c"`
	// MinRegionArea discards contours whose area is not strictly greater.
	MinRegionArea float64 `yaml:"min_region_area" json:"min_region_area"`

	// MalignantBelow is the mean intensity under which an image is
	// classified Malignant.
	MalignantBelow float64 `yaml:"malignant_below" json:"malignant_below"`
	// HighSuspicionBelow and MediumSuspicionBelow bound region density.
	HighSuspicionBelow   float64 `yaml:"high_suspicion_below" json:"high_suspicion_below"`
	MediumSuspicionBelow float64 `yaml:"medium_suspicion_below" json:"medium_suspicion_below"`
}

// DefaultOptions returns the parameters of the reference pipeline.
func DefaultOptions() Options {
	return Options{
		ClipLimit:            3.0,
		TileGrid:             8,
		TargetSize:           224,
		HistogramBins:        10,
		BlockSize:            11,
		C:                    2,
		MinRegionArea:        100,
		MalignantBelow:       100,
		HighSuspicionBelow:   100,
		MediumSuspicionBelow: 150,
	}
}

// Validate checks that the options describe a runnable pipeline.
func (o Options) Validate() error {
	switch {
	case o.ClipLimit < 0:
		return fmt.Errorf("%w: clip_limit must be >= 0, got %g", ErrInvalidOptions, o.ClipLimit)
	case o.TileGrid < 1:
		return fmt.Errorf("%w: tile_grid must be >= 1, got %d", ErrInvalidOptions, o.TileGrid)
	case o.TargetSize < 1:
		return fmt.Errorf("%w: target_size must be >= 1, got %d", ErrInvalidOptions, o.TargetSize)
	case o.HistogramBins < 0 || o.HistogramBins > 256:
		return fmt.Errorf("%w: histogram_bins must be in [0,256], got %d", ErrInvalidOptions, o.HistogramBins)
	case o.BlockSize < 3 || o.BlockSize%2 == 0:
		return fmt.Errorf("%w: block_size must be odd and >= 3, got %d", ErrInvalidOptions, o.BlockSize)
	case o.MinRegionArea < 0:
		return fmt.Errorf("%w: min_region_area must be >= 0, got %g", ErrInvalidOptions, o.MinRegionArea)
	case o.MediumSuspicionBelow < o.HighSuspicionBelow:
		return fmt.Errorf("%w: medium_suspicion_below (%g) must not be below high_suspicion_below (%g)",
			ErrInvalidOptions, o.MediumSuspicionBelow, o.HighSuspicionBelow)
	}
	return nil
}
