package analysis

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeRegions_DarkSquare(t *testing.T) {
	regions, err := AnalyzeRegions(darkSquareImage(), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, regions, 1)

	r := regions[0]
	assert.Equal(t, 1, r.ID)
	assert.Equal(t, Location{X: 30, Y: 30, Width: 40, Height: 40}, r.Location)
	assert.Equal(t, 1521.0, r.Area)
	assert.InDelta(t, 50.0, r.Density, 1e-9)
	assert.Equal(t, SuspicionHigh, r.SuspicionLevel)
}

func TestAnalyzeRegions_IDsCountFilteredContours(t *testing.T) {
	img := uniformImage(100, 100, 255)
	paintRect(img, image.Rect(10, 10, 50, 50), 120)
	paintRect(img, image.Rect(80, 80, 85, 85), 0) // too small to keep

	regions, err := AnalyzeRegions(img, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, regions, 1)

	// The small square is found last in raster order, so it is contour 1.
	assert.Equal(t, 2, regions[0].ID)
	assert.Equal(t, SuspicionMedium, regions[0].SuspicionLevel)
}

func TestAnalyzeRegions_Uniform(t *testing.T) {
	regions, err := AnalyzeRegions(uniformImage(64, 64, 128), DefaultOptions())
	require.NoError(t, err)
	assert.NotNil(t, regions)
	assert.Empty(t, regions)
}

func TestAnalyzeRegions_MinAreaIsExclusive(t *testing.T) {
	opts := DefaultOptions()
	opts.MinRegionArea = 1521

	regions, err := AnalyzeRegions(darkSquareImage(), opts)
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestAnalyzeRegions_InvalidBlockSize(t *testing.T) {
	opts := DefaultOptions()
	opts.BlockSize = 10

	_, err := AnalyzeRegions(darkSquareImage(), opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestClassifySuspicion(t *testing.T) {
	opts := DefaultOptions()
	tests := []struct {
		density float64
		want    SuspicionLevel
	}{
		{0, SuspicionHigh},
		{99.9, SuspicionHigh},
		{100, SuspicionMedium},
		{149.99, SuspicionMedium},
		{150, SuspicionLow},
		{255, SuspicionLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifySuspicion(tt.density, opts), "density %v", tt.density)
	}
}

func TestLocation_Rect(t *testing.T) {
	l := Location{X: 3, Y: 4, Width: 10, Height: 20}
	assert.Equal(t, image.Rect(3, 4, 13, 24), l.Rect())
}
