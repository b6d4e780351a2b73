package analysis

import (
	"image"

	"github.com/ironsheep/mammogram-analyzer/internal/detection"
	"github.com/ironsheep/mammogram-analyzer/internal/imaging"
)

// SuspicionLevel grades a region by its density.
type SuspicionLevel string

const (
	SuspicionHigh   SuspicionLevel = "high"
	SuspicionMedium SuspicionLevel = "medium"
	SuspicionLow    SuspicionLevel = "low"
)

// Location is a region's bounding box in original image pixels.
type Location struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the location to an image rectangle.
func (l Location) Rect() image.Rectangle {
	return image.Rect(l.X, l.Y, l.X+l.Width, l.Y+l.Height)
}

// Region is a contour that survived area filtering.
type Region struct {
	// ID is the 1-based index of the contour among all contours found,
	// counted before small ones are dropped. IDs may therefore have gaps.
	ID       int      `json:"id"`
	Location Location `json:"location"`
	// Area is the contour polygon area in square pixels.
	Area float64 `json:"area"`
	// Density is the mean grayscale intensity inside the bounding box.
	Density        float64        `json:"density"`
	SuspicionLevel SuspicionLevel `json:"suspicion_level"`
}

// ClassifySuspicion grades a density value: darker regions are more
// suspicious.
func ClassifySuspicion(density float64, opts Options) SuspicionLevel {
	switch {
	case density < opts.HighSuspicionBelow:
		return SuspicionHigh
	case density < opts.MediumSuspicionBelow:
		return SuspicionMedium
	default:
		return SuspicionLow
	}
}

// AnalyzeRegions finds candidate regions in the original image: grayscale,
// inverted Gaussian adaptive threshold, outer contours, then every contour
// with area above opts.MinRegionArea becomes a Region.
//
// The result is never nil, so an image without regions serialises as [].
func AnalyzeRegions(img image.Image, opts Options) ([]Region, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	gray := imaging.ToGray(img)
	mask, err := imaging.AdaptiveThreshold(gray, 255, opts.BlockSize, opts.C, true)
	if err != nil {
		return nil, err
	}

	regions := make([]Region, 0)
	for i, contour := range detection.FindExternalContours(mask) {
		area := detection.ContourArea(contour)
		if area <= opts.MinRegionArea {
			continue
		}
		rect := detection.BoundingRect(contour)
		regions = append(regions, newRegion(i+1, area, rect, imaging.MeanInRect(gray, rect), opts))
	}
	return regions, nil
}

func newRegion(id int, area float64, rect image.Rectangle, density float64, opts Options) Region {
	return Region{
		ID: id,
		Location: Location{
			X:      rect.Min.X,
			Y:      rect.Min.Y,
			Width:  rect.Dx(),
			Height: rect.Dy(),
		},
		Area:           area,
		Density:        density,
		SuspicionLevel: ClassifySuspicion(density, opts),
	}
}
