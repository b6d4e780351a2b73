package ocr

import (
	"context"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/ironsheep/mammogram-analyzer/internal/analysis"
)

// Annotator reads laterality and view markers with Tesseract. It implements
// analysis.Annotator.
type Annotator struct {
	language string
	logger   *zap.Logger
}

// NewAnnotator creates an annotator for the given Tesseract language.
func NewAnnotator(language string, logger *zap.Logger) *Annotator {
	if language == "" {
		language = "eng"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Annotator{language: language, logger: logger}
}

// Band geometry for the marker search. Markers sit along the top or bottom
// edge of a film; bands shorter than minBandHeight are not worth a pass of
// their own.
const (
	bandFraction  = 0.15
	minBandHeight = 64
)

// markerBands returns the top and bottom strips of bounds where laterality
// and view markers are printed, or nil when the image is too short for the
// strips to differ meaningfully from the whole image.
func markerBands(bounds image.Rectangle) []image.Rectangle {
	h := int(float64(bounds.Dy()) * bandFraction)
	if h < minBandHeight {
		return nil
	}
	return []image.Rectangle{
		image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+h),
		image.Rect(bounds.Min.X, bounds.Max.Y-h, bounds.Max.X, bounds.Max.Y),
	}
}

// Annotate OCRs img and parses its markers. The whole image is read first;
// when no marker is found the edge bands are read on their own, then the
// inverted image is tried the same way, since markers are usually printed
// light on dark.
func (a *Annotator) Annotate(ctx context.Context, img image.Image) (*analysis.Annotations, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := ExtractText(img, a.language)
	if err != nil {
		return nil, err
	}
	markers := ParseMarkers(result.Words())

	if !markers.Found() {
		for i, src := range []image.Image{img, imaging.Invert(img)} {
			r, m, err := a.searchMarkers(ctx, src, i > 0)
			if err != nil {
				return nil, err
			}
			if m.Found() {
				result, markers = r, m
				break
			}
		}
	}

	return &analysis.Annotations{
		Text:       strings.TrimSpace(result.FullText),
		Words:      result.Words(),
		Laterality: markers.Laterality,
		View:       markers.View,
	}, nil
}

// searchMarkers reads src band by band, preceded by the whole image when
// wholeImage is set, and returns the first pass that yields a marker. OCR
// failures on individual passes are logged and skipped.
func (a *Annotator) searchMarkers(ctx context.Context, src image.Image, wholeImage bool) (*OCRResult, Markers, error) {
	var rects []image.Rectangle
	if wholeImage {
		rects = append(rects, src.Bounds())
	}
	rects = append(rects, markerBands(src.Bounds())...)

	for _, rect := range rects {
		if err := ctx.Err(); err != nil {
			return nil, Markers{}, err
		}
		r, err := ExtractTextFromRegion(src, rect, a.language)
		if err != nil {
			a.logger.Debug("marker OCR pass failed",
				zap.Bool("whole_image", rect == src.Bounds()),
				zap.Error(err))
			continue
		}
		if m := ParseMarkers(r.Words()); m.Found() {
			return r, m, nil
		}
	}
	return nil, Markers{}, nil
}
