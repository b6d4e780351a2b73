package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// TextRegion represents a word with its location and OCR confidence.
type TextRegion struct {
	// Text is the recognized text content.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around this text in the image.
	Bounds Bounds `json:"bounds"`
}

// OCRResult contains the complete results of text extraction from an image.
type OCRResult struct {
	// FullText is all recognized text as a single string with original spacing/newlines.
	FullText string `json:"full_text"`

	// Regions contains individual words with their bounding boxes and confidence scores.
	// May be empty if bounding box extraction fails (text will still be in FullText).
	Regions []TextRegion `json:"regions"`
}

// Words returns the recognised words in reading order.
func (r *OCRResult) Words() []string {
	words := make([]string, 0, len(r.Regions))
	for _, region := range r.Regions {
		words = append(words, region.Text)
	}
	return words
}

// ExtractText performs OCR on an in-memory image.
//
// The image is handed to Tesseract as PNG bytes, so no temporary files are
// written. Burned-in mammogram markers are usually light text on a dark
// background; callers that get nothing back may retry with an inverted image
// (see Annotator).
//
// Parameters:
//   - img: The image to read.
//   - language: Tesseract language code (e.g., "eng"). The corresponding
//     language data must be installed on the system.
//
// If word-level bounding box extraction fails, the full text is still
// returned with an empty Regions slice.
func ExtractText(img image.Image, language string) (*OCRResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return &OCRResult{
			FullText: text,
			Regions:  []TextRegion{},
		}, nil
	}

	regions := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		regions = append(regions, TextRegion{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}

	return &OCRResult{
		FullText: text,
		Regions:  regions,
	}, nil
}

// ExtractTextFromRegion performs OCR on rect of img.
//
// Returned bounding boxes are adjusted to the original image coordinates:
// if the region starts at (100, 50) and a word is found at (10, 20) within
// it, the returned bounds start at (110, 70).
func ExtractTextFromRegion(img image.Image, rect image.Rectangle, language string) (*OCRResult, error) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("OCR region (%d,%d)-(%d,%d) is outside the image",
			rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y)
	}

	result, err := ExtractText(imaging.Crop(img, rect), language)
	if err != nil {
		return nil, err
	}

	for i := range result.Regions {
		result.Regions[i].Bounds.X1 += rect.Min.X
		result.Regions[i].Bounds.Y1 += rect.Min.Y
		result.Regions[i].Bounds.X2 += rect.Min.X
		result.Regions[i].Bounds.Y2 += rect.Min.Y
	}

	return result, nil
}

// Version returns the linked Tesseract version.
func Version() string {
	return gosseract.Version()
}
