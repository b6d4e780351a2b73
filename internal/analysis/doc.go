// Package analysis turns a mammogram into a screening report.
//
// The pipeline has two independent halves that run concurrently:
//
//   - Features: CLAHE on the Lab lightness channel (clip 3.0, 8x8 tiles),
//     resize to 224x224, grayscale, then mean, standard deviation, median and
//     the counts of the ten darkest intensities.
//   - Regions: grayscale of the original image, inverted Gaussian adaptive
//     threshold (block 11, C 2), outer contours, and every contour with area
//     above 100 becomes a Region with a bounding box and a mean density.
//
// The features feed a fixed intensity rule (Predict), not a trained model.
// DetailedAnalysis adds a risk level and canned recommendations, and
// FormatReport renders the text summary.
//
// # Backends
//
// The image processing is pluggable. The "native" backend is pure Go and is
// always available. Building with the gocv tag registers an "opencv" backend
// that runs the same steps through OpenCV:
//
//	go build -tags gocv ./...
//
// # Usage
//
//	a, err := analysis.NewAnalyzer(analysis.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	report, err := a.Analyze(ctx, data, analysis.AnalyzeOptions{Overlay: true})
//
// The output is a screening aid and never a diagnosis; every text report ends
// with Disclaimer.
package analysis
