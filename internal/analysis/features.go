package analysis

import (
	"image"
	"math"

	"github.com/ironsheep/mammogram-analyzer/internal/imaging"
)

// Features is the statistical summary the classifier works on.
type Features struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	// Histogram holds the pixel counts of the lowest intensities, one entry
	// per bin starting at 0.
	Histogram []float64 `json:"histogram"`
}

// Vector flattens the features in classifier order: mean, std, median, then
// the histogram bins.
func (f Features) Vector() []float64 {
	v := make([]float64, 0, 3+len(f.Histogram))
	v = append(v, f.Mean, f.Std, f.Median)
	return append(v, f.Histogram...)
}

// ExtractFeatures enhances the contrast of img, resizes it to
// opts.TargetSize square and summarises its grayscale intensities.
func ExtractFeatures(img image.Image, opts Options) (Features, error) {
	if err := opts.Validate(); err != nil {
		return Features{}, err
	}

	enhanced := imaging.EnhanceContrast(img, opts.ClipLimit, opts.TileGrid)
	resized := imaging.Resize(enhanced, opts.TargetSize, opts.TargetSize)
	return featuresFromGray(imaging.ToGray(resized), opts.HistogramBins), nil
}

// featuresFromGray computes population statistics from the intensity
// histogram. The median of an even count is the mean of the two middle values.
func featuresFromGray(gray *image.Gray, bins int) Features {
	hist := imaging.Histogram(gray)
	n := 0
	for _, c := range hist {
		n += c
	}

	f := Features{Histogram: make([]float64, bins)}
	for i := 0; i < bins; i++ {
		f.Histogram[i] = float64(hist[i])
	}
	if n == 0 {
		return f
	}

	var sum float64
	for v, c := range hist {
		sum += float64(v) * float64(c)
	}
	f.Mean = sum / float64(n)

	var sq float64
	for v, c := range hist {
		d := float64(v) - f.Mean
		sq += d * d * float64(c)
	}
	f.Std = math.Sqrt(sq / float64(n))

	lo := nthValue(&hist, (n-1)/2)
	hi := nthValue(&hist, n/2)
	f.Median = (float64(lo) + float64(hi)) / 2

	return f
}

// nthValue returns the k-th smallest (0-based) intensity described by hist.
func nthValue(hist *[256]int, k int) int {
	seen := 0
	for v, c := range hist {
		seen += c
		if seen > k {
			return v
		}
	}
	return 255
}
