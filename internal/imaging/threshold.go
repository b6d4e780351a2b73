package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
)

// Fixed kernels used by OpenCV for small apertures when sigma is derived
// from the kernel size.
var smallGaussianKernels = map[int][]float64{
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// gaussianKernel1D returns a normalised 1-D Gaussian kernel of the given odd
// size. Sigma is derived from the size as 0.3*((size-1)*0.5-1)+0.8.
func gaussianKernel1D(size int) []float64 {
	if k, ok := smallGaussianKernels[size]; ok {
		return append([]float64(nil), k...)
	}

	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	scale := -0.5 / (sigma * sigma)
	kernel := make([]float64, size)
	var sum float64
	for i := range kernel {
		x := float64(i - (size-1)/2)
		kernel[i] = math.Exp(scale * x * x)
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// GaussianMean computes the Gaussian-weighted local mean of every pixel over
// a blockSize x blockSize neighbourhood. Borders are handled by replicating
// the edge pixels.
//
// The blur is applied separably, one horizontal and one vertical pass, each
// rounded to 8 bits. OpenCV keeps a fixed-point intermediate between the
// passes instead, so individual means can differ from cv2.adaptiveThreshold
// by one grey level where the horizontal pass lands near a half.
func GaussianMean(gray *image.Gray, blockSize int) (*image.Gray, error) {
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, fmt.Errorf("block size must be odd and >= 3, got %d", blockSize)
	}

	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return image.NewGray(image.Rect(0, 0, width, height)), nil
	}
	radius := blockSize / 2
	weights := gaussianKernel1D(blockSize)

	horizontal := convolution.NewKernel(blockSize, 1)
	vertical := convolution.NewKernel(1, blockSize)
	copy(horizontal.Matrix, weights)
	copy(vertical.Matrix, weights)

	// Pad so that every tap of the kernel stays inside the source, then
	// crop the blurred centre back out.
	padded := padReplicate(gray, radius)
	// A bias of one half turns the truncating 8-bit store into rounding.
	opts := &convolution.Options{Bias: 0.5, Wrap: false, KeepAlpha: true}
	blurred := convolution.Convolve(padded, horizontal, opts)
	blurred = convolution.Convolve(blurred, vertical, opts)

	mean := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			mean.Pix[y*mean.Stride+x] = blurred.Pix[blurred.PixOffset(x+radius, y+radius)]
		}
	}
	return mean, nil
}

// AdaptiveThreshold binarises a grayscale image against its Gaussian local
// mean.
//
// Parameters:
//   - gray: Source image.
//   - maxValue: Value written to foreground pixels (typically 255).
//   - blockSize: Odd neighbourhood size, >= 3. 11 is used for mammograms.
//   - c: Constant subtracted from the local mean.
//   - invert: When true, pixels darker than the local mean by at least c
//     become foreground (maxValue) and everything else 0. When false the
//     opposite.
//
// As in OpenCV, the inverted test is src-mean <= -floor(c) and the direct
// test is src-mean > -ceil(c).
func AdaptiveThreshold(gray *image.Gray, maxValue uint8, blockSize int, c float64, invert bool) (*image.Gray, error) {
	mean, err := GaussianMean(gray, blockSize)
	if err != nil {
		return nil, err
	}

	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))

	delta := int(math.Ceil(c))
	if invert {
		delta = int(math.Floor(c))
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			diff := int(gray.Pix[gray.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)]) - int(mean.Pix[y*mean.Stride+x])
			fg := diff > -delta
			if invert {
				fg = diff <= -delta
			}
			if fg {
				out.Pix[y*out.Stride+x] = maxValue
			}
		}
	}
	return out, nil
}

// padReplicate returns a copy of gray extended by n pixels on every side,
// repeating the outermost row or column.
func padReplicate(gray *image.Gray, n int) *image.Gray {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, width+2*n, height+2*n))

	for y := 0; y < height+2*n; y++ {
		sy := clamp(y-n, 0, height-1) + bounds.Min.Y
		for x := 0; x < width+2*n; x++ {
			sx := clamp(x-n, 0, width-1) + bounds.Min.X
			out.Pix[y*out.Stride+x] = gray.Pix[gray.PixOffset(sx, sy)]
		}
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
