package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Fixed-point precision of the bilinear weights, as in OpenCV's 8-bit resize.
const (
	resizeCoefBits  = 11
	resizeCoefScale = 1 << resizeCoefBits
)

// linearTap is one output coordinate of a bilinear resize: the two source
// samples and their fixed-point weights.
type linearTap struct {
	i0, i1 int
	w0, w1 int32
}

// linearTaps maps dst output positions onto src with pixel centres aligned,
// sx = (dx+0.5)*src/dst - 0.5. Samples outside the source replicate the edge.
func linearTaps(src, dst int) []linearTap {
	scale := float64(src) / float64(dst)
	taps := make([]linearTap, dst)
	for d := range taps {
		f := (float64(d)+0.5)*scale - 0.5
		s := int(math.Floor(f))
		f -= float64(s)
		if s < 0 {
			s, f = 0, 0
		}
		if s >= src-1 {
			s, f = src-1, 0
		}
		taps[d] = linearTap{
			i0: s,
			i1: minInt(s+1, src-1),
			w0: int32(math.RoundToEven((1 - f) * resizeCoefScale)),
			w1: int32(math.RoundToEven(f * resizeCoefScale)),
		}
	}
	return taps
}

// Resize scales an image to exactly width x height by bilinear interpolation
// over the two nearest samples on each axis. Aspect ratio is not preserved.
//
// At most four source pixels contribute to an output pixel, whatever the
// scale factor. Weights are 11-bit fixed point and the result is rounded once,
// as in OpenCV's INTER_LINEAR for 8-bit images.
func Resize(img image.Image, width, height int) *image.NRGBA {
	if width <= 0 || height <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))

	src := imaging.Clone(img)
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	if sw == 0 || sh == 0 {
		return dst
	}

	xt := linearTaps(sw, width)
	yt := linearTaps(sh, height)

	// Horizontal pass into a fixed-point buffer, one row per source row.
	hbuf := make([]int32, sh*width*4)
	for y := 0; y < sh; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+sw*4]
		out := hbuf[y*width*4 : (y+1)*width*4]
		for x, t := range xt {
			for c := 0; c < 4; c++ {
				out[x*4+c] = int32(row[t.i0*4+c])*t.w0 + int32(row[t.i1*4+c])*t.w1
			}
		}
	}

	const shift = 2 * resizeCoefBits
	for y, t := range yt {
		r0 := hbuf[t.i0*width*4 : (t.i0+1)*width*4]
		r1 := hbuf[t.i1*width*4 : (t.i1+1)*width*4]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+width*4]
		for i := range out {
			v := int64(r0[i])*int64(t.w0) + int64(r1[i])*int64(t.w1)
			out[i] = saturateUint8(float64((v + 1<<(shift-1)) >> shift))
		}
	}
	return dst
}

// Histogram counts the pixels of each intensity in a grayscale image.
func Histogram(gray *image.Gray) [256]int {
	var hist [256]int
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		off := gray.PixOffset(bounds.Min.X, y)
		for _, v := range gray.Pix[off : off+bounds.Dx()] {
			hist[v]++
		}
	}
	return hist
}

// MeanInRect returns the mean intensity of gray inside rect. The rectangle is
// clipped to the image; an empty intersection yields 0.
func MeanInRect(gray *image.Gray, rect image.Rectangle) float64 {
	rect = rect.Intersect(gray.Bounds())
	if rect.Empty() {
		return 0
	}

	var sum int64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		off := gray.PixOffset(rect.Min.X, y)
		for _, v := range gray.Pix[off : off+rect.Dx()] {
			sum += int64(v)
		}
	}
	return float64(sum) / float64(rect.Dx()*rect.Dy())
}
