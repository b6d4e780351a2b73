package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ToGray converts an image to 8-bit grayscale using ITU-R BT.601 weights
// (0.299*R + 0.587*G + 0.114*B).
//
// The weighted sum uses the same 14-bit fixed-point arithmetic as OpenCV's
// RGB2GRAY so that intensities match the reference pipeline exactly. The
// result always has bounds starting at (0,0).
func ToGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	gray := image.NewGray(image.Rect(0, 0, width, height))

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < height; y++ {
			off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(gray.Pix[y*gray.Stride:y*gray.Stride+width], src.Pix[off:off+width])
		}
		return gray
	case *image.Gray16:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				v := src.Gray16At(x+bounds.Min.X, y+bounds.Min.Y).Y
				gray.Pix[y*gray.Stride+x] = uint8(v >> 8)
			}
		}
		return gray
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			gray.Pix[y*gray.Stride+x] = luma(uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}
	return gray
}

// luma computes BT.601 luminance with rounding in 14-bit fixed point.
func luma(r, g, b uint8) uint8 {
	const (
		rw    = 4899 // 0.299 * 2^14
		gw    = 9617 // 0.587 * 2^14
		bw    = 1868 // 0.114 * 2^14
		shift = 14
	)
	return uint8((uint32(r)*rw + uint32(g)*gw + uint32(b)*bw + 1<<(shift-1)) >> shift)
}

// LabImage holds an image in CIE L*a*b* space (D65 white point).
//
// L is quantised to 8 bits in the OpenCV convention (L* scaled from 0..100 to
// 0..255) so that histogram-based operations such as CLAHE can work on it
// directly. The chroma planes stay in floating point; they are carried through
// unchanged and only need to survive the round trip back to RGB.
type LabImage struct {
	Rect image.Rectangle
	L    *image.Gray
	A    []float64
	B    []float64
}

// ToLab converts an sRGB image to Lab.
func ToLab(img image.Image) *LabImage {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	rect := image.Rect(0, 0, width, height)

	lab := &LabImage{
		Rect: rect,
		L:    image.NewGray(rect),
		A:    make([]float64, width*height),
		B:    make([]float64, width*height),
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c, _ := colorful.MakeColor(img.At(x+bounds.Min.X, y+bounds.Min.Y))
			l, a, b := c.Lab()
			i := y*width + x
			lab.L.Pix[y*lab.L.Stride+x] = uint8(math.Round(clampFloat(l, 0, 1) * 255))
			lab.A[i] = a
			lab.B[i] = b
		}
	}
	return lab
}

// RGBA converts the Lab image back to sRGB, clamping out-of-gamut colors.
func (lab *LabImage) RGBA() *image.RGBA {
	width, height := lab.Rect.Dx(), lab.Rect.Dy()
	out := image.NewRGBA(lab.Rect)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			l := float64(lab.L.Pix[y*lab.L.Stride+x]) / 255
			r, g, b := colorful.Lab(l, lab.A[i], lab.B[i]).Clamped().RGB255()
			out.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return out
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
