package imaging

import (
	"image"
	"math"
)

const histSize = 256

// CLAHE applies Contrast Limited Adaptive Histogram Equalization to a
// grayscale image.
//
// The image is divided into tiles x tiles regions. Each region gets its own
// equalisation lookup table built from a clipped histogram, and every output
// pixel is bilinearly interpolated between the tables of the four nearest
// tile centres.
//
// Parameters:
//   - gray: Source image. Not modified.
//   - clipLimit: Contrast limit relative to a flat histogram. A value of 3.0
//     caps every histogram bin at three times the average bin height. Values
//     <= 0 disable clipping (plain tiled equalisation).
//   - tiles: Number of tiles per axis. Values < 1 are treated as 1.
//
// # Tiling
//
// When the image size is not a multiple of the tile grid, the image used for
// building the tables is extended on the right and bottom by reflection
// (gfedcb|abcdefgh|gfedcba). Following OpenCV, both axes are extended by
// tiles - (size % tiles) in that case, even an axis that was already a
// multiple. Only pixels of the original image are written to the output.
//
// # Clipping
//
// The absolute clip limit is max(int(clipLimit*tileArea/256), 1). Counts
// above the limit are removed and redistributed evenly over all 256 bins; the
// remainder that does not divide evenly is spread one count at a time with a
// stride of 256/remainder, starting at bin 0.
func CLAHE(gray *image.Gray, clipLimit float64, tiles int) *image.Gray {
	if tiles < 1 {
		tiles = 1
	}

	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return out
	}

	src := func(x, y int) uint8 {
		return gray.Pix[gray.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)]
	}

	extWidth, extHeight := width, height
	if width%tiles != 0 || height%tiles != 0 {
		extWidth = width + tiles - width%tiles
		extHeight = height + tiles - height%tiles
	}
	tileW := extWidth / tiles
	tileH := extHeight / tiles
	tileArea := tileW * tileH

	limit := 0
	if clipLimit > 0 {
		limit = int(clipLimit * float64(tileArea) / histSize)
		if limit < 1 {
			limit = 1
		}
	}
	lutScale := float64(histSize-1) / float64(tileArea)

	luts := make([][histSize]uint8, tiles*tiles)
	var hist [histSize]int
	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			for i := range hist {
				hist[i] = 0
			}
			for y := ty * tileH; y < (ty+1)*tileH; y++ {
				sy := reflect101(y, height)
				for x := tx * tileW; x < (tx+1)*tileW; x++ {
					hist[src(reflect101(x, width), sy)]++
				}
			}

			if limit > 0 {
				clipHistogram(&hist, limit)
			}

			lut := &luts[ty*tiles+tx]
			sum := 0
			for i := 0; i < histSize; i++ {
				sum += hist[i]
				lut[i] = saturateUint8(float64(sum) * lutScale)
			}
		}
	}

	invTW := 1.0 / float64(tileW)
	invTH := 1.0 / float64(tileH)

	// Horizontal interpolation terms are the same for every row.
	tx1s := make([]int, width)
	tx2s := make([]int, width)
	xas := make([]float64, width)
	for x := 0; x < width; x++ {
		txf := float64(x)*invTW - 0.5
		tx1 := int(math.Floor(txf))
		xas[x] = txf - float64(tx1)
		tx1s[x] = maxInt(tx1, 0)
		tx2s[x] = minInt(tx1+1, tiles-1)
	}

	for y := 0; y < height; y++ {
		tyf := float64(y)*invTH - 0.5
		ty1 := int(math.Floor(tyf))
		ya := tyf - float64(ty1)
		ya1 := 1 - ya
		row1 := maxInt(ty1, 0) * tiles
		row2 := minInt(ty1+1, tiles-1) * tiles

		for x := 0; x < width; x++ {
			v := src(x, y)
			xa := xas[x]
			xa1 := 1 - xa
			top := float64(luts[row1+tx1s[x]][v])*xa1 + float64(luts[row1+tx2s[x]][v])*xa
			bottom := float64(luts[row2+tx1s[x]][v])*xa1 + float64(luts[row2+tx2s[x]][v])*xa
			out.Pix[y*out.Stride+x] = saturateUint8(top*ya1 + bottom*ya)
		}
	}

	return out
}

// clipHistogram caps every bin at limit and redistributes the excess.
func clipHistogram(hist *[histSize]int, limit int) {
	clipped := 0
	for i := range hist {
		if hist[i] > limit {
			clipped += hist[i] - limit
			hist[i] = limit
		}
	}

	batch := clipped / histSize
	residual := clipped - batch*histSize
	for i := range hist {
		hist[i] += batch
	}

	if residual != 0 {
		step := maxInt(histSize/residual, 1)
		for i := 0; i < histSize && residual > 0; i, residual = i+step, residual-1 {
			hist[i]++
		}
	}
}

// EnhanceContrast applies CLAHE to the lightness channel of an sRGB image and
// returns the recombined RGB image. Hue and chroma are preserved.
func EnhanceContrast(img image.Image, clipLimit float64, tiles int) *image.RGBA {
	lab := ToLab(img)
	lab.L = CLAHE(lab.L, clipLimit, tiles)
	return lab.RGBA()
}

// reflect101 maps an out-of-range index back into [0,n) by mirroring around
// the edge pixels without repeating them.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// saturateUint8 rounds half to even and clamps to [0,255].
func saturateUint8(v float64) uint8 {
	v = math.RoundToEven(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
