//go:build gocv

package analysis

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/mammogram-analyzer/internal/imaging"
)

// OpenCVBackend is the name of the gocv backend.
const OpenCVBackend = "opencv"

func init() {
	RegisterBackend(OpenCVBackend, func() Backend { return opencvBackend{} })
}

// opencvBackend runs the pipeline through OpenCV. It exists to cross-check
// the native backend against the reference implementation.
type opencvBackend struct{}

func (opencvBackend) Name() string { return OpenCVBackend }

func (opencvBackend) Regions(img image.Image, opts Options) ([]Region, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	gray, err := gocv.ImageGrayToMatGray(imaging.ToGray(img))
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer gray.Close()

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.AdaptiveThreshold(gray, &thresh, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv,
		opts.BlockSize, float32(opts.C))

	contours := gocv.FindContours(thresh, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	regions := make([]Region, 0)
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area <= opts.MinRegionArea {
			continue
		}
		rect := gocv.BoundingRect(contour)
		roi := gray.Region(rect)
		density := gocv.Mean(roi).Val1
		roi.Close()
		regions = append(regions, newRegion(i+1, area, rect, density, opts))
	}
	return regions, nil
}

func (opencvBackend) Features(img image.Image, opts Options) (Features, error) {
	if err := opts.Validate(); err != nil {
		return Features{}, err
	}

	bgr, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return Features{}, fmt.Errorf("failed to convert image: %w", err)
	}
	defer bgr.Close()

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(bgr, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	clahe := gocv.NewCLAHEWithParams(opts.ClipLimit, image.Pt(opts.TileGrid, opts.TileGrid))
	defer clahe.Close()
	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(channels[0], &equalized)
	equalized.CopyTo(&channels[0])
	gocv.Merge(channels, &lab)

	enhanced := gocv.NewMat()
	defer enhanced.Close()
	gocv.CvtColor(lab, &enhanced, gocv.ColorLabToBGR)

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(enhanced, &resized, image.Pt(opts.TargetSize, opts.TargetSize), 0, 0, gocv.InterpolationLinear)

	grayMat := gocv.NewMat()
	defer grayMat.Close()
	gocv.CvtColor(resized, &grayMat, gocv.ColorBGRToGray)

	out, err := grayMat.ToImage()
	if err != nil {
		return Features{}, fmt.Errorf("failed to convert result: %w", err)
	}
	return featuresFromGray(imaging.ToGray(out), opts.HistogramBins), nil
}
