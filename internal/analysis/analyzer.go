package analysis

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/mammogram-analyzer/internal/imaging"
)

// Annotator reads burned-in text markers from an image.
type Annotator interface {
	Annotate(ctx context.Context, img image.Image) (*Annotations, error)
}

// AnalyzeOptions selects the optional parts of a report.
type AnalyzeOptions struct {
	// RequestID is copied into the report and the logs.
	RequestID string
	// Overlay adds a PNG of the image with every region outlined.
	Overlay bool
	// Thumbnails adds a cropped PNG per region.
	Thumbnails bool
	// ThumbnailScale resizes thumbnails; 0 keeps the region size.
	ThumbnailScale float64
	// Annotations runs the annotator, when one is configured.
	Annotations bool
	// IncludeFeatures adds the raw feature values to the report.
	IncludeFeatures bool
}

// Overlay colours per suspicion level.
var suspicionColors = map[SuspicionLevel]string{
	SuspicionHigh:   "#FF0000",
	SuspicionMedium: "#FFA500",
	SuspicionLow:    "#FFFF00",
}

// Analyzer runs the full pipeline on uploaded images. It is safe for
// concurrent use.
type Analyzer struct {
	backend   Backend
	opts      Options
	annotator Annotator
	logger    *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithBackend replaces the native backend.
func WithBackend(b Backend) Option {
	return func(a *Analyzer) { a.backend = b }
}

// WithOptions replaces DefaultOptions.
func WithOptions(o Options) Option {
	return func(a *Analyzer) { a.opts = o }
}

// WithAnnotator enables marker reading for requests that ask for it.
func WithAnnotator(an Annotator) Option {
	return func(a *Analyzer) { a.annotator = an }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// NewAnalyzer builds an analyzer, validating its options.
func NewAnalyzer(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		opts:   DefaultOptions(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.backend == nil {
		b, err := NewBackend(DefaultBackend)
		if err != nil {
			return nil, err
		}
		a.backend = b
	}
	if err := a.opts.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Backend returns the name of the backend in use.
func (a *Analyzer) Backend() string { return a.backend.Name() }

// Options returns the pipeline parameters.
func (a *Analyzer) Options() Options { return a.opts }

// AnnotationsEnabled reports whether an annotator is configured.
func (a *Analyzer) AnnotationsEnabled() bool { return a.annotator != nil }

// Analyze decodes an uploaded image and analyses it.
//
// Empty input returns ErrNoImage; bytes that do not decode return an error
// wrapping ErrUnreadableImage. EXIF metadata, when present, is attached to the
// report.
func (a *Analyzer) Analyze(ctx context.Context, data []byte, ao AnalyzeOptions) (*Report, error) {
	if len(data) == 0 {
		return nil, ErrNoImage
	}

	img, info, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}

	report, err := a.AnalyzeImage(ctx, img, ao)
	if err != nil {
		return nil, err
	}
	report.Image = info

	meta, err := imaging.ReadMetadata(data, info.Format)
	switch {
	case err != nil:
		// The pixels decoded; a broken EXIF block only costs the metadata.
		a.logger.Warn("metadata unreadable",
			zap.String("request_id", ao.RequestID),
			zap.String("format", info.Format),
			zap.Error(err),
		)
	case !meta.IsEmpty():
		report.Metadata = meta
	}
	return report, nil
}

// AnalyzeImage analyses an already decoded image. Regions, features and
// annotations are computed concurrently.
func (a *Analyzer) AnalyzeImage(ctx context.Context, img image.Image, ao AnalyzeOptions) (*Report, error) {
	start := time.Now()
	logger := a.logger
	if ao.RequestID != "" {
		logger = logger.With(zap.String("request_id", ao.RequestID))
	}

	var (
		regions  []Region
		features Features
		notes    *Annotations
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		r, err := a.backend.Regions(img, a.opts)
		if err != nil {
			return fmt.Errorf("region analysis failed: %w", err)
		}
		regions = r
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		f, err := a.backend.Features(img, a.opts)
		if err != nil {
			return fmt.Errorf("feature extraction failed: %w", err)
		}
		features = f
		return nil
	})
	if ao.Annotations && a.annotator != nil {
		g.Go(func() error {
			n, err := a.annotator.Annotate(gctx, img)
			if err != nil {
				// Markers are informational only.
				logger.Warn("annotation failed", zap.Error(err))
				return nil
			}
			notes = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prediction := Predict(features, a.opts)
	result := DetailedAnalysis(prediction, regions)

	report := NewReport(result, regions)
	report.RequestID = ao.RequestID
	report.Backend = a.backend.Name()
	report.Annotations = notes
	if ao.IncludeFeatures {
		f := features
		report.Features = &f
	}

	if ao.Overlay {
		overlay, err := a.Overlay(img, regions)
		if err != nil {
			return nil, err
		}
		report.Overlay = overlay
	}
	if ao.Thumbnails {
		thumbs, err := Thumbnails(img, regions, ao.ThumbnailScale)
		if err != nil {
			return nil, err
		}
		report.Thumbnails = thumbs
	}

	logger.Info("analysis complete",
		zap.String("backend", a.backend.Name()),
		zap.String("class", string(result.Classification)),
		zap.String("risk_level", string(result.RiskLevel)),
		zap.Int("regions", len(regions)),
		zap.Float64("mean", features.Mean),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

// Regions runs only the region half of the pipeline.
func (a *Analyzer) Regions(ctx context.Context, img image.Image) ([]Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.backend.Regions(img, a.opts)
}

// Features runs only the feature half of the pipeline.
func (a *Analyzer) Features(ctx context.Context, img image.Image) (Features, error) {
	if err := ctx.Err(); err != nil {
		return Features{}, err
	}
	return a.backend.Features(img, a.opts)
}

// Overlay draws every region on img, coloured by suspicion level and
// labelled with its ID.
func (a *Analyzer) Overlay(img image.Image, regions []Region) (*imaging.OverlayResult, error) {
	boxes := make([]imaging.OverlayBox, len(regions))
	for i, r := range regions {
		boxes[i] = imaging.OverlayBox{
			Rect:  r.Location.Rect(),
			Color: suspicionColors[r.SuspicionLevel],
			Label: strconv.Itoa(r.ID),
		}
	}
	overlay, err := imaging.DrawRegions(img, boxes)
	if err != nil {
		return nil, fmt.Errorf("overlay failed: %w", err)
	}
	return overlay, nil
}

// Thumbnails crops every region out of img.
func Thumbnails(img image.Image, regions []Region, scale float64) ([]Thumbnail, error) {
	if scale <= 0 {
		scale = 1
	}
	thumbs := make([]Thumbnail, 0, len(regions))
	for _, r := range regions {
		crop, err := imaging.CropRegion(img, r.Location.Rect().Add(img.Bounds().Min), scale)
		if err != nil {
			return nil, fmt.Errorf("thumbnail for region %d: %w", r.ID, err)
		}
		thumbs = append(thumbs, Thumbnail{RegionID: r.ID, CropResult: crop})
	}
	return thumbs, nil
}
