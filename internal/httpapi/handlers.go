package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/mammogram-analyzer/internal/analysis"
)

// Message returned when an upload cannot be decoded.
const unreadableMessage = "Could not read the image"

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"backend": s.analyzer.Backend(),
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	limit := s.opts.MaxUploadBytes
	if c.Request.ContentLength > limit {
		s.tooLarge(c)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	file, err := c.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.tooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": analysis.ErrNoImage.Error()})
		return
	}

	f, err := file.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}
	// A present but empty image part is a decode failure, not a missing image.
	if len(data) == 0 {
		s.fail(c, fmt.Errorf("%w: empty upload %q", analysis.ErrUnreadableImage, file.Filename))
		return
	}

	ao, err := analyzeOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := s.analyzer.Analyze(c.Request.Context(), data, ao)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// analyzeOptions reads the optional query flags.
func analyzeOptions(c *gin.Context) (analysis.AnalyzeOptions, error) {
	ao := analysis.AnalyzeOptions{
		RequestID:      c.GetString(requestIDKey),
		ThumbnailScale: 1.0,
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"overlay", &ao.Overlay},
		{"thumbnails", &ao.Thumbnails},
		{"annotations", &ao.Annotations},
		{"features", &ao.IncludeFeatures},
	}
	for _, f := range flags {
		v := c.Query(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ao, fmt.Errorf("invalid %s flag %q", f.name, v)
		}
		*f.dst = b
	}

	if v := c.Query("thumbnail_scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			return ao, fmt.Errorf("invalid thumbnail_scale %q", v)
		}
		ao.ThumbnailScale = scale
	}
	return ao, nil
}

// fail maps a pipeline error to its status code and JSON body.
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, analysis.ErrNoImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": analysis.ErrNoImage.Error()})
	case errors.Is(err, analysis.ErrUnreadableImage):
		c.JSON(http.StatusInternalServerError, gin.H{"error": unreadableMessage})
	default:
		s.logger.Error("analysis failed",
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) tooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": fmt.Sprintf("Image exceeds the %d byte upload limit", s.opts.MaxUploadBytes),
	})
}
