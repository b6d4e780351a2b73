package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ironsheep/mammogram-analyzer/internal/analysis"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	a, err := analysis.NewAnalyzer()
	require.NoError(t, err)
	return New(a, zap.NewNop(), opts)
}

// scanPNG encodes a white 100x100 image with a dark 40x40 square.
func scanPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			v := uint8(255)
			if x >= 30 && x < 70 && y >= 30 && y < 70 {
				v = 50
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartRequest builds a POST with data in the given form field.
func multipartRequest(t *testing.T, target, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, "scan.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAnalyze_Success(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := serve(s, multipartRequest(t, "/analyze", "image", scanPNG(t)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeBody(t, rec)

	assert.Equal(t, "Benign", out["class"])
	assert.Equal(t, "Low", out["risk_level"])
	assert.InDelta(t, 70.0, out["confidence"], 1e-9)
	assert.Contains(t, out["result"], "Classification: Benign")
	assert.Len(t, out["regions"], 1)
	assert.NotEmpty(t, out["recommendations"])

	id := rec.Header().Get(requestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, out["request_id"])

	assert.NotContains(t, out, "overlay")
	assert.NotContains(t, out, "thumbnails")
}

func TestAnalyze_QueryFlags(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := serve(s, multipartRequest(t, "/analyze?overlay=true&thumbnails=1&features=true&thumbnail_scale=2", "image", scanPNG(t)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeBody(t, rec)

	overlay, ok := out["overlay"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "image/png", overlay["mime_type"])

	thumbs, ok := out["thumbnails"].([]any)
	require.True(t, ok)
	require.Len(t, thumbs, 1)
	assert.Equal(t, float64(80), thumbs[0].(map[string]any)["width"])

	assert.Contains(t, out, "features")
}

func TestAnalyze_InvalidFlags(t *testing.T) {
	s := newTestServer(t, Options{})

	for _, q := range []string{"overlay=maybe", "thumbnail_scale=-1", "thumbnail_scale=big"} {
		rec := serve(s, multipartRequest(t, "/analyze?"+q, "image", scanPNG(t)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestAnalyze_NoImage(t *testing.T) {
	s := newTestServer(t, Options{})

	tests := []struct {
		name string
		req  func() *http.Request
	}{
		{"wrong field", func() *http.Request {
			return multipartRequest(t, "/analyze", "file", scanPNG(t))
		}},
		{"not multipart", func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader([]byte("{}")))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, tt.req())
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]any{"error": "No image provided"}, decodeBody(t, rec))
		})
	}
}

func TestAnalyze_UnreadableImage(t *testing.T) {
	s := newTestServer(t, Options{})

	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte("definitely not an image")},
		{"empty file", nil},
		{"truncated png", scanPNG(t)[:32]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, multipartRequest(t, "/analyze", "image", tt.data))
			require.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, map[string]any{"error": "Could not read the image"}, decodeBody(t, rec))
		})
	}
}

func TestAnalyze_TooLarge(t *testing.T) {
	data := scanPNG(t)
	s := newTestServer(t, Options{MaxUploadBytes: 64})
	require.Greater(t, len(data), 64)

	rec := serve(s, multipartRequest(t, "/analyze", "image", data))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "64 byte")
}

func TestAnalyze_BackendFailure(t *testing.T) {
	a, err := analysis.NewAnalyzer(analysis.WithBackend(brokenBackend{}))
	require.NoError(t, err)
	s := New(a, nil, Options{})

	rec := serve(s, multipartRequest(t, "/analyze", "image", scanPNG(t)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "backend exploded")
}

type brokenBackend struct{}

func (brokenBackend) Name() string { return "broken" }

func (brokenBackend) Regions(image.Image, analysis.Options) ([]analysis.Region, error) {
	return nil, fmt.Errorf("backend exploded")
}

func (brokenBackend) Features(image.Image, analysis.Options) (analysis.Features, error) {
	return analysis.Features{}, nil
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok", "backend": "native"}, decodeBody(t, rec))
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, Options{})

	const given = "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, given)
	assert.Equal(t, given, serve(s, req).Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid")
	got := serve(s, req).Header().Get(requestIDHeader)
	assert.NotEqual(t, "not-a-uuid", got)
	assert.Len(t, got, 36)
}

func TestCORS(t *testing.T) {
	t.Run("all origins", func(t *testing.T) {
		s := newTestServer(t, Options{})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "https://viewer.example")
		assert.Equal(t, "*", serve(s, req).Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("restricted", func(t *testing.T) {
		s := newTestServer(t, Options{AllowOrigins: []string{"https://viewer.example"}})

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "https://viewer.example")
		assert.Equal(t, "https://viewer.example", serve(s, req).Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "https://evil.example")
		assert.Equal(t, http.StatusForbidden, serve(s, req).Code)
	})
}

func TestRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	a, err := analysis.NewAnalyzer()
	require.NoError(t, err)
	s := New(a, zap.New(core), Options{})

	serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	serve(s, multipartRequest(t, "/analyze", "file", nil))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "/healthz", entries[0].ContextMap()["path"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(http.StatusBadRequest), entries[1].ContextMap()["status"])
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := newTestServer(t, Options{ShutdownTimeout: time.Second})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
