package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/mammogram-analyzer/internal/analysis"
	"github.com/ironsheep/mammogram-analyzer/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "mammogram_analyze").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errInvalidArguments marks argument problems so they map to -32602.
var errInvalidArguments = errors.New("invalid arguments")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Unknown tools and bad arguments return -32602; tool execution errors
// return -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", zap.String("tool", params.Name), zap.Error(err))
		if errors.Is(err, errInvalidArguments) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "mammogram_analyze":
		return s.handleAnalyze(ctx, args)
	case "mammogram_regions":
		return s.handleRegions(ctx, args)
	case "mammogram_features":
		return s.handleFeatures(ctx, args)
	case "mammogram_overlay":
		return s.handleOverlay(ctx, args)
	case "mammogram_info":
		return s.handleInfo(args)
	default:
		return nil, fmt.Errorf("%w: unknown tool %q", errInvalidArguments, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type pathArgs struct {
	Path string `json:"path"`
}

// decodeArgs unmarshals tool arguments and checks that a path is present.
func decodeArgs(args json.RawMessage, v interface{ path() string }) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing arguments", errInvalidArguments)
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArguments, err)
	}
	if v.path() == "" {
		return fmt.Errorf("%w: path is required", errInvalidArguments)
	}
	return nil
}

func (a *pathArgs) path() string { return a.Path }

type analyzeArgs struct {
	pathArgs
	Overlay         bool    `json:"overlay"`
	Thumbnails      bool    `json:"thumbnails"`
	ThumbnailScale  float64 `json:"thumbnail_scale"`
	Annotations     bool    `json:"annotations"`
	IncludeFeatures bool    `json:"include_features"`
}

func (s *Server) handleAnalyze(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a analyzeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ThumbnailScale == 0 {
		a.ThumbnailScale = 1.0
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	report, err := s.analyzer.AnalyzeImage(ctx, img, analysis.AnalyzeOptions{
		RequestID:       uuid.NewString(),
		Overlay:         a.Overlay,
		Thumbnails:      a.Thumbnails,
		ThumbnailScale:  a.ThumbnailScale,
		Annotations:     a.Annotations,
		IncludeFeatures: a.IncludeFeatures,
	})
	if err != nil {
		return nil, err
	}

	if info, err := imaging.LoadImageInfo(s.cache, a.Path); err == nil {
		report.Image = info
		if meta := s.metadata(a.Path, info.Format); !meta.IsEmpty() {
			report.Metadata = meta
		}
	}
	return report, nil
}

// regionsResult is the mammogram_regions response.
type regionsResult struct {
	Count   int               `json:"count"`
	Regions []analysis.Region `json:"regions"`
}

func (s *Server) handleRegions(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	regions, err := s.analyzer.Regions(ctx, img)
	if err != nil {
		return nil, err
	}
	return &regionsResult{Count: len(regions), Regions: regions}, nil
}

// featuresResult is the mammogram_features response.
type featuresResult struct {
	analysis.Features
	Vector     []float64           `json:"vector"`
	Prediction analysis.Prediction `json:"prediction"`
}

func (s *Server) handleFeatures(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	f, err := s.analyzer.Features(ctx, img)
	if err != nil {
		return nil, err
	}
	return &featuresResult{
		Features:   f,
		Vector:     f.Vector(),
		Prediction: analysis.Predict(f, s.analyzer.Options()),
	}, nil
}

func (s *Server) handleOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	regions, err := s.analyzer.Regions(ctx, img)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Overlay(img, regions)
}

// infoResult is the mammogram_info response.
type infoResult struct {
	*imaging.ImageInfo
	Metadata *imaging.Metadata `json:"metadata,omitempty"`
}

func (s *Server) handleInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}

	result := &infoResult{ImageInfo: info}
	if meta := s.metadata(a.Path, info.Format); !meta.IsEmpty() {
		result.Metadata = meta
	}
	return result, nil
}

// metadata reads EXIF fields for a cached path. Failures are logged and
// yield nil.
func (s *Server) metadata(path, format string) *imaging.Metadata {
	raw, err := s.cache.Raw(path)
	if err != nil {
		return nil
	}
	meta, err := imaging.ReadMetadata(raw, format)
	if err != nil {
		s.logger.Warn("metadata unreadable", zap.String("path", path), zap.Error(err))
		return nil
	}
	return meta
}
