package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the schema shared by every tool's path argument.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the mammogram image (PNG, JPEG, TIFF, BMP, GIF or WebP)",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "mammogram_analyze",
			Description: "Run the full screening pipeline on a mammogram: contrast enhancement, intensity features, " +
				"suspicious region detection, classification, risk level and recommendations. " +
				"The result is a screening aid, not a diagnosis.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a base64 PNG with every region outlined. Default false",
						"default":     false,
					},
					"thumbnails": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a cropped base64 PNG of each region. Default false",
						"default":     false,
					},
					"thumbnail_scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for thumbnails (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
					"annotations": map[string]interface{}{
						"type":        "boolean",
						"description": "Read burned-in laterality/view markers with OCR when the server has it enabled. Default false",
						"default":     false,
					},
					"include_features": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the raw feature values (mean, std, median, histogram). Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "mammogram_regions",
			Description: "Detect regions of interest: adaptive threshold, outer contours, area filter. " +
				"Returns each region's bounding box, area, mean density and suspicion level.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "mammogram_features",
			Description: "Compute the intensity features used for classification on the contrast-enhanced, 224x224 image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "mammogram_overlay",
			Description: "Return the image as base64 PNG with detected regions outlined and numbered. " +
				"Red is high suspicion, orange medium, yellow low.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "mammogram_info",
			Description: "Get image dimensions, format, bit depth and acquisition metadata (EXIF make, model, date) if present.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
