package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the frame image file",
	}
}

func cornersProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"minItems":    4,
		"maxItems":    4,
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"x": map[string]interface{}{"type": "number"},
				"y": map[string]interface{}{"type": "number"},
			},
			"required": []string{"x", "y"},
		},
	}
}

func guidanceProperties(props map[string]interface{}) map[string]interface{} {
	props["frame_width_pct"] = map[string]interface{}{
		"type":        "number",
		"description": "Guidance box width as a percentage of the frame width. Default from configuration (75)",
	}
	props["frame_height_pct"] = map[string]interface{}{
		"type":        "number",
		"description": "Guidance box height as a percentage of the frame height. Default from configuration (75)",
	}
	props["offset"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"handheld", "fixed"},
		"description": "Horizontal centering policy: 'handheld' offsets by half the box width, 'fixed' by a quarter",
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "guidance_frame",
			Description: "Compute the guidance quadrilateral (the box the document should fill) for a frame of the given size. Corners are returned in TL, TR, BR, BL order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": guidanceProperties(map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Frame width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Frame height in pixels",
					},
				}),
				"required": []string{"width", "height"},
			},
		},
		{
			Name:        "document_detect",
			Description: "Find the largest four-cornered document outline in a frame image. Optionally also reports glare regions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"area_policy": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"fixed", "frame"},
						"description": "Minimum area policy: 'fixed' uses min_area, 'frame' scales with the frame size",
					},
					"min_area": map[string]interface{}{
						"type":        "number",
						"description": "Minimum document area in square pixels for the fixed policy. Default 5000",
					},
					"backend": map[string]interface{}{
						"type":        "string",
						"description": "Detection backend. Default 'native'",
					},
					"glare": map[string]interface{}{
						"type":        "boolean",
						"description": "Also detect glare regions. Default false",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "alignment_validate",
			Description: "Evaluate the capture features (contour, position, glare) for a frame and return per-feature validity and feedback. Pass either a frame path, or width, height and detected corners.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": guidanceProperties(map[string]interface{}{
					"path": pathProperty(),
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Frame width when no path is given",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Frame height when no path is given",
					},
					"detected": cornersProperty("Detected document corners (TL, TR, BR, BL) when no path is given"),
					"strategy": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"area", "edge"},
						"description": "Alignment strategy. Default from configuration (area)",
					},
					"side_margin_pct": map[string]interface{}{
						"type":        "number",
						"description": "Edge strategy margin as a percentage of the guidance width. Default 20",
					},
					"features": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string", "enum": []string{"contour", "position", "glare"}},
						"description": "Features to evaluate, in order. Default contour, position",
					},
				}),
			},
		},
		{
			Name:        "autocapture_replay",
			Description: "Replay a sequence of frame images through an auto-capture session on a simulated clock. Returns the feedback timeline and every capture with its document outline.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Frame image files, or a single directory, in playback order",
					},
					"holding_ms": map[string]interface{}{
						"type":        "integer",
						"description": "How long every feature must stay valid before capture. Default 2000",
					},
					"frame_ms": map[string]interface{}{
						"type":        "integer",
						"description": "How long each frame stays on screen. Default 100",
					},
					"duration_ms": map[string]interface{}{
						"type":        "integer",
						"description": "Total simulated time. Default: frames × frame_ms + holding_ms. At most 20 × frames × frame_ms + holding_ms",
					},
					"features": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string", "enum": []string{"contour", "position", "glare"}},
						"description": "Features to evaluate. Default contour, position",
					},
					"loop": map[string]interface{}{
						"type":        "boolean",
						"description": "Wrap around after the last frame instead of holding it. Default false",
					},
					"include_snapshot": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the cropped document of each capture as base64 PNG. Default false",
					},
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "debug_overlay",
			Description: "Draw the guidance box, the detected document outline and glare regions over a frame and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": guidanceProperties(map[string]interface{}{
					"path": pathProperty(),
					"glare": map[string]interface{}{
						"type":        "boolean",
						"description": "Also outline glare regions. Default true",
					},
				}),
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
