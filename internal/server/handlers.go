package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ironsheep/doc-autocapture/internal/capture"
	"github.com/ironsheep/doc-autocapture/internal/detection"
	"github.com/ironsheep/doc-autocapture/internal/geometry"
	"github.com/ironsheep/doc-autocapture/internal/guidance"
	"github.com/ironsheep/doc-autocapture/internal/imaging"
	"github.com/ironsheep/doc-autocapture/internal/validation"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "document_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithError(err).WithField("tool", params.Name).Warn("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "guidance_frame":
		return s.handleGuidanceFrame(args)
	case "document_detect":
		return s.handleDocumentDetect(args)
	case "alignment_validate":
		return s.handleAlignmentValidate(args)
	case "autocapture_replay":
		return s.handleAutocaptureReplay(args)
	case "debug_overlay":
		return s.handleDebugOverlay(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// guidanceArgs are the optional guidance overrides shared by several tools.
type guidanceArgs struct {
	FrameWidthPct  float64 `json:"frame_width_pct"`
	FrameHeightPct float64 `json:"frame_height_pct"`
	Offset         string  `json:"offset"`
}

// guidanceConfig applies a over the server configuration.
func (s *Server) guidanceConfig(a guidanceArgs) (guidance.Config, error) {
	cfg := s.cfg.Guidance
	if a.FrameWidthPct != 0 {
		cfg.FrameWidthPct = a.FrameWidthPct
	}
	if a.FrameHeightPct != 0 {
		cfg.FrameHeightPct = a.FrameHeightPct
	}
	if a.Offset != "" {
		p, err := guidance.ParseOffsetPolicy(a.Offset)
		if err != nil {
			return cfg, err
		}
		cfg.Offset = p
	}
	return cfg, nil
}

// detectFrame runs the configured finder over f.
func (s *Server) detectFrame(f imaging.Frame, finder detection.Finder) (*geometry.Quad, error) {
	arena := s.pool.NewArena()
	defer arena.Release()

	q, found, err := finder.Find(f, arena)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &q, nil
}

// detectGlare runs the configured glare detector over f.
func (s *Server) detectGlare(f imaging.Frame) ([]detection.GlareRegion, error) {
	arena := s.pool.NewArena()
	defer arena.Release()

	gray, err := imaging.Grayscale(f, arena)
	if err != nil {
		return nil, err
	}
	return s.cfg.GlareDetector().Detect(gray), nil
}

// === Guidance ===

type guidanceFrameArgs struct {
	guidanceArgs
	Width  int `json:"width"`
	Height int `json:"height"`
}

type guidanceFrameResult struct {
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Offset   string          `json:"offset"`
	Guidance geometry.Quad   `json:"guidance"`
	Bounds   geometry.Bounds `json:"bounds"`
}

func (s *Server) handleGuidanceFrame(args json.RawMessage) (interface{}, error) {
	var a guidanceFrameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg, err := s.guidanceConfig(a.guidanceArgs)
	if err != nil {
		return nil, err
	}
	q, err := guidance.Frame(a.Width, a.Height, cfg)
	if err != nil {
		return nil, err
	}
	return &guidanceFrameResult{
		Width:    a.Width,
		Height:   a.Height,
		Offset:   cfg.Offset.String(),
		Guidance: q,
		Bounds:   q.Bounds(),
	}, nil
}

// === Detection ===

type documentDetectArgs struct {
	Path       string  `json:"path"`
	AreaPolicy string  `json:"area_policy"`
	MinArea    float64 `json:"min_area"`
	Backend    string  `json:"backend"`
	Glare      bool    `json:"glare"`
}

type documentDetectResult struct {
	Width   int                     `json:"width"`
	Height  int                     `json:"height"`
	Backend string                  `json:"backend"`
	MinArea float64                 `json:"min_area"`
	Found   bool                    `json:"found"`
	Corners *geometry.Quad          `json:"corners,omitempty"`
	Area    float64                 `json:"area,omitempty"`
	Bounds  *geometry.Bounds        `json:"bounds,omitempty"`
	Glare   []detection.GlareRegion `json:"glare,omitempty"`
}

func (s *Server) handleDocumentDetect(args json.RawMessage) (interface{}, error) {
	var a documentDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	opts, err := s.cfg.ExtractorOptions()
	if err != nil {
		return nil, err
	}
	if a.AreaPolicy != "" {
		if opts.Policy, err = detection.ParseAreaPolicy(a.AreaPolicy); err != nil {
			return nil, err
		}
	}
	if a.MinArea > 0 {
		opts.MinArea = a.MinArea
	}
	backend := s.cfg.Backend
	if a.Backend != "" {
		backend = a.Backend
	}
	finder, err := detection.NewFinder(backend, opts)
	if err != nil {
		return nil, err
	}

	f, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	q, err := s.detectFrame(f, finder)
	if err != nil {
		return nil, err
	}

	result := &documentDetectResult{
		Width:   f.Width,
		Height:  f.Height,
		Backend: backend,
		MinArea: opts.MinDetectableArea(f.Width, f.Height),
		Found:   q != nil,
		Corners: q,
	}
	if q != nil {
		b := q.Bounds()
		result.Area = q.Area()
		result.Bounds = &b
	}
	if a.Glare {
		if result.Glare, err = s.detectGlare(f); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// === Validation ===

type alignmentValidateArgs struct {
	guidanceArgs
	Path          string           `json:"path"`
	Width         int              `json:"width"`
	Height        int              `json:"height"`
	Detected      []geometry.Point `json:"detected"`
	Strategy      string           `json:"strategy"`
	SideMarginPct *float64         `json:"side_margin_pct"`
	Features      []string         `json:"features"`
}

type alignmentValidateResult struct {
	Guidance  geometry.Quad                `json:"guidance"`
	Detected  *geometry.Quad               `json:"detected,omitempty"`
	Direction string                       `json:"direction,omitempty"`
	Status    string                       `json:"status"`
	Results   []validation.DetectionResult `json:"results"`
}

func (s *Server) handleAlignmentValidate(args json.RawMessage) (interface{}, error) {
	var a alignmentValidateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	gcfg, err := s.guidanceConfig(a.guidanceArgs)
	if err != nil {
		return nil, err
	}
	if a.SideMarginPct != nil {
		gcfg.SideMarginPct = *a.SideMarginPct
	}
	strategyName := s.cfg.Strategy
	if a.Strategy != "" {
		strategyName = a.Strategy
	}
	strategy, err := validation.ParseStrategy(strategyName)
	if err != nil {
		return nil, err
	}
	ids := s.cfg.Features
	if len(a.Features) > 0 {
		ids = a.Features
	}
	kinds, err := validation.ParseKinds(ids)
	if err != nil {
		return nil, err
	}

	in := validation.Input{
		FrameAvailable: true,
		MarginPct:      gcfg.SideMarginPct,
		Strategy:       strategy,
	}
	width, height := a.Width, a.Height

	if a.Path != "" {
		f, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		width, height = f.Width, f.Height
		finder, err := s.cfg.Finder()
		if err != nil {
			return nil, err
		}
		in.Detected, err = s.detectFrame(f, finder)
		switch {
		case errors.Is(err, detection.ErrMissingCorner):
			in.Degenerate = true
		case err != nil:
			return nil, err
		}
		for _, k := range kinds {
			if k == validation.KindGlare {
				regions, err := s.detectGlare(f)
				if err != nil {
					return nil, err
				}
				in.GlareRegions = len(regions)
			}
		}
	} else if len(a.Detected) > 0 {
		if len(a.Detected) != 4 {
			return nil, fmt.Errorf("detected needs 4 corners, got %d", len(a.Detected))
		}
		q := geometry.Quad{a.Detected[0], a.Detected[1], a.Detected[2], a.Detected[3]}
		in.Detected = &q
	}

	g, err := guidance.Frame(width, height, gcfg)
	if err != nil {
		return nil, err
	}
	in.Guidance, in.HasGuidance = g, true

	results := validation.EvaluateAll(kinds, in)
	out := &alignmentValidateResult{
		Guidance: g,
		Detected: in.Detected,
		Status:   capture.StatusOf(results).String(),
		Results:  results,
	}
	if in.Detected != nil {
		out.Direction = validation.Align(*in.Detected, g, strategy, gcfg.SideMarginPct).String()
	}
	return out, nil
}

// === Overlay ===

type debugOverlayArgs struct {
	guidanceArgs
	Path  string `json:"path"`
	Glare *bool  `json:"glare"`
}

type debugOverlayResult struct {
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Found       bool           `json:"found"`
	Detected    *geometry.Quad `json:"detected,omitempty"`
	GlareCount  int            `json:"glare_count"`
	ImageBase64 string         `json:"image_base64"`
	MimeType    string         `json:"mime_type"`
}

func (s *Server) handleDebugOverlay(args json.RawMessage) (interface{}, error) {
	var a debugOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	gcfg, err := s.guidanceConfig(a.guidanceArgs)
	if err != nil {
		return nil, err
	}

	f, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	g, err := guidance.Frame(f.Width, f.Height, gcfg)
	if err != nil {
		return nil, err
	}
	finder, err := s.cfg.Finder()
	if err != nil {
		return nil, err
	}
	q, err := s.detectFrame(f, finder)
	if err != nil {
		return nil, err
	}

	ov := imaging.Overlay{Guidance: g, Detected: q}
	if a.Glare == nil || *a.Glare {
		regions, err := s.detectGlare(f)
		if err != nil {
			return nil, err
		}
		for _, r := range regions {
			ov.Glare = append(ov.Glare, r.Outline)
		}
	}

	img, err := imaging.RenderOverlay(f.Image(), ov, s.cfg.OverlayStyle())
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNGBase64(img)
	if err != nil {
		return nil, err
	}
	return &debugOverlayResult{
		Width:       f.Width,
		Height:      f.Height,
		Found:       q != nil,
		Detected:    q,
		GlareCount:  len(ov.Glare),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// resolvePaths expands a single directory argument into its frame images.
func resolvePaths(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no frame paths given")
	}
	if len(paths) == 1 {
		info, err := os.Stat(paths[0])
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return imaging.ListFrames(paths[0])
		}
	}
	return paths, nil
}
