package server

import "github.com/ironsheep/image-wand/internal/magick"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// objectSchema builds an input schema for a tool that reads the image at
// path. Tools that produce an image also accept output and format.
func objectSchema(props map[string]interface{}, produces bool, required ...string) map[string]interface{} {
	all := map[string]interface{}{"path": pathProperty}
	for k, v := range props {
		all[k] = v
	}
	if produces {
		all["output"] = map[string]interface{}{
			"type":        "string",
			"description": "Path to write the result to. When omitted the result is returned as base64.",
		}
		all["format"] = map[string]interface{}{
			"type":        "string",
			"description": "Output format (PNG, JPEG, GIF, TIFF, BMP). Defaults to the output extension, then the source format.",
		}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": all,
		"required":   append([]string{"path"}, required...),
	}
}

func integerProperty(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func numberProperty(description string, def float64) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": description, "default": def}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Information
		{
			Name:        "image_info",
			Description: "Get the width, height, format and MIME type of an image file.",
			InputSchema: objectSchema(nil, false),
		},
		{
			Name:        "image_row",
			Description: "Read one row of pixels as hex colours.",
			InputSchema: objectSchema(map[string]interface{}{
				"y": integerProperty("Row index (0-based, 0 = top)"),
			}, false, "y"),
		},
		{
			Name:        "image_sample_color",
			Description: "Get the colour of a single pixel in hex, RGB, RGBA and HSL.",
			InputSchema: objectSchema(map[string]interface{}{
				"x": integerProperty("X coordinate (0-based)"),
				"y": integerProperty("Y coordinate (0-based)"),
			}, false, "x", "y"),
		},

		// Geometry
		{
			Name:        "image_resize",
			Description: "Resize an image. When only one of width and height is given the aspect ratio is kept.",
			InputSchema: objectSchema(map[string]interface{}{
				"width":  integerProperty("Target width in pixels"),
				"height": integerProperty("Target height in pixels"),
				"filter": map[string]interface{}{
					"type":        "string",
					"description": "Resampling filter",
					"enum":        filterNames(),
					"default":     "lanczos",
				},
			}, true),
		},
		{
			Name:        "image_rotate",
			Description: "Rotate an image clockwise. Uncovered corners are filled with the background colour.",
			InputSchema: objectSchema(map[string]interface{}{
				"degrees": numberProperty("Clockwise rotation in degrees", 0),
				"background": map[string]interface{}{
					"type":        "string",
					"description": "Background colour (#rrggbb, #rrggbbaa or a CSS name)",
					"default":     "transparent",
				},
			}, true, "degrees"),
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region. Omitted edges extend to the image border and the region is clamped to the image.",
			InputSchema: objectSchema(map[string]interface{}{
				"x1": integerProperty("Left edge X coordinate (0-based)"),
				"y1": integerProperty("Top edge Y coordinate (0-based)"),
				"x2": integerProperty("Right edge X coordinate (exclusive)"),
				"y2": integerProperty("Bottom edge Y coordinate (exclusive)"),
			}, true),
		},
		{
			Name:        "image_flip",
			Description: "Mirror an image vertically (flip) or horizontally (flop).",
			InputSchema: objectSchema(map[string]interface{}{
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "Mirror axis",
					"enum":        []string{"vertical", "horizontal"},
					"default":     "vertical",
				},
			}, true),
		},

		// Effects
		{
			Name:        "image_sepia",
			Description: "Tone an image in sepia.",
			InputSchema: objectSchema(map[string]interface{}{
				"threshold": numberProperty("Toning strength from 0 (unchanged) to 1 (fully toned)", 0.8),
			}, true),
		},
		{
			Name:        "image_blur",
			Description: "Apply a Gaussian blur.",
			InputSchema: objectSchema(map[string]interface{}{
				"sigma": numberProperty("Standard deviation of the Gaussian in pixels", 1),
			}, true),
		},
		{
			Name:        "image_draw",
			Description: "Draw lines, rectangles, circles, ellipses, arcs, polygons, polylines, Bezier curves, points and text onto an image.",
			InputSchema: objectSchema(map[string]interface{}{
				"fill": map[string]interface{}{
					"type":        "string",
					"description": "Fill colour for shapes and text. Use \"none\" for outlines only.",
					"default":     "black",
				},
				"stroke": map[string]interface{}{
					"type":        "string",
					"description": "Outline colour. Shapes are not outlined when omitted.",
				},
				"stroke_width": numberProperty("Outline width in pixels", 1),
				"font_size":    numberProperty("Text size in points", magick.DefaultFontSize),
				"shapes": map[string]interface{}{
					"type":        "array",
					"description": "Primitives to draw, in order",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"type": map[string]interface{}{
								"type": "string",
								"enum": []string{"line", "rectangle", "circle", "ellipse", "arc", "polygon", "polyline", "bezier", "point", "text"},
							},
							"x1": map[string]interface{}{"type": "number", "description": "Start, corner or centre x"},
							"y1": map[string]interface{}{"type": "number", "description": "Start, corner or centre y"},
							"x2": map[string]interface{}{"type": "number", "description": "End or opposite corner x; a point on the circle"},
							"y2": map[string]interface{}{"type": "number", "description": "End or opposite corner y; a point on the circle"},
							"rx": map[string]interface{}{"type": "number", "description": "Ellipse x radius"},
							"ry": map[string]interface{}{"type": "number", "description": "Ellipse y radius"},
							"start": map[string]interface{}{
								"type":        "number",
								"description": "Ellipse or arc start angle in degrees",
								"default":     0,
							},
							"end": map[string]interface{}{
								"type":        "number",
								"description": "Ellipse or arc end angle in degrees. Defaults to a full turn from start.",
							},
							"points": map[string]interface{}{
								"type":        "array",
								"description": "Vertices of a polygon, polyline or Bezier curve",
								"items": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"x": map[string]interface{}{"type": "number"},
										"y": map[string]interface{}{"type": "number"},
									},
									"required": []string{"x", "y"},
								},
							},
							"text": map[string]interface{}{"type": "string"},
						},
						"required": []string{"type"},
					},
				},
			}, true, "shapes"),
		},

		// Format
		{
			Name:        "image_convert",
			Description: "Convert an image to another format.",
			InputSchema: objectSchema(map[string]interface{}{
				"to": map[string]interface{}{
					"type":        "string",
					"description": "Target format (PNG, JPEG, GIF, TIFF, BMP)",
				},
			}, true, "to"),
		},

		// OCR
		{
			Name:        "image_ocr",
			Description: "Extract text from an image, or from a region of it, using Tesseract.",
			InputSchema: objectSchema(map[string]interface{}{
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Tesseract language code",
					"default":     "eng",
				},
				"x1": integerProperty("Optional region left edge"),
				"y1": integerProperty("Optional region top edge"),
				"x2": integerProperty("Optional region right edge"),
				"y2": integerProperty("Optional region bottom edge"),
			}, false),
		},
		{
			Name:        "image_detect_text",
			Description: "Locate blocks of text in an image without reading them, using Tesseract.",
			InputSchema: objectSchema(map[string]interface{}{
				"min_confidence": numberProperty("Drop blocks below this confidence (0.0 to 1.0)", defaultMinConfidence),
			}, false),
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
