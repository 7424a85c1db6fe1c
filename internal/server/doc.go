// Package server implements the MCP (Model Context Protocol) server for image-wand.
//
// This package provides a JSON-RPC 2.0 server that exposes guarded image
// operations through the MCP protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Information:
//   - image_info: Size, format and MIME type
//   - image_row: One row of pixels as hex colours
//   - image_sample_color: Colour at a pixel
//
// Geometry:
//   - image_resize, image_rotate, image_crop, image_flip
//
// Effects:
//   - image_sepia, image_blur, image_draw
//
// Format:
//   - image_convert
//
// OCR:
//   - image_ocr: Extract text from the image or a region
//   - image_detect_text: Bounding boxes of text blocks above a confidence
//
// Tools that produce an image write it to the optional "output" path, or
// return it base64 encoded. The format is taken from "format", then from
// the output extension, then from the source image.
//
// # Resources
//
// Every tool call opens its image from "path" and closes it before the
// response is written, whether the call succeeds or fails. Nothing is
// cached between calls.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses with:
//   - code: -32602 for invalid or mistyped arguments, -32000 for other failures
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(wand.WithLibrary(engine))
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
