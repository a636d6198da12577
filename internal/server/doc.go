// Package server implements the MCP (Model Context Protocol) server that
// exposes the document auto-capture pipeline as tools.
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
//   - guidance_frame: Guidance quadrilateral for a frame size
//   - document_detect: Document outline (and optionally glare) in a frame image
//   - alignment_validate: Per-feature validity and feedback for a frame
//   - autocapture_replay: Run a capture session over a sequence of frames on
//     a simulated clock
//   - debug_overlay: PNG of the frame with guidance, outline and glare drawn on
//
// Frames are decoded once and cached by path for the lifetime of the server.
// Tool defaults come from the config package and can be overridden per call.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Logs never go to stdout.
package server
