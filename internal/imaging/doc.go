// Package imaging holds the pixel-level side of document detection: raw
// frame buffers, per-tick scratch memory, the edge-map preprocessing
// pipeline, document snapshots and the debug overlay renderer.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward.
//
// # Memory
//
// Intermediate buffers are drawn from an Arena obtained from a BufferPool.
// An arena lives for exactly one detection tick; everything it handed out
// is returned to the pool on Release. Frames themselves are owned by the
// caller and are only read.
//
// # Thread Safety
//
// BufferPool and FrameCache are safe for concurrent use. Arena is not.
package imaging
