// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no slidecast-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// The video stage uses this to measure narration audio durations before
// assembling the slideshow timeline.
package ffprobe
