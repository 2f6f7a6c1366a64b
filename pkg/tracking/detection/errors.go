package detection

import "errors"

var (
	// ErrEmptyImage is returned when a frame decodes to an empty matrix.
	ErrEmptyImage = errors.New("detection: empty image")

	// ErrClosed is returned when a detector is used after Close.
	ErrClosed = errors.New("detection: detector closed")

	// ErrModelNotFound is returned when an ONNX model file is missing.
	ErrModelNotFound = errors.New("detection: model file not found")
)
