package kgnorm

import "errors"

var (
	// ErrDocumentNotFound is returned when a document ID does not exist.
	ErrDocumentNotFound = errors.New("kgnorm: document not found")

	// ErrUnsupportedFormat is returned for unrecognized input formats.
	ErrUnsupportedFormat = errors.New("kgnorm: unsupported input format")

	// ErrParsingFailed is returned when an input adapter rejects its input.
	ErrParsingFailed = errors.New("kgnorm: parsing failed")

	// ErrInvalidGraph is returned for a nil graph or a missing document ID.
	ErrInvalidGraph = errors.New("kgnorm: invalid graph")

	// ErrStoreClosed is returned when operating on a closed engine.
	ErrStoreClosed = errors.New("kgnorm: store is closed")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("kgnorm: invalid configuration")
)
