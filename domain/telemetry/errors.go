package telemetry

import "errors"

var (
	// ErrUnknownExporter indicates an exporter name that is not supported.
	ErrUnknownExporter = errors.New("telemetry: unknown exporter")

	// ErrShutdownFailed indicates flushing or closing an exporter failed.
	ErrShutdownFailed = errors.New("telemetry: shutdown failed")
)
