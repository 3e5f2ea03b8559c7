package stitcherr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedInput    = errors.New("malformed input")
	ErrDecodeFailure     = errors.New("decode failure")
	ErrEncodeFailure     = errors.New("encode failure")
	ErrDimensionMismatch = errors.New("tile dimension mismatch")
	ErrCanvasTooLarge    = errors.New("canvas too large")
	ErrConfiguration     = errors.New("configuration error")
	ErrInterrupted       = errors.New("worker interrupted")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrInterrupted
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short machine label for err, suitable for log fields and the
// run history.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, ErrDecodeFailure):
		return "decode_failed"
	case errors.Is(err, ErrEncodeFailure):
		return "encode_failed"
	case errors.Is(err, ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, ErrCanvasTooLarge):
		return "canvas_too_large"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrInterrupted):
		return "interrupted"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "stitch failure"
	}
	return strings.Join(parts, ": ")
}
