// Package pipeline carries the error taxonomy shared by the loaders, the
// normalizer, and the batch orchestrator. Errors are tagged with sentinel
// markers so callers can classify failures without string matching.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks invalid or unusable runtime configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrReferenceData marks missing or malformed taxonomy files. Fatal for
	// the whole run: classification without reference data is meaningless.
	ErrReferenceData = errors.New("reference data error")
	// ErrInputData marks a malformed product input file. Scoped to that one
	// file; the batch continues.
	ErrInputData = errors.New("input data error")
	// ErrState marks unreadable or inconsistent checkpoint state.
	ErrState = errors.New("state error")
	// ErrTransient marks failures worth retrying on a subsequent run.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether an error should abort the whole run rather than be
// recorded against a single input file.
func Fatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrReferenceData) || errors.Is(err, ErrState)
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
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
