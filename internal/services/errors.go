package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransport         = errors.New("transport error")
	ErrDecode            = errors.New("decode error")
	ErrParse             = errors.New("parse error")
	ErrDestinationExists = errors.New("destination exists")
	ErrIO                = errors.New("io error")
	ErrNoData            = errors.New("no data")
	ErrConfiguration     = errors.New("configuration error")
)

// Exit codes reported by the merge command surface.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitDestination = 2
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later exit-code classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps a run error to the process exit status: 0 on success, 2 when
// the destination exists and overwrite was not requested, 1 for every other
// failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrDestinationExists):
		return ExitDestination
	default:
		return ExitFailure
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
