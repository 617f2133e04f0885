package worker

import (
	"fmt"

	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/kaelvex/frontier/pkg/failure"
)

// PanicError wraps a recovered worker-goroutine panic. Worker failures are
// contained: logged, the URL marked complete, and the loop continued
// rather than crashing the pool.
type PanicError struct {
	Message string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker: recovered panic: %s", e.Message)
}

func (e *PanicError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

func mapPanicErrorToMetadataCause(*PanicError) metadata.ErrorCause {
	return metadata.CauseUnknown
}
