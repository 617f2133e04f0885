package frontier

import (
	"fmt"

	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/kaelvex/frontier/pkg/failure"
)

type FrontierErrorCause string

const (
	// ErrCauseUnknownCompletion marks the invariant violation of
	// MarkURLComplete being called for a hash the store has never seen.
	ErrCauseUnknownCompletion FrontierErrorCause = "mark_url_complete on unknown hash"
	ErrCauseStoreReplay       FrontierErrorCause = "store replay failure"
)

// FrontierError never aborts a caller: an invariant violation is logged and
// swallowed, not propagated. It exists mainly to carry a canonical
// metadata.ErrorCause through RecordError.
type FrontierError struct {
	Message string
	Cause   FrontierErrorCause
}

func (e *FrontierError) Error() string {
	return fmt.Sprintf("frontier: %s: %s", e.Cause, e.Message)
}

func (e *FrontierError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// mapFrontierErrorToMetadataCause is observational only; see package metadata.
func mapFrontierErrorToMetadataCause(err *FrontierError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseUnknownCompletion:
		return metadata.CauseInvariantViolation
	case ErrCauseStoreReplay:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
