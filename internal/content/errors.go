package content

import (
	"fmt"

	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/kaelvex/frontier/pkg/failure"
)

type ContentErrorCause string

const (
	ErrCauseOversize       ContentErrorCause = "oversize"
	ErrCauseNotHTML        ContentErrorCause = "not html"
	ErrCauseLowInformation ContentErrorCause = "low information"
	ErrCauseParseFailure   ContentErrorCause = "parse failure"
)

// ContentError is never propagated out of Pipeline.Process — a rejection
// just produces an empty link list; it exists so rejections
// are recorded through the same metadata.ErrorCause channel every other
// package uses.
type ContentError struct {
	Message string
	Cause   ContentErrorCause
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("content: %s: %s", e.Cause, e.Message)
}

func (e *ContentError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// mapContentErrorToMetadataCause is observational only; see package metadata.
func mapContentErrorToMetadataCause(err *ContentError) metadata.ErrorCause {
	return metadata.CauseContentInvalid
}
