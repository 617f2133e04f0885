package downloader

import (
	"fmt"

	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/kaelvex/frontier/pkg/failure"
)

type DownloadErrorCause string

const (
	ErrCauseTimeout        DownloadErrorCause = "timeout"
	ErrCauseNetworkFailure DownloadErrorCause = "network failure"
	ErrCauseReadBody       DownloadErrorCause = "failed to read response body"
)

// DownloadError is always treated as a permanent give-up by the worker
// loop: there are no retries inside the core.
type DownloadError struct {
	Message string
	Cause   DownloadErrorCause
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloader: %s: %s", e.Cause, e.Message)
}

func (e *DownloadError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

func (e *DownloadError) IsRetryable() bool {
	return false
}

// mapDownloadErrorToMetadataCause is observational only; see package metadata.
func mapDownloadErrorToMetadataCause(err *DownloadError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout, ErrCauseNetworkFailure:
		return metadata.CauseNetworkFailure
	default:
		return metadata.CauseUnknown
	}
}
