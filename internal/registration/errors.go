package registration

import (
	"fmt"

	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/kaelvex/frontier/pkg/failure"
)

type RegistrationErrorCause string

const (
	ErrCauseNetworkFailure RegistrationErrorCause = "network failure"
	ErrCauseInvalidReply   RegistrationErrorCause = "malformed reply"
	ErrCauseRejected       RegistrationErrorCause = "rejected by registration service"
)

// RegistrationError is always fatal: a rejected or unreachable
// registration service aborts startup before any worker starts.
type RegistrationError struct {
	Message string
	Cause   RegistrationErrorCause
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registration: %s: %s", e.Cause, e.Message)
}

func (e *RegistrationError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// IsRetryable reports whether a retry of the same request might succeed.
// A network failure reaching the registration service may be transient; a
// malformed reply or an explicit rejection will not change on retry.
func (e *RegistrationError) IsRetryable() bool {
	return e.Cause == ErrCauseNetworkFailure
}

// mapRegistrationErrorToMetadataCause is observational only; see package metadata.
func mapRegistrationErrorToMetadataCause(err *RegistrationError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNetworkFailure:
		return metadata.CauseNetworkFailure
	case ErrCauseRejected:
		return metadata.CausePolicyDisallow
	default:
		return metadata.CauseUnknown
	}
}
