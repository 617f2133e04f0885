package store

import (
	"fmt"

	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/kaelvex/frontier/pkg/failure"
)

type StoreErrorCause string

const (
	ErrCauseOpenFailure  StoreErrorCause = "open failure"
	ErrCauseFlushFailure StoreErrorCause = "flush failure"
	ErrCauseReadFailure  StoreErrorCause = "read failure"
)

// StoreError is always fatal: a flush failure propagates to the caller
// and aborts startup or shutdown rather than being retried in place.
type StoreError struct {
	Message string
	Cause   StoreErrorCause
	Path    string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %s", e.Cause, e.Message)
}

func (e *StoreError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// mapStoreErrorToMetadataCause is observational only; see package metadata.
func mapStoreErrorToMetadataCause(err *StoreError) metadata.ErrorCause {
	return metadata.CauseStorageFailure
}
