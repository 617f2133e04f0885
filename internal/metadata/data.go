package metadata

import (
	"time"
)

/*
ErrorCause is a closed, canonical classification used exclusively for
observability (logging, metrics, reporting).

Rules:
  - ErrorCause is for observability only.
  - It must never be used to derive retry, continuation, or abort decisions.
  - Any use of metadata.ErrorCause outside logging, metrics, or reporting is a design violation.
  - ErrorCause MUST NOT influence control flow.
  - ErrorCause values MUST have stable, package-agnostic semantics.
  - Pipeline packages MAY map their local errors to ErrorCause,
    but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

const (
	// CauseUnknown: failure does not map cleanly to any known category.
	CauseUnknown ErrorCause = iota
	// CauseNetworkFailure: TCP timeouts, DNS failures, connection resets, cache-proxy errors.
	CauseNetworkFailure
	// CausePolicyDisallow: admission rejection, host-suffix mismatch, extension/trap filtering.
	CausePolicyDisallow
	// CauseContentInvalid: non-HTML, oversize, low-information, or unparseable content.
	CauseContentInvalid
	// CauseStorageFailure: discovery-store write/flush failure, disk full, permissions.
	CauseStorageFailure
	// CauseInvariantViolation: mark_url_complete on an unknown hash, negative InflightCount, etc.
	CauseInvariantViolation
	// CauseRetryFailure: a retry budget was exhausted before success.
	CauseRetryFailure
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	case CauseRetryFailure:
		return "retry_failure"
	default:
		return "unknown"
	}
}

type ArtifactKind int

const (
	ArtifactUnknown ArtifactKind = iota
	ArtifactDiscoveryStore
	ArtifactReport
)

type ErrorRecord struct {
	PackageName string
	Action      string
	Cause       ErrorCause
	ErrorString string
	ObservedAt  time.Time
	Attrs       []Attribute
}

type ArtifactRecord struct {
	Kind  ArtifactKind
	Path  string
	Attrs []Attribute
}

// CrawlStats is a terminal, derived summary of a completed crawl.
// It contains only aggregate counts and durations, is computed once
// after quiescent termination, and must never influence scheduling,
// retries, or crawl termination.
type CrawlStats struct {
	TotalDiscovered int
	TotalCompleted  int
	TotalErrors     int
	Duration        time.Duration
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{Key: key, Value: val}
}

type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrPath       AttributeKey = "path"
	AttrDepth      AttributeKey = "depth"
	AttrField      AttributeKey = "field"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrWritePath  AttributeKey = "write_path"
	AttrMessage    AttributeKey = "message"
)
