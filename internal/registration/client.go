// Package registration is the thin JSON-over-HTTP client for the remote
// crawler-registration service: before crawling starts, the crawler
// identifies itself by user agent and is assigned a cache-proxy endpoint
// to fetch through.
package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/kaelvex/frontier/pkg/failure"
	"github.com/kaelvex/frontier/pkg/retry"
	"github.com/kaelvex/frontier/pkg/timeutil"
)

// registrationRetryParam bounds the retry of a single Register call: three
// attempts, exponential backoff starting at 200ms. Only a network failure
// reaching the service is retryable; a malformed reply or an explicit
// rejection is not (see RegistrationError.IsRetryable).
var registrationRetryParam = retry.NewRetryParam(
	200*time.Millisecond,
	100*time.Millisecond,
	1,
	3,
	timeutil.NewBackoffParam(200*time.Millisecond, 2.0, 2*time.Second),
)

// Client registers this crawler instance with a remote registration
// service and receives back the cache-proxy endpoint to use.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	metadataSink metadata.MetadataSink
}

// New builds a Client targeting baseURL (the registration service's own
// host:port, distinct from the cache-proxy endpoint it hands back).
func New(baseURL string, sink metadata.MetadataSink) *Client {
	if sink == nil {
		sink = metadata.NoopSink{}
	}
	return &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		baseURL:      baseURL,
		metadataSink: sink,
	}
}

// Register identifies userAgent to the registration service and returns
// the assigned cache-proxy Endpoint. A rejected ("invalid") reply, a
// malformed reply, or an unreachable service all abort startup; a network
// failure reaching the service is retried a bounded number of times
// first, since the service may simply not be up yet.
func (c *Client) Register(ctx context.Context, userAgent string) (Endpoint, error) {
	result := retry.Retry(registrationRetryParam, func() (Endpoint, failure.ClassifiedError) {
		return c.attemptRegister(ctx, userAgent)
	})
	if result.IsFailure() {
		return Endpoint{}, result.Err()
	}
	return result.Value(), nil
}

func (c *Client) attemptRegister(ctx context.Context, userAgent string) (Endpoint, failure.ClassifiedError) {
	body, err := json.Marshal(registerRequest{UserAgent: userAgent})
	if err != nil {
		re := &RegistrationError{Message: err.Error(), Cause: ErrCauseInvalidReply}
		c.recordError(re)
		return Endpoint{}, re
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		re := &RegistrationError{Message: err.Error(), Cause: ErrCauseNetworkFailure}
		c.recordError(re)
		return Endpoint{}, re
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		re := &RegistrationError{Message: err.Error(), Cause: ErrCauseNetworkFailure}
		c.recordError(re)
		return Endpoint{}, re
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		re := &RegistrationError{Message: err.Error(), Cause: ErrCauseInvalidReply}
		c.recordError(re)
		return Endpoint{}, re
	}

	var reply registerResponse
	if err := json.Unmarshal(raw, &reply); err != nil {
		re := &RegistrationError{Message: err.Error(), Cause: ErrCauseInvalidReply}
		c.recordError(re)
		return Endpoint{}, re
	}

	if reply.Status != "success" {
		re := &RegistrationError{
			Message: fmt.Sprintf("registration status %q", reply.Status),
			Cause:   ErrCauseRejected,
		}
		c.recordError(re)
		return Endpoint{}, re
	}

	return Endpoint{Host: reply.Host, Port: reply.Port}, nil
}

func (c *Client) recordError(err *RegistrationError) {
	c.metadataSink.RecordError(time.Now(), "registration", "Register",
		mapRegistrationErrorToMetadataCause(err), err.Error(), nil)
}
