// Package downloader is the thin HTTP adapter between the worker pool and
// the registered cache-proxy endpoint: it forwards every fetch, attaches
// the configured user agent, enforces the request timeout, and applies a
// per-host HostPoliteness delay independent of the Frontier's own.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/kaelvex/frontier/pkg/timeutil"
)

const maxResponseBytes = 25_000_000

// Downloader fetches canonical URLs through a cache-proxy endpoint.
type Downloader struct {
	client       *http.Client
	host         string
	port         int
	userAgent    string
	timeout      time.Duration
	politeness   *HostPoliteness
	metadataSink metadata.MetadataSink
}

// New builds a Downloader targeting the cache-proxy endpoint (host, port)
// handed back by the registration service, with the given per-host
// politeness delay and request timeout (defaults to 10s, overridable in
// tests).
func New(host string, port int, userAgent string, timeDelay, timeout time.Duration, sink metadata.MetadataSink) *Downloader {
	if sink == nil {
		sink = metadata.NoopSink{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Downloader{
		client:       &http.Client{},
		host:         host,
		port:         port,
		userAgent:    userAgent,
		timeout:      timeout,
		politeness:   NewHostPoliteness(timeDelay),
		metadataSink: sink,
	}
}

// Download fetches canonicalURL through the cache proxy. It returns a
// populated *Response for any reply the proxy produced, including
// cache-server error statuses the Content Pipeline itself rejects; it
// returns (nil, error) when canonicalURL does not parse, the proxy request
// cannot be built, the proxy could not be reached or the request timed
// out, or the reply body could not be read, which the worker loop treats
// as a permanent give-up.
func (d *Downloader) Download(ctx context.Context, canonicalURL string) (*Response, error) {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return nil, &DownloadError{Message: err.Error(), Cause: ErrCauseNetworkFailure}
	}
	d.politeness.Wait(u.Hostname())

	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	proxyURL := fmt.Sprintf("http://%s:%d/", d.host, d.port)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, proxyURL, nil)
	if err != nil {
		return nil, &DownloadError{Message: err.Error(), Cause: ErrCauseNetworkFailure}
	}
	q := req.URL.Query()
	q.Set("url", canonicalURL)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		de := &DownloadError{Message: err.Error(), Cause: classifyNetErr(err)}
		d.recordError(canonicalURL, de)
		return nil, de
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		de := &DownloadError{Message: err.Error(), Cause: ErrCauseReadBody}
		d.recordError(canonicalURL, de)
		return nil, de
	}

	return &Response{
		URL:    canonicalURL,
		Status: resp.StatusCode,
		RawResponse: &RawResponse{
			URL:     resp.Request.URL.String(),
			Content: body,
			Headers: resp.Header,
		},
	}, nil
}

// SetSleeperForTest overrides the HostPoliteness sleeper so tests can
// assert the delay was requested without waiting on the real wall clock.
func (d *Downloader) SetSleeperForTest(s timeutil.Sleeper) {
	d.politeness.SetSleeperForTest(s)
}

func (d *Downloader) recordError(targetURL string, err *DownloadError) {
	d.metadataSink.RecordError(time.Now(), "downloader", "Download",
		mapDownloadErrorToMetadataCause(err), err.Error(),
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrURL, targetURL)})
}

func classifyNetErr(err error) DownloadErrorCause {
	if err == context.DeadlineExceeded {
		return ErrCauseTimeout
	}
	if ue, ok := err.(*url.Error); ok && ue.Timeout() {
		return ErrCauseTimeout
	}
	return ErrCauseNetworkFailure
}
