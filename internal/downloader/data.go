package downloader

import "net/http"

// RawResponse is the transparent body of a successful cache-proxy fetch.
type RawResponse struct {
	// URL is the URL the cache proxy actually fetched (may differ from the
	// request URL after the proxy itself follows a redirect).
	URL     string
	Content []byte
	// Headers is case-insensitive, matching net/http.Header's canonical
	// key form; callers should use Headers.Get rather than indexing.
	Headers http.Header
}

// Response is the outcome of one fetch attempt through the cache proxy.
// Download never sets Error: when the proxy could not be reached at all it
// returns a nil *Response and an error instead (distinct from a non-2xx
// status, which is a populated Response the Content Pipeline rejects).
type Response struct {
	URL         string
	Status      int
	Error       string
	RawResponse *RawResponse
}
