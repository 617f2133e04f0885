// Package content implements the Content Pipeline: it decodes a
// downloader.Response, rejects it per an ordered rule list, and on
// acceptance extracts the outbound links that feed back into the
// Frontier. Nothing here ever raises an error the worker loop must
// handle — every rejection degenerates to an empty link list.
package content

import (
	"bytes"
	"mime"
	"net/url"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kaelvex/frontier/internal/downloader"
	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/kaelvex/frontier/pkg/urlutil"
)

const maxContentLength = 5_000_000

var allowedContentTypes = map[string]bool{
	"text/html":             true,
	"application/xhtml+xml": true,
}

// Result is what a single fetch contributes to the crawl: links to
// re-enqueue, and — only for an admitted page — the token stream the
// report aggregator and the optional SimHash stage consume.
type Result struct {
	Links    []string
	Tokens   []string
	Admitted bool
}

// Pipeline is the Content Pipeline. Stateless beyond its metadata sink;
// safe for concurrent use by every worker.
type Pipeline struct {
	metadataSink metadata.MetadataSink
}

func New(sink metadata.MetadataSink) *Pipeline {
	if sink == nil {
		sink = metadata.NoopSink{}
	}
	return &Pipeline{metadataSink: sink}
}

// Process applies the content-admission rejection rules, in order, to resp.
func (p *Pipeline) Process(sourceURL string, resp *downloader.Response) Result {
	if resp == nil {
		return Result{}
	}
	if resp.Status >= 600 && resp.Status <= 608 {
		return Result{}
	}
	if resp.Status == 301 || resp.Status == 302 {
		return p.processRedirect(sourceURL, resp)
	}
	if resp.Status != 200 {
		return Result{}
	}
	if resp.RawResponse == nil || len(resp.RawResponse.Content) == 0 {
		return Result{}
	}
	if p.isOversize(sourceURL, resp.RawResponse.Headers.Get("Content-Length")) {
		return Result{}
	}
	if !p.isAllowedContentType(resp.RawResponse.Headers.Get("Content-Type")) {
		return Result{}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.RawResponse.Content))
	if err != nil {
		p.recordReject(sourceURL, &ContentError{Message: err.Error(), Cause: ErrCauseParseFailure})
		return Result{}
	}

	doc.Find("script, style").Remove()
	text := doc.Text()
	tokens := tokenize(text)
	sents := sentences(text)

	if isLowInformation(tokens, sents) {
		p.recordReject(sourceURL, &ContentError{Message: "page failed low-information checks", Cause: ErrCauseLowInformation})
		return Result{}
	}

	base := resp.RawResponse.URL
	if base == "" {
		base = sourceURL
	}
	links := extractLinks(doc, base)

	return Result{Links: links, Tokens: tokens, Admitted: true}
}

// processRedirect implements rule 3: a single-link result built from the
// Location header, resolved and canonicalized like any other outbound
// link; a redirect with no Location is a download failure.
func (p *Pipeline) processRedirect(sourceURL string, resp *downloader.Response) Result {
	if resp.RawResponse == nil {
		return Result{}
	}
	loc := resp.RawResponse.Headers.Get("Location")
	if loc == "" {
		return Result{}
	}
	base := resp.RawResponse.URL
	if base == "" {
		base = sourceURL
	}
	resolved, ok := resolveLink(base, loc)
	if !ok {
		return Result{}
	}
	canonical, err := urlutil.Canonicalize(resolved)
	if err != nil {
		return Result{}
	}
	return Result{Links: []string{canonical}}
}

func (p *Pipeline) isOversize(sourceURL, contentLength string) bool {
	if contentLength == "" {
		return false
	}
	n, err := strconv.Atoi(contentLength)
	if err != nil {
		return false
	}
	if n > maxContentLength {
		p.recordReject(sourceURL, &ContentError{Message: "content-length exceeds limit", Cause: ErrCauseOversize})
		return true
	}
	return false
}

func (p *Pipeline) isAllowedContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	return allowedContentTypes[mediaType]
}

func (p *Pipeline) recordReject(sourceURL string, err *ContentError) {
	p.metadataSink.RecordError(time.Now(), "content", "Process",
		mapContentErrorToMetadataCause(err), err.Error(),
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrURL, sourceURL)})
}

// extractLinks resolves every <a href> against base, strips the fragment,
// canonicalizes, and deduplicates.
func extractLinks(doc *goquery.Document, base string) []string {
	seen := make(map[string]struct{})
	var out []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}
		resolved, ok := resolveLink(base, href)
		if !ok {
			return
		}
		canonical, err := urlutil.Canonicalize(resolved)
		if err != nil {
			return
		}
		if _, dup := seen[canonical]; dup {
			return
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	})
	return out
}

// resolveLink resolves href relative to base and strips its fragment.
func resolveLink(base, href string) (string, bool) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	refURL, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := baseURL.ResolveReference(refURL)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String(), true
}
