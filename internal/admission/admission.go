// Package admission implements the crawl admission filter: a pure,
// deterministic predicate deciding whether a canonical URL may be
// enqueued into the frontier.
package admission

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/kaelvex/frontier/internal/config"
)

var calendarTrapPattern = regexp.MustCompile(`(?i)/calendar/\d{4}/\d{1,2}/\d{1,2}`)

// Filter evaluates canonical URLs against the configured host-suffix
// allow-list, extension blocklist, calendar trap, session query keys, and
// max path-segment length.
type Filter struct {
	allowedHostSuffixes []string
	extensionPattern    *regexp.Regexp
	sessionQueryKeys    map[string]struct{}
	maxPathSegmentLen   int
}

// NewFilter builds a Filter from the given config.
func NewFilter(cfg config.Config) *Filter {
	keys := make(map[string]struct{})
	for _, k := range cfg.SessionQueryKeys() {
		keys[strings.ToLower(k)] = struct{}{}
	}

	return &Filter{
		allowedHostSuffixes: cfg.AllowedHostSuffixes(),
		extensionPattern:    buildExtensionPattern(cfg.BlockedExtensions()),
		sessionQueryKeys:    keys,
		maxPathSegmentLen:   cfg.MaxPathSegmentLen(),
	}
}

func buildExtensionPattern(extensions []string) *regexp.Regexp {
	if len(extensions) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\.(` + strings.Join(extensions, "|") + `)$`)
}

// IsValid reports whether the canonical URL string is admissible: it
// passes the host-suffix allow-list, extension blocklist, calendar-trap
// pattern, session-key query filter, and max path-segment length check.
// Pure and deterministic.
func (f *Filter) IsValid(canonical string) bool {
	u, err := url.Parse(canonical)
	if err != nil {
		return false
	}
	return f.IsValidURL(*u)
}

// IsValidURL applies the same checks as IsValid to an already parsed URL.
func (f *Filter) IsValidURL(u url.URL) bool {
	if !f.hostAllowed(u.Hostname()) {
		return false
	}
	if f.extensionPattern != nil && f.extensionPattern.MatchString(strings.ToLower(u.Path)) {
		return false
	}
	if calendarTrapPattern.MatchString(strings.ToLower(u.Path)) {
		return false
	}
	if f.hasSessionKey(u.RawQuery) {
		return false
	}
	if f.hasOverlongSegment(u.Path) {
		return false
	}
	return true
}

func (f *Filter) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	for _, suffix := range f.allowedHostSuffixes {
		if strings.HasSuffix(host, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

func (f *Filter) hasSessionKey(rawQuery string) bool {
	if rawQuery == "" || len(f.sessionQueryKeys) == 0 {
		return false
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return false
	}
	for key := range values {
		if _, ok := f.sessionQueryKeys[strings.ToLower(key)]; ok {
			return true
		}
	}
	return false
}

func (f *Filter) hasOverlongSegment(path string) bool {
	if f.maxPathSegmentLen <= 0 {
		return false
	}
	for _, seg := range strings.Split(path, "/") {
		if len(seg) > f.maxPathSegmentLen {
			return true
		}
	}
	return false
}
