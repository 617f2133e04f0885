package urlutil

import (
	"errors"
	"net/url"
	"sort"
	"strings"
)

// ErrRejected is returned by Canonicalize when the raw string is not an
// admissible URL: parse failure, or a scheme other than http/https.
var ErrRejected = errors.New("urlutil: rejected")

// Canonicalize brings a raw URL string to canonical form, or rejects it.
//
// Steps, in order: parse; reject if scheme is not http/https; lowercase
// host; strip the default port for the scheme; drop the fragment; set an
// empty path to "/"; strip exactly one trailing "/" from non-root paths;
// if a query is present, split it into ordered (key, value) pairs
// (blank values preserved), sort lexicographically by (key, value), and
// re-encode; reassemble.
//
// Canonicalize is pure and idempotent: Canonicalize(Canonicalize(x)) == Canonicalize(x).
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrRejected
	}
	return CanonicalizeURL(*u)
}

// CanonicalizeURL applies the same rules as Canonicalize to an already
// parsed url.URL and returns its canonical string form.
func CanonicalizeURL(u url.URL) (string, error) {
	scheme := lowerASCII(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", ErrRejected
	}
	u.Scheme = scheme
	u.Host = lowerASCII(u.Host)

	if host, port := u.Hostname(), u.Port(); port != "" {
		if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
			u.Host = host
		}
	}

	u.Fragment = ""
	u.RawFragment = ""

	if u.Path == "" {
		u.Path = "/"
	} else if len(u.Path) > 1 {
		u.Path = stripTrailingSlash(u.Path)
	}

	if u.RawQuery != "" || u.ForceQuery {
		u.RawQuery = sortedQuery(u.RawQuery)
	}
	u.ForceQuery = false

	return u.String(), nil
}

// sortedQuery re-encodes a raw query string with its (key, value) pairs
// sorted lexicographically by key then value, preserving blank values
// (unlike url.Values, which drops ordering and collapses duplicates
// unpredictably when re-encoded via Values.Encode).
func sortedQuery(rawQuery string) string {
	type kv struct{ k, v string }
	var pairs []kv
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		k, v, hasEq := strings.Cut(part, "=")
		dk, err1 := url.QueryUnescape(k)
		if err1 != nil {
			dk = k
		}
		var dv string
		if hasEq {
			dv, err1 = url.QueryUnescape(v)
			if err1 != nil {
				dv = v
			}
		}
		pairs = append(pairs, kv{dk, dv})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})
	b := strings.Builder{}
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.v))
	}
	return b.String()
}

// lowerASCII converts ASCII characters to lowercase without allocating
// unless the string actually contains uppercase letters.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// stripTrailingSlash removes exactly one trailing slash from a non-root path.
func stripTrailingSlash(path string) string {
	if len(path) > 1 && path[len(path)-1] == '/' {
		return path[:len(path)-1]
	}
	return path
}
