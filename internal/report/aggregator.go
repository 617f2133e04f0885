// Package report aggregates four statistics about crawled pages: a running
// unique-page count, the single longest page, a stopword-filtered top-50
// word frequency table, and a per-subdomain page-count histogram. None of
// this feeds back into Frontier control flow — it is a terminal
// destination for (url, tokens) pairs the Content Pipeline publishes after
// a page survives admission, all guarded by one mutex so concurrent
// workers can observe pages safely.
package report

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kaelvex/frontier/pkg/fileutil"
)

// Page is one (url, tokens) observation published by the Content
// Pipeline for a page that passed admission and the low-information checks.
type Page struct {
	URL    string
	Tokens []string
}

// Aggregator accumulates report state under a single mutex and writes the
// four report files on Close.
type Aggregator struct {
	mu sync.Mutex

	uniquePages map[string]struct{}
	subdomains  map[string]int
	wordCounts  map[string]int

	longestURL    string
	longestTokens int

	dir string
}

// NewAggregator builds an Aggregator that writes its reports under dir.
func NewAggregator(dir string) *Aggregator {
	return &Aggregator{
		uniquePages: make(map[string]struct{}),
		subdomains:  make(map[string]int),
		wordCounts:  make(map[string]int),
		dir:         dir,
	}
}

// Observe records one admitted page. Safe for concurrent use by every
// worker goroutine's Content Pipeline call.
func (a *Aggregator) Observe(p Page) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.uniquePages[p.URL] = struct{}{}

	if host := hostOf(p.URL); host != "" {
		a.subdomains[host]++
	}

	if len(p.Tokens) > a.longestTokens {
		a.longestTokens = len(p.Tokens)
		a.longestURL = p.URL
	}

	for _, tok := range p.Tokens {
		if stopwords[tok] {
			continue
		}
		a.wordCounts[tok]++
	}
}

// Close writes the four report files to the aggregator's directory.
func (a *Aggregator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cerr := fileutil.EnsureDir(a.dir); cerr != nil {
		return cerr
	}

	if err := a.writeUniquePages(); err != nil {
		return err
	}
	if err := a.writeLongestPage(); err != nil {
		return err
	}
	if err := a.writeTopWords(); err != nil {
		return err
	}
	return a.writeSubdomains()
}

func (a *Aggregator) writeUniquePages() error {
	return os.WriteFile(a.path("unique_pages.txt"),
		[]byte(fmt.Sprintf("%d\n", len(a.uniquePages))), 0o644)
}

func (a *Aggregator) writeLongestPage() error {
	content := fmt.Sprintf("%s\n%d words\n", a.longestURL, a.longestTokens)
	return os.WriteFile(a.path("longest_page.txt"), []byte(content), 0o644)
}

func (a *Aggregator) writeTopWords() error {
	type wc struct {
		word  string
		count int
	}
	entries := make([]wc, 0, len(a.wordCounts))
	for w, c := range a.wordCounts {
		entries = append(entries, wc{w, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].word < entries[j].word
	})
	if len(entries) > 50 {
		entries = entries[:50]
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %d\n", e.word, e.count)
	}
	return os.WriteFile(a.path("common_words.txt"), []byte(b.String()), 0o644)
}

func (a *Aggregator) writeSubdomains() error {
	subdomains := make([]string, 0, len(a.subdomains))
	for h := range a.subdomains {
		subdomains = append(subdomains, h)
	}
	sort.Strings(subdomains)

	var b strings.Builder
	for _, h := range subdomains {
		fmt.Fprintf(&b, "%s, %d\n", h, a.subdomains[h])
	}
	return os.WriteFile(a.path("subdomains.txt"), []byte(b.String()), 0o644)
}

func (a *Aggregator) path(name string) string {
	return filepath.Join(a.dir, name)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
