package worker_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kaelvex/frontier/internal/admission"
	"github.com/kaelvex/frontier/internal/config"
	"github.com/kaelvex/frontier/internal/content"
	"github.com/kaelvex/frontier/internal/downloader"
	"github.com/kaelvex/frontier/internal/frontier"
	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/kaelvex/frontier/internal/report"
	"github.com/kaelvex/frontier/internal/store"
	"github.com/kaelvex/frontier/internal/worker"
)

// longPage renders a same-host page with enough distinct tokens to clear
// the content pipeline's low-information checks, linking to the given
// absolute targets.
func longPage(links ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><p>")
	for i := 0; i < 120; i++ {
		b.WriteString("word")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(" distinct content here. ")
	}
	b.WriteString("</p>")
	for _, l := range links {
		b.WriteString(`<a href="`)
		b.WriteString(l)
		b.WriteString(`">link</a>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestPool_CrawlsSeedAndDiscoveredLinksToQuiescence(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "text/html")
		if target == "http://www.ics.uci.edu/start" {
			w.Write([]byte(longPage("http://www.ics.uci.edu/child")))
			return
		}
		w.Write([]byte(longPage()))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	host := u.Hostname()
	port, _ := strconv.Atoi(u.Port())

	dbPath := filepath.Join(t.TempDir(), "discovery.db")
	st, err := store.Open(dbPath, 200, time.Hour, metadata.NoopSink{})
	if err != nil {
		t.Fatalf("unexpected error opening store: %v", err)
	}
	defer st.Close()

	cfg, err := config.WithDefault([]url.URL{{Scheme: "http", Host: "www.ics.uci.edu", Path: "/start"}}).
		WithAllowedHostSuffixes([]string{".ics.uci.edu"}).
		Build()
	if err != nil {
		t.Fatalf("unexpected error building config: %v", err)
	}
	filter := admission.NewFilter(cfg)
	fr := frontier.New(st, filter, 0, metadata.NoopSink{})
	fr.Seed(cfg.SeedURLs())

	dl := downloader.New(host, port, "frontier-test/1.0", 0, 2*time.Second, metadata.NoopSink{})
	pipeline := content.New(metadata.NoopSink{})
	reportDir := t.TempDir()
	reportAgg := report.NewAggregator(reportDir)

	pool := worker.New(4, fr, dl, pipeline, reportAgg, nil, false, metadata.NoopSink{})

	done := make(chan struct{})
	go func() {
		pool.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for the worker pool to reach quiescent termination")
	}

	if err := reportAgg.Close(); err != nil {
		t.Fatalf("unexpected error closing report aggregator: %v", err)
	}

	unique, err := os.ReadFile(filepath.Join(reportDir, "unique_pages.txt"))
	if err != nil {
		t.Fatalf("unexpected error reading unique_pages.txt: %v", err)
	}
	if strings.TrimSpace(string(unique)) != "2" {
		t.Errorf("expected both the seed and its discovered child to be admitted, got %q", string(unique))
	}
}
