// Package crawl is the Shutdown Coordinator (§4.G): it owns the
// construction order for every collaborator named in §6 (discovery
// store, registration client, admission filter, Frontier, downloader,
// Content Pipeline, report aggregator, worker pool) and the two ways a
// crawl ends — quiescent termination and an external interrupt.
package crawl

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kaelvex/frontier/internal/admission"
	"github.com/kaelvex/frontier/internal/config"
	"github.com/kaelvex/frontier/internal/content"
	"github.com/kaelvex/frontier/internal/downloader"
	"github.com/kaelvex/frontier/internal/frontier"
	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/kaelvex/frontier/internal/registration"
	"github.com/kaelvex/frontier/internal/report"
	"github.com/kaelvex/frontier/internal/simhash"
	"github.com/kaelvex/frontier/internal/store"
	"github.com/kaelvex/frontier/internal/worker"
)

// Run builds every collaborator from cfg and drives one crawl to
// quiescent termination or external interrupt, whichever comes first.
// It implements the §4.D construction rules (restart wipes and reseeds;
// otherwise replay, falling back to seeding when replay recovers
// nothing) and the §4.G shutdown sequence (stop accepting work, drain
// the worker pool, write the reports, flush and close the store).
func Run(ctx context.Context, cfg config.Config, sink metadata.MetadataSink) error {
	if sink == nil {
		sink = metadata.NoopSink{}
	}
	start := time.Now()

	if cfg.Restart() {
		if err := os.Remove(cfg.SaveFile()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("restart: removing existing save file: %w", err)
		}
	}

	st, err := store.Open(cfg.SaveFile(), cfg.SyncEvery(), cfg.SyncInterval(), sink)
	if err != nil {
		return fmt.Errorf("opening discovery store: %w", err)
	}

	host, port, err := resolveEndpoint(ctx, cfg, sink)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("resolving cache-proxy endpoint: %w", err)
	}

	filter := admission.NewFilter(cfg)
	fr := frontier.New(st, filter, cfg.PolitenessDelay(), sink)

	if cfg.Restart() {
		fr.Seed(cfg.SeedURLs())
	} else {
		n, err := fr.Replay()
		if err != nil {
			_ = fr.Close()
			return fmt.Errorf("replaying discovery store: %w", err)
		}
		if n == 0 {
			fr.Seed(cfg.SeedURLs())
		}
	}

	dl := downloader.New(host, port, cfg.UserAgent(), cfg.TimeDelay(), 10*time.Second, sink)
	pipeline := content.New(sink)
	reportAgg := report.NewAggregator(filepath.Dir(cfg.SaveFile()))

	var seenSet *simhash.SeenSet
	if cfg.EnableSimhash() {
		seenSet = simhash.NewSeenSet()
	}

	pool := worker.New(cfg.ThreadsCount(), fr, dl, pipeline, reportAgg, seenSet, cfg.EnableSimhash(), sink)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		// An external interrupt is an early, non-quiescent shutdown: latch
		// Closed so every waiting/looping worker drains out of GetTBDURL
		// without waiting for the ready heap to empty. Stop leaves the
		// store open: collectStats and the final fr.Close below still
		// need it, whether we got here by interrupt or quiescence.
		fr.Stop()
	}()

	pool.Run(sigCtx)

	stats := collectStats(st, start)

	if err := reportAgg.Close(); err != nil {
		sink.RecordError(time.Now(), "crawl", "Run", metadata.CauseStorageFailure, err.Error(), nil)
	} else {
		sink.RecordArtifact(metadata.ArtifactReport, filepath.Dir(cfg.SaveFile()), nil)
	}

	if err := fr.Close(); err != nil {
		sink.RecordError(time.Now(), "crawl", "Run", metadata.CauseStorageFailure, err.Error(), nil)
	} else {
		sink.RecordArtifact(metadata.ArtifactDiscoveryStore, cfg.SaveFile(), nil)
	}

	sink.RecordFinalCrawlStats(stats)
	return nil
}

// resolveEndpoint picks the cache-proxy (host, port) to fetch through:
// when a registration service is configured, it identifies this crawler
// and uses whatever endpoint comes back; otherwise it falls back to the
// statically configured connection.host/connection.port (§6).
func resolveEndpoint(ctx context.Context, cfg config.Config, sink metadata.MetadataSink) (string, int, error) {
	if cfg.CacheServer() == "" {
		return cfg.Host(), cfg.Port(), nil
	}
	client := registration.New(cfg.CacheServer(), sink)
	ep, err := client.Register(ctx, cfg.UserAgent())
	if err != nil {
		return "", 0, err
	}
	return ep.Host, ep.Port, nil
}

// collectStats derives a terminal CrawlStats snapshot from the store's
// final contents. This is strictly observational (§7): it is computed
// once, after the pool has already stopped, and never feeds back into
// scheduling.
func collectStats(st store.Store, start time.Time) metadata.CrawlStats {
	var discovered, completed int
	st.Each(func(_ string, rec store.Record) error {
		discovered++
		if rec.Completed {
			completed++
		}
		return nil
	})
	return metadata.CrawlStats{
		TotalDiscovered: discovered,
		TotalCompleted:  completed,
		TotalErrors:     0,
		Duration:        time.Since(start),
	}
}
