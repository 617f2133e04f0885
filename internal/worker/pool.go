// Package worker implements the Worker Pool: a fixed-size set of
// goroutines that pull from the Frontier, delegate to the downloader and
// Content Pipeline, and feed extracted links back to the Frontier. The
// pool is the only place that preserves the inflight invariant across a
// worker failure — every exit path from process calls MarkURLComplete
// exactly once.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kaelvex/frontier/internal/content"
	"github.com/kaelvex/frontier/internal/downloader"
	"github.com/kaelvex/frontier/internal/frontier"
	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/kaelvex/frontier/internal/report"
	"github.com/kaelvex/frontier/internal/simhash"
)

// Pool runs a fixed number of independent worker goroutines against one
// Frontier. Workers share only the Frontier, the downloader, the Content
// Pipeline, the report aggregator and the SimHash seen-set — no
// per-worker state crosses goroutines.
type Pool struct {
	size          int
	frontier      *frontier.Frontier
	downloader    *downloader.Downloader
	pipeline      *content.Pipeline
	reportAgg     *report.Aggregator
	simhashSeen   *simhash.SeenSet
	enableSimhash bool
	metadataSink  metadata.MetadataSink
}

// New builds a Pool of size workers. reportAgg and simhashSeen may be nil;
// when enableSimhash is false, simhashSeen is never consulted even if set,
// so behavior with the flag off is unaffected by its presence.
func New(
	size int,
	f *frontier.Frontier,
	d *downloader.Downloader,
	p *content.Pipeline,
	reportAgg *report.Aggregator,
	simhashSeen *simhash.SeenSet,
	enableSimhash bool,
	sink metadata.MetadataSink,
) *Pool {
	if sink == nil {
		sink = metadata.NoopSink{}
	}
	if size <= 0 {
		size = 1
	}
	return &Pool{
		size:          size,
		frontier:      f,
		downloader:    d,
		pipeline:      p,
		reportAgg:     reportAgg,
		simhashSeen:   simhashSeen,
		enableSimhash: enableSimhash,
		metadataSink:  sink,
	}
}

// Run starts every worker and blocks until all of them observe quiescent
// termination (frontier.GetTBDURL returning false).
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(p.size)
	for i := 0; i < p.size; i++ {
		go func() {
			defer wg.Done()
			p.loop(ctx)
		}()
	}
	wg.Wait()
}

func (p *Pool) loop(ctx context.Context) {
	for {
		u, ok := p.frontier.GetTBDURL()
		if !ok {
			return
		}
		p.process(ctx, u)
	}
}

// process executes one iteration of the worker loop. A panic anywhere
// inside is contained here: logged, and the URL is still marked complete
// so InflightCount keeps draining.
func (p *Pool) process(ctx context.Context, targetURL string) {
	defer func() {
		if r := recover(); r != nil {
			pe := &PanicError{Message: fmt.Sprintf("%v", r)}
			p.metadataSink.RecordError(time.Now(), "worker", "process",
				mapPanicErrorToMetadataCause(pe), pe.Error(),
				[]metadata.Attribute{metadata.NewAttr(metadata.AttrURL, targetURL)})
			p.frontier.MarkURLComplete(targetURL)
		}
	}()

	resp, err := p.downloader.Download(ctx, targetURL)
	if err != nil || resp == nil {
		p.frontier.MarkURLComplete(targetURL)
		return
	}

	result := p.pipeline.Process(targetURL, resp)

	if result.Admitted {
		if p.admitPage(targetURL, result) {
			// near-duplicate: drop links and finish like any other
			// low-information rejection.
			p.frontier.MarkURLComplete(targetURL)
			return
		}
	}

	for _, link := range result.Links {
		p.frontier.AddURL(link)
	}
	p.frontier.MarkURLComplete(targetURL)
}

// admitPage records an admitted page with the report aggregator and, when
// SimHash suppression is enabled, reports whether it duplicates an
// earlier page.
func (p *Pool) admitPage(targetURL string, result content.Result) (duplicate bool) {
	if p.enableSimhash && p.simhashSeen != nil {
		sum := simhash.Sum(result.Tokens)
		if p.simhashSeen.CheckAndAdd(sum) {
			return true
		}
	}
	if p.reportAgg != nil {
		p.reportAgg.Observe(report.Page{URL: targetURL, Tokens: result.Tokens})
	}
	return false
}
