// Package frontier implements the Frontier Scheduler: a durable,
// deduplicating, per-host politeness-aware work queue that multiplexes a
// bounded worker pool across an unbounded set of host buckets.
//
// Frontier is the single synchronization point of the crawler. Every
// exported method takes the same mutex before touching the host buckets,
// the ready heap, the host-ready times, the inflight count, or the Closed
// latch; GetTBDURL is the only method that waits on the bound condition
// variable.
package frontier

import (
	"container/heap"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/kaelvex/frontier/internal/admission"
	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/kaelvex/frontier/internal/store"
	"github.com/kaelvex/frontier/pkg/hashutil"
	"github.com/kaelvex/frontier/pkg/urlutil"
)

// Frontier is the core scheduler (component D). Zero value is not usable;
// construct with New.
type Frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	store        store.Store
	filter       *admission.Filter
	metadataSink metadata.MetadataSink

	politenessDelay time.Duration

	buckets   map[string]*FIFOQueue[string]
	hostReady map[string]time.Time
	ready     readyHeap

	inflight int
	closed   bool

	closeOnce sync.Once

	// now is an injectable monotonic clock, overridden in tests that
	// exercise politeness timing without sleeping real wall-clock time.
	now func() time.Time
}

// New constructs a Frontier bound to the given store and admission filter.
// It does not seed or replay; call Seed or Replay once after construction.
func New(s store.Store, filter *admission.Filter, politenessDelay time.Duration, sink metadata.MetadataSink) *Frontier {
	if sink == nil {
		sink = metadata.NoopSink{}
	}
	f := &Frontier{
		store:           s,
		filter:          filter,
		metadataSink:    sink,
		politenessDelay: politenessDelay,
		buckets:         make(map[string]*FIFOQueue[string]),
		hostReady:       make(map[string]time.Time),
		now:             time.Now,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Replay walks every persisted record with completed=false and, if it
// still passes admission, enqueues it. It returns the number of URLs
// re-enqueued so the caller can fall back to seeding when it is zero.
func (f *Frontier) Replay() (int, error) {
	enqueued := 0
	err := f.store.Each(func(hash string, rec store.Record) error {
		if rec.Completed {
			return nil
		}
		u, parseErr := url.Parse(rec.URL)
		if parseErr != nil {
			return nil
		}
		if f.filter != nil && !f.filter.IsValidURL(*u) {
			return nil
		}
		f.enqueueExisting(hash, rec.URL)
		enqueued++
		return nil
	})
	if err != nil {
		fe := &FrontierError{Message: err.Error(), Cause: ErrCauseStoreReplay}
		f.metadataSink.RecordError(time.Now(), "frontier", "Replay",
			mapFrontierErrorToMetadataCause(fe), fe.Error(), nil)
		return enqueued, fe
	}
	return enqueued, nil
}

// enqueueExisting pushes an already-persisted, already-admitted URL into
// its HostBucket without re-touching the store (used by Replay, where the
// record is already on disk with completed=false).
func (f *Frontier) enqueueExisting(hash, canonical string) {
	u, err := url.Parse(canonical)
	if err != nil {
		return
	}
	host := hostOf(*u)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendToBucketLocked(host, canonical)
}

// Seed admits and enqueues each raw seed URL, exactly as AddURL would.
func (f *Frontier) Seed(seeds []url.URL) {
	for _, s := range seeds {
		f.AddURL(s.String())
	}
}

// AddURL canonicalizes and admits raw, dropping it silently on
// canonicalization failure or admission rejection. A URL already known to
// the store (by hash) is a no-op: "already discovered".
func (f *Frontier) AddURL(raw string) {
	canonical, err := urlutil.Canonicalize(raw)
	if err != nil {
		return
	}
	u, err := url.Parse(canonical)
	if err != nil {
		return
	}
	if f.filter != nil && !f.filter.IsValidURL(*u) {
		return
	}

	hash := hashutil.URLHash(canonical)
	host := hostOf(*u)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.store.Has(hash) {
		return
	}
	f.store.Put(hash, canonical, false)
	f.appendToBucketLocked(host, canonical)
}

// appendToBucketLocked appends canonical to host's bucket, creating it and
// pushing a ReadyHeap entry if the bucket was empty. Caller holds f.mu.
func (f *Frontier) appendToBucketLocked(host, canonical string) {
	bucket, exists := f.buckets[host]
	wasEmpty := !exists || bucket.Size() == 0
	if !exists {
		bucket = NewFIFOQueue[string]()
		f.buckets[host] = bucket
	}
	bucket.Enqueue(canonical)

	if wasEmpty {
		readyAt := f.hostReady[host] // zero value if never fetched
		heap.Push(&f.ready, readyEntry{readyAt: readyAt, host: host})
	}
	f.cond.Signal()
}

// GetTBDURL blocks until a URL is ready to crawl or the frontier reaches
// quiescent termination, in which case it returns ("", false).
func (f *Frontier) GetTBDURL() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if f.closed {
			return "", false
		}

		if f.ready.Len() == 0 {
			if f.inflight == 0 {
				f.closed = true
				f.cond.Broadcast()
				return "", false
			}
			f.cond.Wait()
			continue
		}

		head := f.ready[0]
		now := f.now()
		if head.readyAt.After(now) {
			f.waitUntilLocked(head.readyAt)
			continue
		}

		heap.Pop(&f.ready)
		bucket, ok := f.buckets[head.host]
		if !ok || bucket.Size() == 0 {
			// stale entry: the bucket was drained by a previous pop under
			// a different heap entry race; retry.
			delete(f.buckets, head.host)
			continue
		}

		u, ok := bucket.Dequeue()
		if !ok {
			delete(f.buckets, head.host)
			continue
		}

		f.inflight++
		nextReady := now.Add(f.politenessDelay)
		f.hostReady[head.host] = nextReady

		if bucket.Size() > 0 {
			heap.Push(&f.ready, readyEntry{readyAt: nextReady, host: head.host})
		} else {
			delete(f.buckets, head.host)
		}

		return u, true
	}
}

// waitUntilLocked waits on the condition variable until readyAt or until
// signaled, releasing f.mu while waiting. Because sync.Cond has no native
// timed wait, a timer goroutine wakes the waiter at readyAt; any earlier
// Signal/Broadcast also wakes it and the outer loop re-checks the heap.
func (f *Frontier) waitUntilLocked(readyAt time.Time) {
	d := readyAt.Sub(f.now())
	if d <= 0 {
		return
	}
	timer := time.AfterFunc(d, func() {
		f.mu.Lock()
		f.cond.Broadcast()
		f.mu.Unlock()
	})
	defer timer.Stop()
	f.cond.Wait()
}

// MarkURLComplete records raw (after canonicalization) as completed and
// decrements InflightCount, floored at zero. An unknown hash is an
// invariant violation: logged and otherwise ignored.
func (f *Frontier) MarkURLComplete(raw string) {
	canonical, err := urlutil.Canonicalize(raw)
	if err != nil {
		return
	}
	hash := hashutil.URLHash(canonical)

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.store.Has(hash) {
		fe := &FrontierError{
			Message: fmt.Sprintf("hash %s (url %s) not found in store", hash, canonical),
			Cause:   ErrCauseUnknownCompletion,
		}
		f.metadataSink.RecordError(time.Now(), "frontier", "MarkURLComplete",
			mapFrontierErrorToMetadataCause(fe), fe.Error(),
			[]metadata.Attribute{metadata.NewAttr(metadata.AttrURL, canonical)})
		return
	}

	f.store.Put(hash, canonical, true)
	if f.inflight > 0 {
		f.inflight--
	}
	f.cond.Signal()
}

// CloseIfDone latches Closed=true and wakes every waiter if the ready
// heap is empty and nothing is inflight. Idempotent.
func (f *Frontier) CloseIfDone() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ready.Len() == 0 && f.inflight == 0 {
		f.closed = true
		f.cond.Broadcast()
	}
}

// Stop unconditionally latches Closed=true and wakes every waiter, without
// touching the underlying store. This is what an external interrupt calls:
// it drains every worker out of GetTBDURL immediately, but leaves the store
// open so the Shutdown Coordinator can still collect final stats and flush
// it exactly once on its own schedule. Idempotent.
func (f *Frontier) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cond.Broadcast()
}

// Close unconditionally latches Closed=true, wakes every waiter, then
// flushes and releases the underlying store exactly once. Safe to call
// more than once: every call sets Closed and wakes waiters again, but
// store.Close only ever fires the first time.
func (f *Frontier) Close() error {
	f.mu.Lock()
	f.closed = true
	f.cond.Broadcast()
	f.mu.Unlock()

	var err error
	f.closeOnce.Do(func() {
		err = f.store.Close()
	})
	return err
}

// InflightCount reports the current number of handed-out, not-yet-complete
// URLs. Exposed for the Shutdown Coordinator and for tests.
func (f *Frontier) InflightCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inflight
}

// Closed reports whether the frontier has latched closed.
func (f *Frontier) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// SetClock overrides the monotonic clock used for politeness scheduling;
// test-only.
func (f *Frontier) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

func hostOf(u url.URL) string {
	return u.Hostname()
}
