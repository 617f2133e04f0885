// Package store implements the Persistent Discovery Store: a durable map
// from URL-hash to (canonical URL, completed flag), batched-flushed to an
// embedded bbolt database.
package store

import (
	"sync"
	"time"

	"github.com/kaelvex/frontier/internal/metadata"
	"go.etcd.io/bbolt"
)

var bucketName = []byte("discovery")

// Record pairs a canonical URL with its completion flag.
type Record struct {
	URL       string
	Completed bool
}

// Store is the contract the Frontier Scheduler depends on.
type Store interface {
	Has(hash string) bool
	Put(hash, url string, completed bool)
	Flush() error
	Each(fn func(hash string, rec Record) error) error
	Close() error
}

// BoltStore is the default Store, backed by go.etcd.io/bbolt. Writes are
// buffered in memory and flushed to disk either every syncEvery dirty
// writes or every syncInterval, whichever comes first.
type BoltStore struct {
	mu           sync.Mutex
	db           *bbolt.DB
	path         string
	dirty        map[string]Record
	syncEvery    int
	syncInterval time.Duration
	lastFlush    time.Time
	metadataSink metadata.MetadataSink

	stopTicker chan struct{}
	tickerDone chan struct{}
}

// Open creates or opens the bbolt database at path, ensuring the
// discovery bucket exists, and starts a background ticker that flushes
// dirty records at least every syncInterval.
func Open(path string, syncEvery int, syncInterval time.Duration, metadataSink metadata.MetadataSink) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0644, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, &StoreError{Message: err.Error(), Cause: ErrCauseOpenFailure, Path: path}
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, &StoreError{Message: err.Error(), Cause: ErrCauseOpenFailure, Path: path}
	}

	s := &BoltStore{
		db:           db,
		path:         path,
		dirty:        make(map[string]Record),
		syncEvery:    syncEvery,
		syncInterval: syncInterval,
		lastFlush:    time.Now(),
		metadataSink: metadataSink,
		stopTicker:   make(chan struct{}),
		tickerDone:   make(chan struct{}),
	}
	go s.tickerLoop()
	return s, nil
}

func (s *BoltStore) tickerLoop() {
	defer close(s.tickerDone)
	interval := s.syncInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Flush(); err != nil && s.metadataSink != nil {
				s.metadataSink.RecordError(time.Now(), "store", "tickerLoop.Flush",
					metadata.CauseStorageFailure, err.Error(), nil)
			}
		case <-s.stopTicker:
			return
		}
	}
}

// Has reports whether hash is already recorded, in the dirty buffer or
// persisted to disk.
func (s *BoltStore) Has(hash string) bool {
	s.mu.Lock()
	if _, ok := s.dirty[hash]; ok {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	found := false
	_ = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		found = b.Get([]byte(hash)) != nil
		return nil
	})
	return found
}

// Put buffers a record write and triggers a flush if either SYNC_EVERY
// dirty writes or SYNC_INTERVAL has elapsed since the last flush.
func (s *BoltStore) Put(hash, url string, completed bool) {
	s.mu.Lock()
	s.dirty[hash] = Record{URL: url, Completed: completed}
	shouldFlush := len(s.dirty) >= s.syncEvery || time.Since(s.lastFlush) >= s.syncInterval
	s.mu.Unlock()

	if shouldFlush {
		if err := s.Flush(); err != nil && s.metadataSink != nil {
			s.metadataSink.RecordError(time.Now(), "store", "Put.maybeFlush",
				metadata.CauseStorageFailure, err.Error(), nil)
		}
	}
}

// Flush writes all dirty records to disk in a single bbolt transaction.
func (s *BoltStore) Flush() error {
	s.mu.Lock()
	if len(s.dirty) == 0 {
		s.lastFlush = time.Now()
		s.mu.Unlock()
		return nil
	}
	pending := s.dirty
	s.dirty = make(map[string]Record)
	s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		for hash, rec := range pending {
			if err := b.Put([]byte(hash), encodeRecord(rec)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// put the records back so a later flush can retry
		s.mu.Lock()
		for hash, rec := range pending {
			if _, ok := s.dirty[hash]; !ok {
				s.dirty[hash] = rec
			}
		}
		s.mu.Unlock()
		return &StoreError{Message: err.Error(), Cause: ErrCauseFlushFailure, Path: s.path}
	}

	s.mu.Lock()
	s.lastFlush = time.Now()
	s.mu.Unlock()
	return nil
}

// Each iterates over every persisted record (dirty records included),
// used for restart replay. Iteration order is not guaranteed.
func (s *BoltStore) Each(fn func(hash string, rec Record) error) error {
	s.mu.Lock()
	dirtySnapshot := make(map[string]Record, len(s.dirty))
	for k, v := range s.dirty {
		dirtySnapshot[k] = v
	}
	s.mu.Unlock()

	seen := make(map[string]struct{}, len(dirtySnapshot))
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			hash := string(k)
			if rec, ok := dirtySnapshot[hash]; ok {
				seen[hash] = struct{}{}
				return fn(hash, rec)
			}
			rec, ok := decodeRecord(v)
			if !ok {
				return nil
			}
			return fn(hash, rec)
		})
	})
	if err != nil {
		return &StoreError{Message: err.Error(), Cause: ErrCauseReadFailure, Path: s.path}
	}

	for hash, rec := range dirtySnapshot {
		if _, ok := seen[hash]; ok {
			continue
		}
		if err := fn(hash, rec); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes any remaining dirty records and closes the underlying
// database exactly once; later calls return nil without doing anything.
func (s *BoltStore) Close() error {
	select {
	case <-s.stopTicker:
		return nil
	default:
	}
	close(s.stopTicker)
	<-s.tickerDone
	if err := s.Flush(); err != nil {
		s.db.Close()
		return err
	}
	if err := s.db.Close(); err != nil {
		return &StoreError{Message: err.Error(), Cause: ErrCauseFlushFailure, Path: s.path}
	}
	return nil
}

// encodeRecord packs a Record into a compact on-disk form: a one-byte
// completed flag followed by the raw URL string.
func encodeRecord(rec Record) []byte {
	buf := make([]byte, 1+len(rec.URL))
	if rec.Completed {
		buf[0] = 1
	}
	copy(buf[1:], rec.URL)
	return buf
}

func decodeRecord(data []byte) (Record, bool) {
	if len(data) < 1 {
		return Record{}, false
	}
	return Record{URL: string(data[1:]), Completed: data[0] == 1}, true
}
