package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/muurk/skylog/internal/feed"
	"github.com/muurk/skylog/internal/logging"
)

// followDebounce coalesces bursts of file events from one transaction.
const followDebounce = 150 * time.Millisecond

func hubKey(collection, owner string) string {
	return collection + "\x00" + owner
}

func (s *Store) hub(collection, owner string) *feed.Hub[Snapshot] {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := hubKey(collection, owner)
	h, ok := s.hubs[key]
	if !ok {
		h = feed.NewHub[Snapshot](false)
		s.hubs[key] = h
	}
	return h
}

// notify re-runs the live query for (collection, owner) if anyone watches.
func (s *Store) notify(ctx context.Context, collection, owner string) {
	s.mu.Lock()
	h, ok := s.hubs[hubKey(collection, owner)]
	s.mu.Unlock()
	if !ok || h.Len() == 0 {
		return
	}
	h.Publish(s.snapshot(context.WithoutCancel(ctx), collection, owner))
}

// snapshot runs the query, stamped with the order in which it started. A
// snapshot stamped after a write committed includes that write.
func (s *Store) snapshot(ctx context.Context, collection, owner string) Snapshot {
	seq := s.seq.Add(1)
	docs, err := s.Query(ctx, collection, owner)
	return Snapshot{Docs: docs, Err: err, seq: seq}
}

// Watch is a live query on this process's writes. fn receives the current
// result before Watch returns and again after every write to the owner's
// documents in collection. Results arrive in the order their queries
// started; one overtaken by a newer result is dropped. The stream ends at
// Unsubscribe or when ctx is done, whichever comes first.
func (s *Store) Watch(ctx context.Context, collection, owner string, fn func(Snapshot)) *feed.Subscription {
	var (
		mu   sync.Mutex
		last uint64
	)
	deliver := func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if snap.seq <= last {
			return
		}
		last = snap.seq
		fn(snap)
	}

	// Subscribe before the first query so no write between them is missed.
	sub := s.hub(collection, owner).Subscribe(deliver)
	deliver(s.snapshot(ctx, collection, owner))

	stopWatching := context.AfterFunc(ctx, sub.Unsubscribe)
	return feed.NewSubscription(func() {
		stopWatching()
		sub.Unsubscribe()
	})
}

// Follow is a live query that also sees writes from other processes by
// watching the sqlite database files. It delivers the current result, then
// a fresh result after each change, and returns when ctx is done.
func (s *Store) Follow(ctx context.Context, collection, owner string, fn func(Snapshot)) error {
	if s.path == "" {
		return fmt.Errorf("follow requires the sqlite driver (have %s)", s.driver)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	base := filepath.Base(s.path)
	relevant := map[string]bool{base: true, base + "-wal": true}

	emit := func() {
		snap := s.snapshot(ctx, collection, owner)
		if ctx.Err() != nil {
			return
		}
		fn(snap)
	}
	emit()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant[filepath.Base(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce = time.After(followDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("Store watcher error", zap.Error(err))

		case <-debounce:
			debounce = nil
			emit()
		}
	}
}
