package mapping

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Builder constructs a ready-to-serve Registry from a base directory,
// including any validation its caller requires. Store calls it once at
// startup and again on every debounced filesystem event.
type Builder func(baseDir string) (*Registry, error)

// Store holds the currently-active Registry behind an atomic pointer, so
// that hot-reload can install a new registry without disturbing in-flight
// transformations reading the old one (: "Hot-reload installs a new
// registry atomically (pointer swap); existing in-flight transformations
// continue against their snapshot.").
type Store struct {
	current atomic.Pointer[Registry]

	baseDir string
	build Builder
	logger zerolog.Logger

	watcher *fsnotify.Watcher
	done chan struct{}
}

// NewStore builds the initial registry via build(baseDir) and returns a
// Store ready to serve it. The store does not start watching until Watch
// is called.
func NewStore(baseDir string, build Builder, logger zerolog.Logger) (*Store, error) {
	reg, err := build(baseDir)
	if err != nil {
		return nil, err
	}
	s := &Store{baseDir: baseDir, build: build, logger: logger}
	s.current.Store(reg)
	return s, nil
}

// Current returns the currently active Registry. Safe to call concurrently
// with Reload/Watch.
func (s *Store) Current() *Registry {
	return s.current.Load()
}

// Reload rebuilds the registry from disk and swaps it in if successful. A
// failed reload leaves the previously active registry in place and returns
// the error so the caller (CLI or HTTP handler) can surface it; it never
// panics or partially-installs a broken registry.
func (s *Store) Reload() error {
	reg, err := s.build(s.baseDir)
	if err != nil {
		return err
	}
	s.current.Store(reg)
	return nil
}

// Watch starts watching <baseDir>/lookups and <baseDir>/resources for
// filesystem changes and calls Reload, debounced by debounce, whenever one
// fires. It returns once the watcher is established; call Close (or cancel
// ctx) to stop it.
func (s *Store) Watch(ctx context.Context, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, sub := range []string{"lookups", "resources"} {
		dir := s.baseDir + "/" + sub
		if err := w.Add(dir); err != nil {
			// A missing lookups/ directory is legal; resources/ having
			// already loaded means it exists, so only lookups/ is expected
			// to fail here.
			s.logger.Warn().Err(err).Str("dir", dir).Msg("mapping: not watching directory")
		}
	}
	s.watcher = w
	s.done = make(chan struct{})

	go s.watchLoop(ctx, debounce)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, debounce time.Duration) {
	defer close(s.done)

	var pending *time.Timer
	reload := func() {
		if err := s.Reload(); err != nil {
			s.logger.Error().Err(err).Msg("mapping: hot reload failed, keeping previous registry")
			return
		}
		s.logger.Info().Msg("mapping: registry hot-reloaded")
	}

	for {
		select {
		case <-ctx.Done():
			s.watcher.Close()
			if pending != nil {
				pending.Stop()
			}
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(debounce, reload)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error().Err(err).Msg("mapping: watcher error")
		}
	}
}

// Close stops the watcher goroutine, if one was started.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	if s.done != nil {
		<-s.done
	}
	return err
}
