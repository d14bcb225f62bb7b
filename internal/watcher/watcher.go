package watcher

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/subtrans/backend/internal/storage"
)

// Handler processes one dropped subtitle file
type Handler func(ctx context.Context, path string) error

// Watcher monitors a drop directory and translates subtitle files as they
// appear. At most maxConcurrent files are processed at once.
type Watcher struct {
	dir       string
	handler   Handler
	fs        *fsnotify.Watcher
	semaphore chan struct{}
	wg        sync.WaitGroup
}

func New(dir string, handler Handler, maxConcurrent int) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Watcher{
		dir:       dir,
		handler:   handler,
		fs:        fs,
		semaphore: make(chan struct{}, maxConcurrent),
	}, nil
}

// Start blocks until ctx is cancelled, draining in-flight work before it
// returns.
func (w *Watcher) Start(ctx context.Context) error {
	log.Printf("[watcher] monitoring %s (max concurrent: %d)", w.dir, cap(w.semaphore))

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			log.Printf("[watcher] stopped")
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !storage.IsSubtitleFile(event.Name) {
				continue
			}
			log.Printf("[watcher] new subtitle detected: %s", event.Name)

			select {
			case w.semaphore <- struct{}{}:
				w.wg.Add(1)
				go func(path string) {
					defer w.wg.Done()
					defer func() { <-w.semaphore }()

					// Let the writer finish before reading; a burst of drops
					// must not stall the event loop, so the wait lives here.
					select {
					case <-time.After(500 * time.Millisecond):
					case <-ctx.Done():
						return
					}

					if err := w.handler(ctx, path); err != nil {
						log.Printf("[watcher] failed to process %s: %v", path, err)
					}
				}(event.Name)
			case <-ctx.Done():
				return ctx.Err()
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.Printf("[watcher] error: %v", err)
		}
	}
}

// Stop closes the underlying filesystem watcher
func (w *Watcher) Stop() error {
	return w.fs.Close()
}
