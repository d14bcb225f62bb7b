package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherProcessesDroppedFiles(t *testing.T) {
	dir := t.TempDir()
	handled := make(chan string, 10)

	w, err := New(dir, func(ctx context.Context, path string) error {
		handled <- filepath.Base(path)
		return nil
	}, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// A burst of drops, including one file the watcher must ignore
	for _, name := range []string{"a.srt", "b.vtt", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	got := map[string]bool{}
	deadline := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case name := <-handled:
			got[name] = true
		case <-deadline:
			t.Fatalf("handled %v before timeout", got)
		}
	}
	if !got["a.srt"] || !got["b.vtt"] {
		t.Fatalf("handled %v", got)
	}

	select {
	case name := <-handled:
		t.Fatalf("unexpected file handled: %s", name)
	case <-time.After(200 * time.Millisecond):
	}
}
