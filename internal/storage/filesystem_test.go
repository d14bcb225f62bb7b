package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}

func TestListDirectoryFiltersToMediaAndSubtitles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "movie.mkv"))
	touch(t, filepath.Join(dir, "movie.srt"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, ".hidden.mkv"))
	if err := os.Mkdir(filepath.Join(dir, "season1"), 0755); err != nil {
		t.Fatal(err)
	}

	entries, err := ListDirectory(dir, "")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}

	byName := map[string]*FileEntry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	if len(entries) != 3 {
		t.Fatalf("listed %d entries: %v", len(entries), byName)
	}
	if _, ok := byName["notes.txt"]; ok {
		t.Error("non-media file listed")
	}
	if _, ok := byName[".hidden.mkv"]; ok {
		t.Error("hidden file listed")
	}
	if e := byName["movie.srt"]; e == nil || !e.Subtitle {
		t.Errorf("subtitle flag: %+v", e)
	}
	if e := byName["season1"]; e == nil || !e.IsDir {
		t.Errorf("directory entry: %+v", e)
	}
}

func TestListDirectoryRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	if _, err := ListDirectory(dir, "../.."); err == nil {
		t.Fatal("path traversal accepted")
	}
}

func TestSidecars(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "episode.mkv"))
	touch(t, filepath.Join(dir, "episode.srt"))
	touch(t, filepath.Join(dir, "episode.en.srt"))
	touch(t, filepath.Join(dir, "episode.ko.openai.vtt"))
	touch(t, filepath.Join(dir, "other.srt"))

	sidecars, err := Sidecars(filepath.Join(dir, "episode.mkv"))
	if err != nil {
		t.Fatalf("Sidecars: %v", err)
	}
	if len(sidecars) != 3 {
		names := make([]string, len(sidecars))
		for i, s := range sidecars {
			names[i] = s.Name
		}
		t.Fatalf("sidecars = %v", names)
	}
	for _, s := range sidecars {
		if !s.Subtitle {
			t.Errorf("%s not flagged as subtitle", s.Name)
		}
	}
}

func TestIsSubtitleFile(t *testing.T) {
	if !IsSubtitleFile("a.SRT") || !IsSubtitleFile("b.ass") {
		t.Error("subtitle extensions not matched case-insensitively")
	}
	if IsSubtitleFile("a.mkv") || IsSubtitleFile("noext") {
		t.Error("non-subtitle matched")
	}
}
