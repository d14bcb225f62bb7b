package storage

import (
	"os"
	"path/filepath"
	"strings"
)

type FileEntry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	IsDir    bool   `json:"is_dir"`
	Size     int64  `json:"size,omitempty"`
	Subtitle bool   `json:"subtitle,omitempty"`
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true,
	".wmv": true, ".flv": true, ".webm": true, ".m4v": true,
	".ts": true, ".mpg": true, ".mpeg": true,
}

var subtitleExtensions = map[string]bool{
	".srt": true, ".vtt": true, ".ass": true, ".ssa": true,
}

func IsVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

func IsSubtitleFile(name string) bool {
	return subtitleExtensions[strings.ToLower(filepath.Ext(name))]
}

// ListDirectory lists subdirectories plus media and subtitle files under
// basePath/relativePath. Other file types are not part of this service and
// are filtered out.
func ListDirectory(basePath, relativePath string) ([]*FileEntry, error) {
	fullPath := filepath.Join(basePath, relativePath)

	// Prevent path traversal
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}
	absFull, err := filepath.Abs(fullPath)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(absFull, absBase) {
		return nil, os.ErrPermission
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, err
	}

	var result []*FileEntry
	for _, entry := range entries {
		// Skip hidden files
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !entry.IsDir() && !IsVideoFile(entry.Name()) && !IsSubtitleFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		fe := &FileEntry{
			Name:     entry.Name(),
			Path:     filepath.Join(relativePath, entry.Name()),
			IsDir:    entry.IsDir(),
			Subtitle: !entry.IsDir() && IsSubtitleFile(entry.Name()),
		}
		if !entry.IsDir() {
			fe.Size = info.Size()
		}
		result = append(result, fe)
	}
	return result, nil
}

// Sidecars returns subtitle files next to a media file whose names start
// with the media file's base name.
func Sidecars(mediaPath string) ([]*FileEntry, error) {
	dir := filepath.Dir(mediaPath)
	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var result []*FileEntry
	for _, entry := range entries {
		if entry.IsDir() || !IsSubtitleFile(entry.Name()) {
			continue
		}
		if !strings.HasPrefix(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())), base) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		result = append(result, &FileEntry{
			Name:     entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
			Size:     info.Size(),
			Subtitle: true,
		})
	}
	return result, nil
}
