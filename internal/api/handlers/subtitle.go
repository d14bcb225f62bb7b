package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/subtrans/backend/internal/extract"
	"github.com/subtrans/backend/internal/storage"
	"github.com/subtrans/backend/internal/subtitle"
)

type SubtitleHandler struct {
	mediaPath string
}

func NewSubtitleHandler(mediaPath string) *SubtitleHandler {
	return &SubtitleHandler{mediaPath: mediaPath}
}

type SubtitleEntry struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Language string `json:"language"`
	Type     string `json:"type"`   // "embedded" or "external"
	Format   string `json:"format"` // codec name or file extension
}

// ListSubtitles returns available subtitle sources (embedded + external) for
// a media file. The entry IDs are valid "source" values for translate jobs.
func (h *SubtitleHandler) ListSubtitles(w http.ResponseWriter, r *http.Request) {
	path := extractPath(r)
	fullPath := filepath.Join(h.mediaPath, path)

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}

	entries := []SubtitleEntry{}

	// 1. Embedded text tracks via FFprobe
	if storage.IsVideoFile(fullPath) {
		tracks, err := extract.ProbeTracks(r.Context(), fullPath)
		if err == nil {
			for _, t := range tracks {
				label := t.Language
				if t.Title != "" {
					label = t.Title
				}
				if label == "" {
					label = fmt.Sprintf("track %d", t.StreamIndex)
				}
				entries = append(entries, SubtitleEntry{
					ID:       fmt.Sprintf("embedded:%d", t.StreamIndex),
					Label:    label,
					Language: t.Language,
					Type:     "embedded",
					Format:   t.Codec,
				})
			}
		}
	}

	// 2. External sidecar files next to the media file
	sidecars, err := storage.Sidecars(fullPath)
	if err == nil {
		base := strings.TrimSuffix(filepath.Base(fullPath), filepath.Ext(fullPath))
		for _, sc := range sidecars {
			name := sc.Name
			label := name
			lang := ""
			suffix := strings.TrimPrefix(strings.TrimSuffix(name, filepath.Ext(name)), base)
			suffix = strings.TrimPrefix(suffix, ".")
			if suffix != "" {
				lang = suffix
				label = suffix + " (" + strings.TrimPrefix(filepath.Ext(name), ".") + ")"
			}
			entries = append(entries, SubtitleEntry{
				ID:       "external:" + name,
				Label:    label,
				Language: lang,
				Type:     "external",
				Format:   strings.TrimPrefix(filepath.Ext(name), "."),
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// ServeSubtitle serves a subtitle source as its normalized text form
func (h *SubtitleHandler) ServeSubtitle(w http.ResponseWriter, r *http.Request) {
	path := extractPath(r)
	subtitleID := r.URL.Query().Get("id")

	if subtitleID == "" {
		jsonError(w, "subtitle id required", http.StatusBadRequest)
		return
	}

	fullPath := filepath.Join(h.mediaPath, path)

	switch {
	case strings.HasPrefix(subtitleID, "embedded:"):
		var streamIndex int
		if _, err := fmt.Sscanf(strings.TrimPrefix(subtitleID, "embedded:"), "%d", &streamIndex); err != nil {
			jsonError(w, "invalid subtitle id", http.StatusBadRequest)
			return
		}
		segs, err := extract.ExtractTrack(r.Context(), fullPath, streamIndex)
		if err != nil {
			jsonError(w, "failed to extract subtitle", http.StatusInternalServerError)
			return
		}
		content, _ := subtitle.Write(subtitle.FormatSRT, passthrough(segs))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "max-age=3600")
		w.Write([]byte(content))

	case strings.HasPrefix(subtitleID, "external:"):
		filename := strings.TrimPrefix(subtitleID, "external:")
		dir := filepath.Dir(fullPath)
		subPath := filepath.Join(dir, filename)

		// Security: ensure the subtitle file is in the same directory
		absDir, _ := filepath.Abs(dir)
		absSub, _ := filepath.Abs(subPath)
		if !strings.HasPrefix(absSub, absDir) {
			jsonError(w, "invalid path", http.StatusForbidden)
			return
		}

		data, err := os.ReadFile(subPath)
		if err != nil {
			jsonError(w, "subtitle file not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "max-age=3600")
		w.Write(data)

	default:
		jsonError(w, "invalid subtitle id", http.StatusBadRequest)
	}
}

// passthrough renders untranslated segments verbatim for serving
func passthrough(segs []*subtitle.Segment) []subtitle.Rendered {
	rendered := make([]subtitle.Rendered, 0, len(segs))
	for _, s := range segs {
		rendered = append(rendered, subtitle.Rendered{
			Start: s.Start,
			End:   s.End,
			Lines: strings.Split(s.Text, "\n"),
		})
	}
	return rendered
}
