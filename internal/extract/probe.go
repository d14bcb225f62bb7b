package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

type probeResult struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
}

type probeStream struct {
	Index     int               `json:"index"`
	CodecName string            `json:"codec_name"`
	CodecType string            `json:"codec_type"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// Track describes one embedded subtitle stream in a media container
type Track struct {
	StreamIndex int    `json:"stream_index"`
	Codec       string `json:"codec"`
	Language    string `json:"language"`
	Title       string `json:"title"`
}

// textSubtitleCodecs are subtitle codecs ffmpeg can decode to plain text.
// Bitmap formats (pgs, dvd_subtitle) cannot be translated and are skipped.
var textSubtitleCodecs = map[string]bool{
	"subrip":     true,
	"srt":        true,
	"ass":        true,
	"ssa":        true,
	"webvtt":     true,
	"mov_text":   true,
	"text":       true,
	"substation": true,
}

// ProbeTracks lists the text subtitle tracks embedded in a media file
func ProbeTracks(ctx context.Context, filePath string) ([]Track, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", filePath, err)
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var tracks []Track
	for _, s := range result.Streams {
		if s.CodecType != "subtitle" || !textSubtitleCodecs[s.CodecName] {
			continue
		}
		t := Track{StreamIndex: s.Index, Codec: s.CodecName}
		if s.Tags != nil {
			t.Language = s.Tags["language"]
			t.Title = s.Tags["title"]
		}
		tracks = append(tracks, t)
	}

	return tracks, nil
}
