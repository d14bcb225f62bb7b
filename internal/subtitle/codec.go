package subtitle

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an on-disk subtitle syntax
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// DetectFormat sniffs the format from a filename extension, falling back to
// content inspection for extensionless input.
func DetectFormat(filename, content string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".srt":
		return FormatSRT
	case ".vtt":
		return FormatVTT
	case ".ass", ".ssa":
		return FormatASS
	}

	trimmed := strings.TrimSpace(strings.TrimPrefix(content, "\uFEFF"))
	switch {
	case strings.HasPrefix(trimmed, "WEBVTT"):
		return FormatVTT
	case strings.HasPrefix(trimmed, "[Script Info]"):
		return FormatASS
	default:
		return FormatSRT
	}
}

// Parse decodes content in the given format into a normalized segment sequence
func Parse(format Format, content string) ([]*Segment, error) {
	var segs []*Segment
	switch format {
	case FormatSRT:
		segs = ParseSRT(content)
	case FormatVTT:
		segs = ParseVTT(content)
	case FormatASS:
		segs = ParseASS(content)
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", format)
	}
	return segs, nil
}

// Write serializes rendered segments in the given format
func Write(format Format, rendered []Rendered) (string, error) {
	switch format {
	case FormatSRT:
		return WriteSRT(rendered), nil
	case FormatVTT:
		return WriteVTT(rendered), nil
	case FormatASS:
		return WriteASS(rendered), nil
	default:
		return "", fmt.Errorf("unsupported subtitle format: %s", format)
	}
}
