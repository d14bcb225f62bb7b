package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/subtrans/backend/internal/subtitle"
)

// ExtractTrack decodes one embedded subtitle stream to a normalized segment
// sequence, going through ffmpeg's SRT muxer.
func ExtractTrack(ctx context.Context, mediaPath string, streamIndex int) ([]*subtitle.Segment, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-i", mediaPath,
		"-map", fmt.Sprintf("0:%d", streamIndex),
		"-f", "srt",
		"pipe:1",
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("extract stream %d from %s: %w", streamIndex, mediaPath, err)
	}

	segs := subtitle.ParseSRT(string(output))
	if len(segs) == 0 {
		return nil, fmt.Errorf("stream %d of %s produced no subtitle segments", streamIndex, mediaPath)
	}
	return segs, nil
}

// LoadFile reads a subtitle file from disk and parses it into segments,
// sniffing the format from the extension and content.
func LoadFile(path string) ([]*subtitle.Segment, subtitle.Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read subtitle file: %w", err)
	}

	format := subtitle.DetectFormat(path, string(data))
	segs, err := subtitle.Parse(format, string(data))
	if err != nil {
		return nil, format, err
	}
	if len(segs) == 0 {
		return nil, format, fmt.Errorf("no subtitle segments found in %s", path)
	}
	return segs, format, nil
}
