package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var vttTimestampRe = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}[.,]\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2}[.,]\d{3})`)

// ParseVTT parses WebVTT content into segments
func ParseVTT(content string) []*Segment {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	var segs []*Segment
	var cur *Segment
	index := 0

	for _, line := range lines {
		line = strings.TrimSpace(line)

		// WEBVTT header and blank lines terminate the current cue
		if line == "WEBVTT" || strings.HasPrefix(line, "NOTE") || line == "" {
			if cur != nil && cur.Text != "" {
				segs = append(segs, cur)
				cur = nil
			}
			continue
		}

		if matches := vttTimestampRe.FindStringSubmatch(line); len(matches) == 3 {
			if cur != nil && cur.Text != "" {
				segs = append(segs, cur)
			}
			index++
			cur = &Segment{
				Index:  index,
				Start:  parseTimestamp(matches[1]),
				End:    parseTimestamp(matches[2]),
				Status: StatusPending,
			}
			continue
		}

		// Cue identifiers (pure digits) between cues
		if _, err := strconv.Atoi(line); err == nil && cur == nil {
			continue
		}

		if cur != nil {
			if cur.Text != "" {
				cur.Text += "\n"
			}
			cur.Text += line
		}
	}

	if cur != nil && cur.Text != "" {
		segs = append(segs, cur)
	}

	return segs
}

// WriteVTT converts rendered segments back to WebVTT
func WriteVTT(rendered []Rendered) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")

	for i, r := range rendered {
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n", formatTimestamp(r.Start, "."), formatTimestamp(r.End, ".")))
		sb.WriteString(strings.Join(r.Lines, "\n"))
		sb.WriteString("\n\n")
	}

	return sb.String()
}

func parseTimestamp(ts string) time.Duration {
	ts = strings.Replace(ts, ",", ".", 1)
	var h, m, s, ms int
	fmt.Sscanf(ts, "%d:%d:%d.%d", &h, &m, &s, &ms)
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(ms)*time.Millisecond
}

func formatTimestamp(d time.Duration, msSep string) string {
	if d < 0 {
		d = 0
	}
	totalMs := d.Milliseconds()
	h := totalMs / 3600000
	totalMs %= 3600000
	m := totalMs / 60000
	totalMs %= 60000
	s := totalMs / 1000
	ms := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", h, m, s, msSep, ms)
}
