package subtitle

import (
	"fmt"
	"strings"
)

// ParseSRT parses SubRip content into segments. Cue numbers in the file are
// ignored; segments are renumbered contiguously.
func ParseSRT(content string) []*Segment {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimPrefix(content, "\uFEFF")

	var segs []*Segment
	index := 0

	for _, block := range strings.Split(content, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}

		// First line may be the cue number
		i := 0
		if !vttTimestampRe.MatchString(lines[0]) {
			i = 1
		}
		if i >= len(lines) {
			continue
		}
		matches := vttTimestampRe.FindStringSubmatch(lines[i])
		if len(matches) != 3 {
			continue
		}

		text := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		if text == "" {
			continue
		}

		index++
		segs = append(segs, &Segment{
			Index:  index,
			Start:  parseTimestamp(matches[1]),
			End:    parseTimestamp(matches[2]),
			Text:   text,
			Status: StatusPending,
		})
	}

	return segs
}

// WriteSRT converts rendered segments to SubRip
func WriteSRT(rendered []Rendered) string {
	var sb strings.Builder

	for i, r := range rendered {
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n", formatTimestamp(r.Start, ","), formatTimestamp(r.End, ",")))
		sb.WriteString(strings.Join(r.Lines, "\n"))
		sb.WriteString("\n\n")
	}

	return sb.String()
}
