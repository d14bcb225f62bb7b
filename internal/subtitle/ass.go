package subtitle

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var assOverrideRe = regexp.MustCompile(`\{[^}]*\}`)

// ParseASS parses Advanced SubStation Alpha content into segments. Style
// override blocks are stripped; \N becomes a line break.
func ParseASS(content string) []*Segment {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var segs []*Segment
	var format []string
	inEvents := false
	index := 0

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		// Only the [Events] Format line describes Dialogue fields; the
		// [V4+ Styles] section carries its own unrelated Format line.
		if strings.HasPrefix(line, "[") {
			inEvents = strings.EqualFold(line, "[Events]")
			continue
		}
		if strings.HasPrefix(line, "Format:") && inEvents {
			format = nil
			for _, f := range strings.Split(strings.TrimPrefix(line, "Format:"), ",") {
				format = append(format, strings.TrimSpace(f))
			}
			continue
		}

		if !strings.HasPrefix(line, "Dialogue:") {
			continue
		}
		if format == nil {
			continue
		}

		fields := strings.SplitN(strings.TrimPrefix(line, "Dialogue:"), ",", len(format))
		if len(fields) != len(format) {
			continue
		}

		var start, end time.Duration
		var text string
		for i, name := range format {
			val := strings.TrimSpace(fields[i])
			switch name {
			case "Start":
				start = parseASSTime(val)
			case "End":
				end = parseASSTime(val)
			case "Text":
				text = fields[i]
			}
		}

		text = assOverrideRe.ReplaceAllString(text, "")
		text = strings.ReplaceAll(text, `\N`, "\n")
		text = strings.ReplaceAll(text, `\n`, "\n")
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		index++
		segs = append(segs, &Segment{
			Index:  index,
			Start:  start,
			End:    end,
			Text:   text,
			Status: StatusPending,
		})
	}

	return segs
}

// WriteASS converts rendered segments to an ASS script. In bilingual output
// the second line (the translation) is styled separately so players can size
// it independently.
func WriteASS(rendered []Rendered) string {
	var sb strings.Builder

	sb.WriteString("[Script Info]\n")
	sb.WriteString("Title: Translated Subtitles\n")
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString("WrapStyle: 0\n")
	sb.WriteString("ScaledBorderAndShadow: yes\n\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	sb.WriteString("Style: Default,Arial,20,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,0,2,10,10,10,1\n")
	sb.WriteString("Style: Secondary,Arial,16,&H00AAAAFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,0,2,10,10,10,1\n\n")

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, r := range rendered {
		text := escapeASSText(strings.Join(r.Lines, "\n"))
		sb.WriteString(fmt.Sprintf("Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(r.Start), formatASSTime(r.End), text))
	}

	return sb.String()
}

// parseASSTime parses H:MM:SS.cc (centiseconds)
func parseASSTime(ts string) time.Duration {
	var h, m, s, cs int
	fmt.Sscanf(ts, "%d:%d:%d.%d", &h, &m, &s, &cs)
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(cs)*10*time.Millisecond
}

func formatASSTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalCs := d.Milliseconds() / 10
	h := totalCs / 360000
	totalCs %= 360000
	m := totalCs / 6000
	totalCs %= 6000
	s := totalCs / 100
	cs := totalCs % 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func escapeASSText(text string) string {
	text = strings.ReplaceAll(text, "\n", `\N`)
	return strings.ReplaceAll(text, "{", `\{`)
}
