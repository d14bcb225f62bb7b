package translate

import "github.com/subtrans/backend/internal/subtitle"

// BuildBatches deterministically partitions segments into contiguous batches
// bounded by MaxBatchChars and MaxBatchSegments. A single segment longer than
// MaxBatchChars still forms its own batch: segments are never dropped and
// never split mid-text, since that would corrupt the timing-to-text mapping.
//
// Context for batch i is the last ContextWindow segments of batch i-1 and the
// first ContextWindow segments of batch i+1, attached read-only.
func BuildBatches(segs []*subtitle.Segment, cfg ProviderConfig, opts Options) []Batch {
	cfg = cfg.Defaults()
	if len(segs) == 0 {
		return nil
	}

	var groups [][]*subtitle.Segment
	var cur []*subtitle.Segment
	chars := 0

	for _, s := range segs {
		if len(cur) > 0 && (chars+len(s.Text) > cfg.MaxBatchChars || len(cur) >= cfg.MaxBatchSegments) {
			groups = append(groups, cur)
			cur = nil
			chars = 0
		}
		cur = append(cur, s)
		chars += len(s.Text)
	}
	groups = append(groups, cur)

	batches := make([]Batch, len(groups))
	for i, g := range groups {
		b := Batch{ID: i, Segments: g, Opts: opts}
		if cfg.ContextWindow > 0 {
			if i > 0 {
				b.ContextBefore = tail(groups[i-1], cfg.ContextWindow)
			}
			if i < len(groups)-1 {
				b.ContextAfter = head(groups[i+1], cfg.ContextWindow)
			}
		}
		batches[i] = b
	}

	return batches
}

func head(segs []*subtitle.Segment, n int) []*subtitle.Segment {
	if n > len(segs) {
		n = len(segs)
	}
	return segs[:n]
}

func tail(segs []*subtitle.Segment, n int) []*subtitle.Segment {
	if n > len(segs) {
		n = len(segs)
	}
	return segs[len(segs)-n:]
}
