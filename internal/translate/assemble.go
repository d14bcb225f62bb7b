package translate

import (
	"strings"

	"github.com/subtrans/backend/internal/subtitle"
)

// validateOutcome enforces the one-line-per-segment wire contract. A count
// mismatch is a protocol error so the manager can split-retry it; silently
// truncating or padding would misalign text and timing for every segment
// after the first bad one.
func validateOutcome(provider string, b Batch, out Outcome) *Error {
	if len(out.Lines) != len(b.Segments) {
		return newError(provider, KindProtocol,
			"line count mismatch: sent %d segments, got %d translations", len(b.Segments), len(out.Lines))
	}
	return nil
}

// resolvedBatch is a batch with its final per-segment fate decided: either a
// translated line or an error for every segment, plus normalized usage.
type resolvedBatch struct {
	batch   Batch
	lines   []string
	segErrs []error // parallel to batch.Segments; nil entry means translated
	usage   map[string]int
	latency float64 // seconds, for job reporting
}

// apply writes a resolved batch back onto its segments, in segment order.
// An empty translated line keeps the source text so output is never blank.
func (r resolvedBatch) apply() (translated, failed int) {
	for i, seg := range r.batch.Segments {
		if r.segErrs != nil && r.segErrs[i] != nil {
			seg.Status = subtitle.StatusFailed
			seg.Err = r.segErrs[i].Error()
			failed++
			continue
		}
		line := r.lines[i]
		if strings.TrimSpace(line) == "" {
			line = seg.Text
		}
		seg.Translated = line
		seg.Status = subtitle.StatusTranslated
		translated++
	}
	return translated, failed
}

// failedBatch resolves every segment of b to the same error
func failedBatch(b Batch, err error) resolvedBatch {
	errs := make([]error, len(b.Segments))
	for i := range errs {
		errs[i] = err
	}
	return resolvedBatch{batch: b, lines: make([]string, len(b.Segments)), segErrs: errs, usage: map[string]int{}}
}

// mergeResolved concatenates the two halves of a split batch back into one
// resolved batch covering the original segments.
func mergeResolved(b Batch, left, right resolvedBatch) resolvedBatch {
	merged := resolvedBatch{
		batch:   b,
		lines:   append(append([]string{}, left.lines...), right.lines...),
		usage:   addUsage(map[string]int{}, left.usage, right.usage),
		latency: left.latency + right.latency,
	}
	if left.segErrs != nil || right.segErrs != nil {
		merged.segErrs = make([]error, 0, len(b.Segments))
		merged.segErrs = append(merged.segErrs, orNils(left.segErrs, len(left.batch.Segments))...)
		merged.segErrs = append(merged.segErrs, orNils(right.segErrs, len(right.batch.Segments))...)
	}
	return merged
}

func orNils(errs []error, n int) []error {
	if errs != nil {
		return errs
	}
	return make([]error, n)
}

// addUsage sums token usage maps into dst. dst is returned for chaining and
// is never nil.
func addUsage(dst map[string]int, srcs ...map[string]int) map[string]int {
	if dst == nil {
		dst = map[string]int{}
	}
	for _, src := range srcs {
		for k, v := range src {
			dst[k] += v
		}
	}
	return dst
}
