package subtitle

import (
	"fmt"
	"time"
)

// Status tracks the translation state of a single segment
type Status string

const (
	StatusPending    Status = "pending"
	StatusTranslated Status = "translated"
	StatusFailed     Status = "failed"
)

// Segment is one timed text unit. Index is 1-based and contiguous within a
// job. Only Translated and Status change after parsing.
type Segment struct {
	Index      int           `json:"index"`
	Start      time.Duration `json:"start"`
	End        time.Duration `json:"end"`
	Text       string        `json:"text"`
	Translated string        `json:"translated,omitempty"`
	Status     Status        `json:"status"`
	Err        string        `json:"error,omitempty"`
}

// Rendered is what the layout builder hands to a format writer: timing plus
// the ordered lines to display for one segment.
type Rendered struct {
	Start        time.Duration `json:"start"`
	End          time.Duration `json:"end"`
	Lines        []string      `json:"lines"`
	Untranslated bool          `json:"untranslated"`
}

// Renumber assigns contiguous 1-based indices and resets status to pending.
func Renumber(segs []*Segment) {
	for i, s := range segs {
		s.Index = i + 1
		s.Status = StatusPending
	}
}

// Validate checks the invariants a parsed segment sequence must hold before
// it enters the translation pipeline.
func Validate(segs []*Segment) error {
	for i, s := range segs {
		if s.Index != i+1 {
			return fmt.Errorf("segment %d: index %d not contiguous", i, s.Index)
		}
		if s.Start >= s.End {
			return fmt.Errorf("segment %d: start %s not before end %s", s.Index, s.Start, s.End)
		}
	}
	return nil
}
