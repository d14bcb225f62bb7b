package job

import (
	"context"
	"encoding/json"
	"time"
)

// JobType represents the kind of job
type JobType string

const (
	JobTranslate JobType = "translate"
)

// JobStatus represents the current state of a job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusPartial   JobStatus = "partial"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Job represents a queued translation task
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Status      JobStatus       `json:"status"`
	FilePath    string          `json:"file_path"`
	Params      json.RawMessage `json:"params"`
	Progress    float64         `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// TranslateParams are parameters for a translation job
type TranslateParams struct {
	Source       string `json:"source"` // "embedded:<stream>", "external:<file>", or a sidecar path
	Provider     string `json:"provider"`
	Model        string `json:"model,omitempty"`
	SourceLang   string `json:"source_lang,omitempty"`
	TargetLang   string `json:"target_lang"`
	Preset       string `json:"preset,omitempty"`        // "anime", "movie", "documentary", "custom"
	CustomPrompt string `json:"custom_prompt,omitempty"` // for "custom" preset
	Layout       string `json:"layout,omitempty"`        // "bilingual" or "monolingual"
	Format       string `json:"format,omitempty"`        // "srt", "vtt", "ass"
}

// TranslateResult is the output of a finished translation job. A partial
// result still lists the output file; untranslated segments keep the source
// text and are flagged inside the subtitle itself.
type TranslateResult struct {
	OutputPath string         `json:"output_path"`
	Status     string         `json:"status"` // engine terminal status
	Translated int            `json:"translated"`
	Failed     int            `json:"failed"`
	TokenUsage map[string]int `json:"token_usage"`
	Duration   float64        `json:"duration"` // seconds
}

// JobHandler processes a job. Implementations are provided by the translate
// service.
type JobHandler func(ctx context.Context, job *Job, updateProgress func(float64)) error
