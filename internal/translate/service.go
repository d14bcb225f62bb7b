package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/subtrans/backend/internal/extract"
	"github.com/subtrans/backend/internal/job"
	"github.com/subtrans/backend/internal/subtitle"
)

// ServiceConfig carries provider settings and job-level defaults. Per-job
// params override the defaults field by field.
type ServiceConfig struct {
	Providers       map[string]ProviderConfig
	DefaultProvider string
	TargetLang      string
	Layout          string
	Format          string
	OutputDir       string // empty writes next to the source file
}

// SettingsSource provides the admin settings persisted through the API.
// The database implements it; nil means static config only.
type SettingsSource interface {
	GetAllSettings() (map[string]string, error)
}

// Service resolves subtitle sources, runs the translation engine and writes
// the output file. It implements the job handler for translate jobs.
type Service struct {
	cfg      ServiceConfig
	settings SettingsSource
}

// NewService creates a translation service from configured providers.
// Settings are re-read per job so API updates apply without a restart.
func NewService(cfg ServiceConfig, settings SettingsSource) *Service {
	for _, id := range sortedKeys(cfg.Providers) {
		pc := cfg.Providers[id]
		model := pc.Model
		if model == "" {
			model = "default"
		}
		log.Printf("[translate] registered provider %s (model=%s)", id, model)
	}
	return &Service{cfg: cfg, settings: settings}
}

// Providers lists the configured provider IDs
func (s *Service) Providers() []string {
	return sortedKeys(s.effectiveConfig().Providers)
}

// settingsKeyFor maps provider IDs to their API key setting
var settingsKeyFor = map[string]string{
	"openai":    "openai_api_key",
	"deepseek":  "deepseek_api_key",
	"gemini":    "gemini_api_key",
	"anthropic": "anthropic_api_key",
	"deepl":     "deepl_api_key",
}

// effectiveConfig overlays the persisted settings onto the static config.
// Credentials from env or the config file win over stored ones; the job
// defaults (default_provider, target_language, layout) set through the API
// win over static defaults, since that is what the settings screen edits.
func (s *Service) effectiveConfig() ServiceConfig {
	cfg := s.cfg
	if s.settings == nil {
		return cfg
	}
	vals, err := s.settings.GetAllSettings()
	if err != nil {
		log.Printf("[translate] settings unavailable, using static config: %v", err)
		return cfg
	}

	providers := make(map[string]ProviderConfig, len(cfg.Providers))
	for id, pc := range cfg.Providers {
		providers[id] = pc
	}
	for id, key := range settingsKeyFor {
		apiKey := vals[key]
		if apiKey == "" {
			continue
		}
		pc, ok := providers[id]
		if ok && pc.APIKey != "" {
			continue
		}
		pc.ProviderID = id
		pc.APIKey = apiKey
		if pc.Model == "" {
			pc.Model = vals[id+"_model"]
		}
		providers[id] = pc
	}
	if endpoint := vals["ollama_endpoint"]; endpoint != "" {
		pc := providers["ollama"]
		pc.ProviderID = "ollama"
		if pc.Endpoint == "" {
			pc.Endpoint = endpoint
		}
		if pc.Model == "" {
			pc.Model = vals["ollama_model"]
		}
		providers["ollama"] = pc
	}
	cfg.Providers = providers

	if v := vals["default_provider"]; v != "" {
		cfg.DefaultProvider = v
	}
	if v := vals["target_language"]; v != "" {
		cfg.TargetLang = v
	}
	if v := vals["layout"]; v != "" {
		cfg.Layout = v
	}
	return cfg
}

// HandleJob processes a translation job from the queue
func (s *Service) HandleJob(ctx context.Context, j *job.Job, updateProgress func(float64)) error {
	var params job.TranslateParams
	if err := json.Unmarshal(j.Params, &params); err != nil {
		return fmt.Errorf("unmarshal params: %w", err)
	}

	segs, format, err := s.loadSource(ctx, j.FilePath, params.Source)
	if err != nil {
		return fmt.Errorf("load subtitle: %w", err)
	}

	result, report, err := s.translate(ctx, segs, format, j.FilePath, params, updateProgress)
	if err != nil {
		return err
	}

	resultJSON, _ := json.Marshal(result)
	j.Result = resultJSON
	if report.Status == StatusPartiallyCompleted {
		j.Status = job.StatusPartial
	}

	updateProgress(1.0)
	return nil
}

// TranslateFile translates a sidecar subtitle file in one shot. Used by the
// CLI and the drop-directory watcher.
func (s *Service) TranslateFile(ctx context.Context, path string, params job.TranslateParams, progress func(float64)) (*job.TranslateResult, error) {
	segs, format, err := extract.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load subtitle: %w", err)
	}
	result, _, err := s.translate(ctx, segs, format, path, params, progress)
	return result, err
}

func (s *Service) translate(ctx context.Context, segs []*subtitle.Segment, format subtitle.Format, sourcePath string, params job.TranslateParams, progress func(float64)) (*job.TranslateResult, *Report, error) {
	if len(segs) == 0 {
		return nil, nil, fmt.Errorf("no subtitle segments found in source")
	}
	subtitle.Renumber(segs)

	sc := s.effectiveConfig()

	providerID := params.Provider
	if providerID == "" {
		providerID = sc.DefaultProvider
	}
	cfg, ok := sc.Providers[providerID]
	if !ok {
		return nil, nil, fmt.Errorf("unknown translation provider: %s", providerID)
	}
	cfg.ProviderID = providerID
	if params.Model != "" {
		cfg.Model = params.Model
	}

	targetLang := params.TargetLang
	if targetLang == "" {
		targetLang = sc.TargetLang
	}
	if targetLang == "" {
		return nil, nil, fmt.Errorf("no target language configured")
	}

	sourceLang := params.SourceLang
	if sourceLang == "" {
		sourceLang = langFromFilename(sourcePath)
	}

	layoutName := params.Layout
	if layoutName == "" {
		layoutName = sc.Layout
	}
	layout, err := ParseLayoutMode(layoutName)
	if err != nil {
		return nil, nil, err
	}

	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[translate] translating %d segments: provider=%s target=%s preset=%s",
		len(segs), providerID, targetLang, params.Preset)

	mgr := NewManager(provider, cfg)
	report, err := mgr.Run(ctx, segs, Options{
		SourceLang:   sourceLang,
		TargetLang:   targetLang,
		Preset:       params.Preset,
		CustomPrompt: params.CustomPrompt,
	}, func(done, total int) {
		if progress != nil && total > 0 {
			progress(float64(done) / float64(total))
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("translate: %w", err)
	}
	if report.Status == StatusFailed {
		return nil, nil, fmt.Errorf("translation failed: all %d segments untranslated", report.Total)
	}

	outFormat := format
	if params.Format != "" {
		outFormat = subtitle.Format(strings.ToLower(params.Format))
	}
	content, err := subtitle.Write(outFormat, BuildLayout(segs, layout))
	if err != nil {
		return nil, nil, err
	}

	outPath := s.outputPath(sourcePath, targetLang, providerID, outFormat)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(content), 0644); err != nil {
		return nil, nil, fmt.Errorf("save translated subtitle: %w", err)
	}

	log.Printf("[translate] %s: %d/%d segments translated, output %s",
		report.Status, report.Translated, report.Total, outPath)

	return &job.TranslateResult{
		OutputPath: outPath,
		Status:     string(report.Status),
		Translated: report.Translated,
		Failed:     report.Failed,
		TokenUsage: report.TokenUsage,
		Duration:   report.Duration.Seconds(),
	}, report, nil
}

// loadSource resolves a subtitle source reference against the job's file.
// "embedded:N" extracts stream N from a media file, "external:name" reads a
// sidecar next to the media file, anything else is a subtitle path.
func (s *Service) loadSource(ctx context.Context, filePath, source string) ([]*subtitle.Segment, subtitle.Format, error) {
	switch {
	case strings.HasPrefix(source, "embedded:"):
		var streamIndex int
		if _, err := fmt.Sscanf(strings.TrimPrefix(source, "embedded:"), "%d", &streamIndex); err != nil {
			return nil, "", fmt.Errorf("bad embedded stream reference %q", source)
		}
		segs, err := extract.ExtractTrack(ctx, filePath, streamIndex)
		return segs, subtitle.FormatSRT, err
	case strings.HasPrefix(source, "external:"):
		name := strings.TrimPrefix(source, "external:")
		return extract.LoadFile(filepath.Join(filepath.Dir(filePath), name))
	case source != "":
		return extract.LoadFile(source)
	default:
		return extract.LoadFile(filePath)
	}
}

// outputPath builds {name}.{lang}.{provider}.{ext} for the translated file
func (s *Service) outputPath(sourcePath, targetLang, providerID string, format subtitle.Format) string {
	dir := filepath.Dir(sourcePath)
	if s.cfg.OutputDir != "" {
		dir = s.cfg.OutputDir
	}
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return filepath.Join(dir, fmt.Sprintf("%s.%s.%s.%s", base, targetLang, providerID, format))
}

// langFromFilename guesses the source language from a "video.en.srt" style
// name. Returns "auto" when the name carries no language tag.
func langFromFilename(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if ext := filepath.Ext(name); len(ext) == 3 || len(ext) == 4 {
		tag := strings.TrimPrefix(ext, ".")
		if isAlpha(tag) {
			return strings.ToLower(tag)
		}
	}
	return "auto"
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return s != ""
}

func sortedKeys(m map[string]ProviderConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
