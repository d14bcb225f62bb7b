package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/subtrans/backend/internal/translate"
)

type Config struct {
	Port          int
	MediaPath     string
	DataPath      string
	DBPath        string
	JWTSecret     string
	AdminUsername string
	AdminPassword string
	CORSOrigins   []string
	WatchDir      string

	Translation TranslationConfig
}

// TranslationConfig holds engine defaults and per-provider settings. Values
// come from the optional YAML config file with env vars layered on top.
type TranslationConfig struct {
	Provider         string  `yaml:"provider"`
	Model            string  `yaml:"model"`
	TargetLang       string  `yaml:"target_language"`
	Layout           string  `yaml:"layout"`
	Format           string  `yaml:"format"`
	OutputDir        string  `yaml:"output_dir"`
	MaxBatchChars    int     `yaml:"max_batch_chars"`
	MaxBatchSegments int     `yaml:"max_batch_segments"`
	ContextWindow    int     `yaml:"context_window"`
	ConcurrencyLimit int     `yaml:"concurrency_limit"`
	MaxRetries       int     `yaml:"max_retries"`
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
	Temperature      float64 `yaml:"temperature"`

	Providers map[string]ProviderSettings `yaml:"providers"`
}

// ProviderSettings are the per-provider credentials and overrides
type ProviderSettings struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

type fileConfig struct {
	Translation TranslationConfig `yaml:"translation"`
}

func Load() *Config {
	port, _ := strconv.Atoi(getEnv("PORT", "8080"))
	dataPath := getEnv("DATA_PATH", "/data")

	// JWT secret: require explicit setting or generate random
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatalf("Failed to generate random JWT secret: %v", err)
		}
		jwtSecret = hex.EncodeToString(b)
		log.Println("WARNING: JWT_SECRET not set, using random secret. Sessions will not survive restarts. Set JWT_SECRET env var for persistent sessions.")
	}

	// CORS origins: comma-separated list or "*" (default)
	corsOrigins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		corsOrigins = make([]string, 0, len(origins))
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	cfg := &Config{
		Port:          port,
		MediaPath:     getEnv("MEDIA_PATH", "/media"),
		DataPath:      dataPath,
		DBPath:        getEnv("DB_PATH", dataPath+"/subtrans.db"),
		JWTSecret:     jwtSecret,
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),
		CORSOrigins:   corsOrigins,
		WatchDir:      os.Getenv("WATCH_DIR"),
		Translation: TranslationConfig{
			Provider:   "openai",
			TargetLang: getEnv("TARGET_LANG", ""),
			Layout:     "bilingual",
			Providers:  map[string]ProviderSettings{},
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			log.Fatalf("Failed to load config file %s: %v", path, err)
		}
		log.Printf("[config] loaded %s", path)
	}

	cfg.applyProviderEnv()
	return cfg
}

// loadFile overlays YAML settings onto the defaults
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fc := fileConfig{Translation: c.Translation}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if fc.Translation.Providers == nil {
		fc.Translation.Providers = map[string]ProviderSettings{}
	}
	c.Translation = fc.Translation
	return nil
}

// applyProviderEnv layers env credentials over the file config. An env key
// registers the provider even without a file entry.
func (c *Config) applyProviderEnv() {
	envKeys := map[string]string{
		"openai":    "OPENAI_API_KEY",
		"deepseek":  "DEEPSEEK_API_KEY",
		"gemini":    "GEMINI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"deepl":     "DEEPL_API_KEY",
	}
	for id, envKey := range envKeys {
		if key := os.Getenv(envKey); key != "" {
			ps := c.Translation.Providers[id]
			ps.APIKey = key
			c.Translation.Providers[id] = ps
		}
	}
	if endpoint := os.Getenv("OLLAMA_ENDPOINT"); endpoint != "" {
		ps := c.Translation.Providers["ollama"]
		ps.Endpoint = endpoint
		c.Translation.Providers["ollama"] = ps
	}
}

// Validate checks what cannot fail lazily at job time
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Translation.Layout != "" {
		if _, err := translate.ParseLayoutMode(c.Translation.Layout); err != nil {
			return err
		}
	}
	for id := range c.Translation.Providers {
		if _, err := translate.NewProvider(translate.ProviderConfig{ProviderID: id}); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// ServiceConfig builds the translation service wiring from loaded settings
func (c *Config) ServiceConfig() translate.ServiceConfig {
	t := c.Translation
	providers := make(map[string]translate.ProviderConfig, len(t.Providers))
	for id, ps := range t.Providers {
		// ollama runs keyless; every other provider needs a key
		if ps.APIKey == "" && id != "ollama" {
			continue
		}
		model := ps.Model
		if model == "" {
			model = t.Model
		}
		providers[id] = translate.ProviderConfig{
			ProviderID:       id,
			Model:            model,
			Endpoint:         ps.Endpoint,
			APIKey:           ps.APIKey,
			MaxBatchChars:    t.MaxBatchChars,
			MaxBatchSegments: t.MaxBatchSegments,
			ContextWindow:    t.ContextWindow,
			ConcurrencyLimit: t.ConcurrencyLimit,
			MaxRetries:       t.MaxRetries,
			Timeout:          time.Duration(t.TimeoutSeconds) * time.Second,
			Temperature:      t.Temperature,
		}
	}
	return translate.ServiceConfig{
		Providers:       providers,
		DefaultProvider: t.Provider,
		TargetLang:      t.TargetLang,
		Layout:          t.Layout,
		Format:          t.Format,
		OutputDir:       t.OutputDir,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
