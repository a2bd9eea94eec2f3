// Package config loads and validates SubGen's YAML configuration through
// viper and exposes a deep-immutable typed Config plus the RunOptions
// record the pipeline consumes, so no stage ever indexes into an
// untyped option map.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/viper"

	"github.com/lsilvatti/subgen/internal/subgenerr"
)

// WhisperConfig configures the transcription adapter.
type WhisperConfig struct {
	Provider   string `mapstructure:"provider"` // cloud-api | cpp-binary
	Model      string `mapstructure:"model"`
	BinaryPath string `mapstructure:"binary_path"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Language   string `mapstructure:"language"` // forced source language, empty = auto-detect
}

// TranslationConfig configures the translator and its LLM client.
//
// `translation.api_key`/`translation.provider` is the canonical
// credential path. The wizard-era `llm.*` section is accepted only as a
// legacy alias at Load time, never written back.
type TranslationConfig struct {
	Provider      string            `mapstructure:"provider"`
	Model         string            `mapstructure:"model"`
	APIKey        string            `mapstructure:"api_key"`
	BaseURL       string            `mapstructure:"base_url"`
	Temperature   float64           `mapstructure:"temperature"`
	MaxGapSec     float64           `mapstructure:"max_gap_sec"`
	MaxGroupSize  int               `mapstructure:"max_group_size"`
	CharBudget    int               `mapstructure:"char_budget"`
	BatchSize     int               `mapstructure:"batch_size"`
	ContextGroups int               `mapstructure:"context_groups"`
	RetryBudget   int               `mapstructure:"retry_budget"`
	RulesDir      string            `mapstructure:"rules_dir"`
	Glossary      map[string]string `mapstructure:"glossary"`
}

// OutputConfig configures subtitle export.
type OutputConfig struct {
	Format    string `mapstructure:"format"` // srt | vtt | ass
	Bilingual bool   `mapstructure:"bilingual"`
}

// StylesConfig names the active style preset and any overrides.
type StylesConfig struct {
	Preset         string `mapstructure:"preset"`
	PrimaryFont    string `mapstructure:"primary_font"`
	PrimaryColor   string `mapstructure:"primary_color"`
	SecondaryFont  string `mapstructure:"secondary_font"`
	SecondaryColor string `mapstructure:"secondary_color"`
}

// AdvancedConfig holds proofreading, concurrency, timeout, and cache
// tuning knobs.
type AdvancedConfig struct {
	ProofreadBatchSize     int     `mapstructure:"proofread_batch_size"`
	ProofreadContextChars  int     `mapstructure:"proofread_context_chars"`
	FuzzyCacheThreshold    float64 `mapstructure:"fuzzy_cache_threshold"` // 0 disables
	LLMConcurrency         int     `mapstructure:"llm_concurrency"`
	DownloadConcurrency    int     `mapstructure:"download_concurrency"`
	AudioExtractTimeoutSec int     `mapstructure:"audio_extract_timeout_sec"`
	RecognizerTimeoutSec   int     `mapstructure:"recognizer_timeout_sec"`
	LLMTimeoutSec          int     `mapstructure:"llm_timeout_sec"`
}

// LegacyLLMConfig models the deprecated wizard-era `llm.*` key, accepted
// only as a fallback for TranslationConfig.Provider/APIKey/Model.
type LegacyLLMConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
}

// Config is the fully parsed, validated configuration. It is treated as
// an immutable value once returned from Load: callers that need variant
// behavior call Clone and mutate the copy, never the shared value.
type Config struct {
	Whisper     WhisperConfig     `mapstructure:"whisper"`
	Translation TranslationConfig `mapstructure:"translation"`
	Output      OutputConfig      `mapstructure:"output"`
	Styles      StylesConfig      `mapstructure:"styles"`
	Advanced    AdvancedConfig    `mapstructure:"advanced"`
	Legacy      LegacyLLMConfig   `mapstructure:"llm"`
}

// Default returns a Config populated with the documented defaults.
func Default() Config {
	return Config{
		Whisper: WhisperConfig{
			Provider: "cloud-api",
		},
		Translation: TranslationConfig{
			Temperature:   0.0,
			MaxGapSec:     1.5,
			MaxGroupSize:  10,
			CharBudget:    400,
			BatchSize:     20,
			ContextGroups: 5,
			RetryBudget:   2,
			RulesDir:      "rules",
		},
		Output: OutputConfig{
			Format: "srt",
		},
		Styles: StylesConfig{
			Preset: "default",
		},
		Advanced: AdvancedConfig{
			ProofreadBatchSize:     50,
			ProofreadContextChars:  15000,
			FuzzyCacheThreshold:    0,
			LLMConcurrency:         4,
			DownloadConcurrency:    2,
			AudioExtractTimeoutSec: 300,
			RecognizerTimeoutSec:   900,
			LLMTimeoutSec:          120,
		},
	}
}

// DataRoot returns the user data root, `~/.subgen/` by default.
func DataRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", subgenerr.IO("$HOME", err)
	}
	return filepath.Join(home, ".subgen"), nil
}

// Path returns the default config file location inside the data root.
func Path() (string, error) {
	root, err := DataRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "config.yaml"), nil
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var baseURLPattern = regexp.MustCompile(`^https?://`)

// Load reads and validates the YAML config at path through viper. Any
// type mismatch or missing required translation key surfaces as
// subgenerr.BadConfig with the offending key path. Unknown keys are
// ignored by viper; the caller may warn about them.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return cfg, subgenerr.IO(path, err)
		}
		return cfg, subgenerr.BadConfig(path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, subgenerr.BadConfig(path, err)
	}

	applyLegacyLLMAlias(&cfg)

	if err := Validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyLegacyLLMAlias fills TranslationConfig fields from the deprecated
// `llm.*` section when the canonical `translation.*` fields are empty.
// The legacy section is never written back to disk.
func applyLegacyLLMAlias(cfg *Config) {
	if cfg.Translation.Provider == "" && cfg.Legacy.Provider != "" {
		cfg.Translation.Provider = cfg.Legacy.Provider
	}
	if cfg.Translation.APIKey == "" && cfg.Legacy.APIKey != "" {
		cfg.Translation.APIKey = cfg.Legacy.APIKey
	}
	if cfg.Translation.Model == "" && cfg.Legacy.Model != "" {
		cfg.Translation.Model = cfg.Legacy.Model
	}
}

// Validate checks required fields and shapes, surfacing
// subgenerr.BadConfig for anything wrong. A missing required key is an
// error, never a silently guessed zero value.
func Validate(cfg *Config) error {
	if cfg.Translation.Provider == "" {
		return subgenerr.BadConfig("translation.provider", fmt.Errorf("required"))
	}
	if cfg.Translation.BaseURL != "" && !baseURLPattern.MatchString(cfg.Translation.BaseURL) {
		return subgenerr.BadConfig("translation.base_url", fmt.Errorf("must be http(s)://"))
	}
	if cfg.Whisper.BaseURL != "" && !baseURLPattern.MatchString(cfg.Whisper.BaseURL) {
		return subgenerr.BadConfig("whisper.base_url", fmt.Errorf("must be http(s)://"))
	}
	if cfg.Translation.Temperature < 0 || cfg.Translation.Temperature > 1 {
		return subgenerr.BadConfig("translation.temperature", fmt.Errorf("out of range [0,1]"))
	}
	switch cfg.Output.Format {
	case "srt", "vtt", "ass", "":
	default:
		return subgenerr.BadConfig("output.format", fmt.Errorf("unsupported value %q", cfg.Output.Format))
	}
	if cfg.Translation.MaxGroupSize <= 0 {
		return subgenerr.BadConfig("translation.max_group_size", fmt.Errorf("must be > 0"))
	}
	return nil
}

// Clone returns a deep copy so callers can build per-run overrides
// without mutating the engine's live configuration.
func (c Config) Clone() Config {
	out := c
	if c.Translation.Glossary != nil {
		out.Translation.Glossary = make(map[string]string, len(c.Translation.Glossary))
		for k, v := range c.Translation.Glossary {
			out.Translation.Glossary[k] = v
		}
	}
	return out
}

// Save persists cfg as YAML at path with owner-only permissions, since
// the file may carry API keys.
func Save(cfg Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("whisper", cfg.Whisper)
	v.Set("translation", cfg.Translation)
	v.Set("output", cfg.Output)
	v.Set("styles", cfg.Styles)
	v.Set("advanced", cfg.Advanced)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return subgenerr.IO(path, err)
	}
	// The file may carry an API key, so it must be owner-only from the
	// moment it exists: create the temp file 0600 ourselves and have
	// viper keep that mode, rather than chmod-ing after the secret has
	// already been written world-readable.
	tmp := path + ".tmp"
	os.Remove(tmp) // stale leftover from a crashed prior save
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return subgenerr.IO(path, err)
	}
	f.Close()
	v.SetConfigPermissions(0o600)
	if err := v.WriteConfigAs(tmp); err != nil {
		os.Remove(tmp)
		return subgenerr.IO(path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return subgenerr.IO(path, err)
	}
	return nil
}
