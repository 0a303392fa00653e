package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "NEWSPOSTER_CONFIG"
	geminiAPIKeyEnv = "GEMINI_API_KEY"
	geminiModelEnv  = "GEMINI_MODEL"
	hatenaIDEnv     = "HATENA_ID"
	hatenaAPIKeyEnv = "HATENA_API_KEY"
	hatenaBlogIDEnv = "HATENA_BLOG_ID"
	seenFileEnv     = "NEWSPOSTER_SEEN_FILE"
	maxPerRunEnv    = "NEWSPOSTER_MAX_PER_RUN"
	logLevelEnv     = "NEWSPOSTER_LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Hatena    HatenaConfig    `yaml:"hatena"`
	Seen      SeenConfig      `yaml:"seen"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Sources   []SourceConfig  `yaml:"sources"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// GeminiConfig defines how to contact the generation API.
type GeminiConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// HatenaConfig wires all data required to publish entries.
type HatenaConfig struct {
	HatenaID string `yaml:"hatenaId"`
	APIKey   string `yaml:"apiKey"`
	BlogID   string `yaml:"blogId"`
	Category string `yaml:"category"`
	Draft    bool   `yaml:"draft"`
}

// SeenConfig locates the delivered-article ledger on disk.
type SeenConfig struct {
	Path string `yaml:"path"`
}

// PipelineConfig tunes one delivery pass.
type PipelineConfig struct {
	MaxPerRun     int  `yaml:"maxPerRun"`
	FetchFullText bool `yaml:"fetchFullText"`
}

// SchedulerConfig enables recurring runs instead of the default single pass.
type SchedulerConfig struct {
	Enabled        bool   `yaml:"enabled"`
	CronExpression string `yaml:"cronExpression"`
}

// SourceConfig describes a single feed source. Declared order decides which
// entries are attempted first when a run is capped.
type SourceConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

// Validate reports every missing required credential at once. A failed
// validation is fatal before any network call is attempted.
func (c Config) Validate() error {
	var missing []string
	if c.Gemini.APIKey == "" {
		missing = append(missing, geminiAPIKeyEnv)
	}
	if c.Hatena.HatenaID == "" {
		missing = append(missing, hatenaIDEnv)
	}
	if c.Hatena.APIKey == "" {
		missing = append(missing, hatenaAPIKeyEnv)
	}
	if c.Hatena.BlogID == "" {
		missing = append(missing, hatenaBlogIDEnv)
	}

	if len(missing) == 0 {
		return nil
	}

	errs := make([]error, 0, len(missing))
	for _, name := range missing {
		errs = append(errs, fmt.Errorf("required configuration %s is not set", name))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv(hatenaIDEnv); v != "" {
		c.Hatena.HatenaID = v
	}
	if v := os.Getenv(hatenaAPIKeyEnv); v != "" {
		c.Hatena.APIKey = v
	}
	if v := os.Getenv(hatenaBlogIDEnv); v != "" {
		c.Hatena.BlogID = v
	}
	if v := os.Getenv(seenFileEnv); v != "" {
		c.Seen.Path = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(maxPerRunEnv); v != "" {
		if n, err := strconv.Atoi(v); err != nil {
			log.Printf("config: invalid %s=%q: %v (keeping %d)", maxPerRunEnv, v, err, c.Pipeline.MaxPerRun)
		} else {
			c.Pipeline.MaxPerRun = n
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}

	if override.Hatena.HatenaID != "" {
		base.Hatena.HatenaID = override.Hatena.HatenaID
	}
	if override.Hatena.APIKey != "" {
		base.Hatena.APIKey = override.Hatena.APIKey
	}
	if override.Hatena.BlogID != "" {
		base.Hatena.BlogID = override.Hatena.BlogID
	}
	if override.Hatena.Category != "" {
		base.Hatena.Category = override.Hatena.Category
	}
	base.Hatena.Draft = base.Hatena.Draft || override.Hatena.Draft

	if override.Seen.Path != "" {
		base.Seen.Path = override.Seen.Path
	}

	if override.Pipeline.MaxPerRun != 0 {
		base.Pipeline.MaxPerRun = override.Pipeline.MaxPerRun
	}
	base.Pipeline.FetchFullText = base.Pipeline.FetchFullText || override.Pipeline.FetchFullText

	if override.Scheduler.Enabled {
		base.Scheduler.Enabled = true
	}
	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Gemini: GeminiConfig{
			Endpoint: "https://generativelanguage.googleapis.com/v1beta",
			Model:    "gemini-1.5-flash",
		},
		Hatena: HatenaConfig{
			Category: "ミャンマー情勢",
		},
		Seen:      SeenConfig{Path: "seen_articles.json"},
		Pipeline:  PipelineConfig{MaxPerRun: 3},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *"},
		Sources: []SourceConfig{
			{Name: "The Irrawaddy", URL: "https://www.irrawaddy.com/feed"},
		},
	}
}
