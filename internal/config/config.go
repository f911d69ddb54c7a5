package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration reads YAML values such as "30s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Provider struct {
	Name    string `yaml:"name"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
	Generation struct {
		BatchSize       int    `yaml:"batch_size"`
		Workers         int    `yaml:"workers"`
		MaxCombinations int    `yaml:"max_combinations"`
		Policy          string `yaml:"regeneration_policy"`
		Strategy        string `yaml:"rotation_strategy"`
		ReportDir       string `yaml:"report_dir"`
	} `yaml:"generation"`
	Quality struct {
		MinWords   int     `yaml:"min_words"`
		DensityMin float64 `yaml:"density_min"`
		DensityMax float64 `yaml:"density_max"`
		MinScore   float64 `yaml:"min_score"`
		HardReject bool    `yaml:"hard_reject"`
	} `yaml:"quality"`
	Uniqueness struct {
		DiversityFloor float64 `yaml:"diversity_floor"`
		MaxAttempts    int     `yaml:"max_attempts"`
	} `yaml:"uniqueness"`
	AI struct {
		Timeout     Duration   `yaml:"timeout"`
		MaxTokens   int        `yaml:"max_tokens"`
		Temperature float64    `yaml:"temperature"`
		Providers   []Provider `yaml:"providers"`
	} `yaml:"ai"`
	Enrichment struct {
		Path     string `yaml:"path"`
		MinFacts int    `yaml:"min_facts"`
	} `yaml:"enrichment"`
	History struct {
		// Backend is file, redis or memory (not persisted).
		Backend    string `yaml:"backend"`
		Path       string `yaml:"path"`
		RedisAddr  string `yaml:"redis_addr"`
		RedisKey   string `yaml:"redis_key"`
		Window     int    `yaml:"window"`
		FlushEvery int    `yaml:"flush_every"`
	} `yaml:"history"`
}

// providerEnv maps provider names to the environment variable holding their key.
var providerEnv = []struct{ name, env string }{
	{"openai", "PAGESMITH_OPENAI_API_KEY"},
	{"gemini", "PAGESMITH_GEMINI_API_KEY"},
	{"anthropic", "PAGESMITH_ANTHROPIC_API_KEY"},
}

func Default() *Config {
	var cfg Config
	cfg.Database.Path = "pagesmith.db"
	cfg.Log.Mode = "development"
	cfg.Generation.BatchSize = 50
	cfg.Generation.Workers = 4
	cfg.Generation.MaxCombinations = 50000
	cfg.Generation.Policy = "update"
	cfg.Generation.Strategy = "least_used"
	cfg.Quality.MinWords = 300
	cfg.Quality.DensityMin = 1.5
	cfg.Quality.DensityMax = 3.5
	cfg.Quality.MinScore = 60
	cfg.Uniqueness.DiversityFloor = 0.35
	cfg.Uniqueness.MaxAttempts = 3
	cfg.AI.Timeout = Duration(30 * time.Second)
	cfg.AI.MaxTokens = 1800
	cfg.AI.Temperature = 0.4
	for _, p := range providerEnv {
		cfg.AI.Providers = append(cfg.AI.Providers, Provider{Name: p.name})
	}
	cfg.Enrichment.MinFacts = 3
	cfg.History.Backend = "file"
	cfg.History.Path = ".pagesmith/history.json"
	cfg.History.RedisKey = "pagesmith:variation_history"
	cfg.History.Window = 200
	cfg.History.FlushEvery = 25
	return &cfg
}

// LoadConfig reads .env, then the YAML file at path, then PAGESMITH_*
// environment overrides. A missing file leaves the defaults in place.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PAGESMITH_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PAGESMITH_LOG_MODE"); v != "" {
		cfg.Log.Mode = v
	}
	if v := os.Getenv("PAGESMITH_REDIS_ADDR"); v != "" {
		cfg.History.RedisAddr = v
		cfg.History.Backend = "redis"
	}
	for _, p := range providerEnv {
		key := os.Getenv(p.env)
		if key == "" {
			continue
		}
		found := false
		for i := range cfg.AI.Providers {
			if strings.EqualFold(cfg.AI.Providers[i].Name, p.name) {
				cfg.AI.Providers[i].APIKey = key
				found = true
			}
		}
		if !found {
			cfg.AI.Providers = append(cfg.AI.Providers, Provider{Name: p.name, APIKey: key})
		}
	}
}
