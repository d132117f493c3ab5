package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources    Sources    `yaml:"sources"`
	Keywords   Keywords   `yaml:"keywords"`
	Classifier Classifier `yaml:"classifier"`
	Dedupe     Dedupe     `yaml:"dedupe"`
	Ranking    Ranking    `yaml:"ranking"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

type Sources struct {
	Feeds      []Feed     `yaml:"feeds"`
	HackerNews HackerNews `yaml:"hackernews"`
	Reddit     Reddit     `yaml:"reddit"`
	TLDR       TLDR       `yaml:"tldr"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type HackerNews struct {
	Enabled bool   `yaml:"enabled"`
	Query   string `yaml:"query"`
}

type Reddit struct {
	Enabled    bool     `yaml:"enabled"`
	Subreddits []string `yaml:"subreddits"`
	UserAgent  string   `yaml:"user_agent"`
}

type TLDR struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// Keywords maps category buckets to the keywords that tag an item into
// that bucket, per stream.
type Keywords struct {
	Hiring       map[string][]string `yaml:"hiring"`
	Conversation map[string][]string `yaml:"conversation"`
}

type Classifier struct {
	Backend          string  `yaml:"backend"` // openai | gemini | heuristic
	OpenAIModel      string  `yaml:"openai_model"`
	APIKeyEnv        string  `yaml:"api_key_env"`
	GeminiModel      string  `yaml:"gemini_model"`
	GeminiAPIKeyEnv  string  `yaml:"gemini_api_key_env"`
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
	MaxTokens        int     `yaml:"max_tokens"`
	RateLimitSeconds float64 `yaml:"rate_limit_interval"`
	RetrySeconds     float64 `yaml:"retry_delay"`
}

// Timeout returns the per-call Live backend timeout.
func (c Classifier) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RateLimitInterval returns the minimum spacing between Live calls.
func (c Classifier) RateLimitInterval() time.Duration {
	return time.Duration(c.RateLimitSeconds * float64(time.Second))
}

// RetryDelay returns the fixed delay before the single transient-error retry.
func (c Classifier) RetryDelay() time.Duration {
	return time.Duration(c.RetrySeconds * float64(time.Second))
}

type Dedupe struct {
	TitleSimilarityThreshold float64 `yaml:"title_similarity_threshold"`
}

type Ranking struct {
	Weights        Weights `yaml:"weights"`
	RelevanceFloor float64 `yaml:"relevance_floor"`
}

// Weights are the tunable ranking parameters; they are configuration,
// not constants baked into the scoring algorithm.
type Weights struct {
	ItemCount         float64 `yaml:"item_count"`
	CategoryDiversity float64 `yaml:"category_diversity"`
	Recency           float64 `yaml:"recency"`
	AvgRelevance      float64 `yaml:"avg_relevance"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for signalradar.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "signalradar")
}

// DataDir returns the XDG data directory for signalradar.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "signalradar")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/signalradar/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'signalradar init' to create a default config",
		xdgConfig,
	)
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	return parse(DefaultConfigYAML)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			HackerNews: HackerNews{Enabled: true, Query: "who is hiring"},
			Reddit: Reddit{
				Enabled:    true,
				Subreddits: []string{"netsec", "cybersecurity", "SaaS"},
				UserAgent:  "signalradar/1.0 (weekly signal aggregator)",
			},
			TLDR: TLDR{Enabled: false, URL: "https://tldr.tech/infosec"},
		},
		Classifier: Classifier{
			Backend:          "openai",
			OpenAIModel:      "gpt-4o-mini",
			APIKeyEnv:        "OPENAI_API_KEY",
			GeminiModel:      "gemini-2.5-flash",
			GeminiAPIKeyEnv:  "GOOGLE_API_KEY",
			TimeoutSeconds:   30,
			MaxTokens:        200,
			RateLimitSeconds: 1.0,
			RetrySeconds:     2.0,
		},
		Dedupe: Dedupe{TitleSimilarityThreshold: 0.8},
		Ranking: Ranking{
			Weights: Weights{
				ItemCount:         1.0,
				CategoryDiversity: 0.5,
				Recency:           1.0,
				AvgRelevance:      2.0,
			},
			RelevanceFloor: 0.7,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Dedupe.TitleSimilarityThreshold <= 0 || cfg.Dedupe.TitleSimilarityThreshold > 1 {
		return nil, fmt.Errorf("dedupe.title_similarity_threshold must be in (0,1], got %v",
			cfg.Dedupe.TitleSimilarityThreshold)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
