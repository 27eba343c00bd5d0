package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// APIConfig points at the semantic-search backend.
type APIConfig struct {
	URL string `yaml:"url"`
}

// QueryConfig holds the defaults of the search form.
type QueryConfig struct {
	Question       string   `yaml:"question"`
	TopK           int      `yaml:"top_k"`
	ShowChars      int      `yaml:"show_chars"`
	UseLLM         *bool    `yaml:"use_llm,omitempty"`
	Model          string   `yaml:"model"`
	Models         []string `yaml:"models"`
	TimeoutSecs    int      `yaml:"timeout_secs"`
	MaxCharsForLLM int      `yaml:"max_chars_for_llm"`
}

// LLMEnabled reports the effective use_llm value (true when unset).
func (q QueryConfig) LLMEnabled() bool {
	return q.UseLLM == nil || *q.UseLLM
}

// FormatterConfig extends the heading vocabulary of the fragment formatter.
type FormatterConfig struct {
	ExtraTitles []string `yaml:"extra_titles,omitempty"`
	CapsMinLen  int      `yaml:"caps_min_len"`
	CapsMaxLen  int      `yaml:"caps_max_len"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	API       APIConfig       `yaml:"api"`
	Query     QueryConfig     `yaml:"query"`
	Formatter FormatterConfig `yaml:"formatter"`
	Log       LogConfig       `yaml:"log"`
}

// Environment overrides, applied after the file.
const (
	EnvAPIURL   = "WARDA_API_URL"
	EnvLogLevel = "WARDA_LOG_LEVEL"
	EnvLogFile  = "WARDA_LOG_FILE"
)

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/warda/config.yaml.
// If neither exists, it writes defaults to ~/.config/warda/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports every invalid field at once.
func (c *AppConfig) Validate() error {
	var problems []string
	if u, err := url.Parse(c.API.URL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		problems = append(problems, fmt.Sprintf("api.url %q is not an http(s) url", c.API.URL))
	}
	if c.Query.TopK < 1 || c.Query.TopK > 20 {
		problems = append(problems, "query.top_k must be between 1 and 20")
	}
	if c.Query.ShowChars < 200 || c.Query.ShowChars > 4000 {
		problems = append(problems, "query.show_chars must be between 200 and 4000")
	}
	if c.Query.TimeoutSecs < 10 || c.Query.TimeoutSecs > 180 {
		problems = append(problems, "query.timeout_secs must be between 10 and 180")
	}
	if c.Query.MaxCharsForLLM < 300 || c.Query.MaxCharsForLLM > 2500 {
		problems = append(problems, "query.max_chars_for_llm must be between 300 and 2500")
	}
	if strings.TrimSpace(c.Query.Model) == "" {
		problems = append(problems, "query.model is required")
	}
	if c.Formatter.CapsMinLen < 0 || c.Formatter.CapsMaxLen < 0 {
		problems = append(problems, "formatter caps bounds must not be negative")
	} else if c.Formatter.CapsMaxLen > 0 && c.Formatter.CapsMinLen > c.Formatter.CapsMaxLen {
		problems = append(problems, "formatter.caps_min_len must not exceed formatter.caps_max_len")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is unknown", c.Log.Level))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "warda", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	useLLM := true
	return &AppConfig{
		API: APIConfig{URL: "http://localhost:8000/search"},
		Query: QueryConfig{
			Question:       "c'est quoi l'acide ascorbique ?",
			TopK:           3,
			ShowChars:      1200,
			UseLLM:         &useLLM,
			Model:          "phi3:mini",
			Models:         []string{"phi3:mini", "mistral", "llama3.1"},
			TimeoutSecs:    60,
			MaxCharsForLLM: 900,
		},
		Formatter: FormatterConfig{CapsMinLen: 6, CapsMaxLen: 60},
		Log:       LogConfig{Level: "info"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.API.URL == "" {
		cfg.API.URL = def.API.URL
	}
	if cfg.Query.Question == "" {
		cfg.Query.Question = def.Query.Question
	}
	if cfg.Query.TopK == 0 {
		cfg.Query.TopK = def.Query.TopK
	}
	if cfg.Query.ShowChars == 0 {
		cfg.Query.ShowChars = def.Query.ShowChars
	}
	if cfg.Query.Model == "" {
		cfg.Query.Model = def.Query.Model
	}
	if len(cfg.Query.Models) == 0 {
		cfg.Query.Models = def.Query.Models
	}
	if cfg.Query.TimeoutSecs == 0 {
		cfg.Query.TimeoutSecs = def.Query.TimeoutSecs
	}
	if cfg.Query.MaxCharsForLLM == 0 {
		cfg.Query.MaxCharsForLLM = def.Query.MaxCharsForLLM
	}
	if cfg.Formatter.CapsMinLen == 0 {
		cfg.Formatter.CapsMinLen = def.Formatter.CapsMinLen
	}
	if cfg.Formatter.CapsMaxLen == 0 {
		cfg.Formatter.CapsMaxLen = def.Formatter.CapsMaxLen
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if !contains(cfg.Query.Models, cfg.Query.Model) {
		cfg.Query.Models = append([]string{cfg.Query.Model}, cfg.Query.Models...)
	}
}

func applyEnv(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.API.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Log.File = v
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
