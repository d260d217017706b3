package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/studysearch/internal/domain/source"
)

// Config holds the studysearch configuration.
type Config struct {
	HTTP           HTTPConfig      `yaml:"http"`
	Auth           AuthConfig      `yaml:"auth"`
	Logging        LoggingConfig   `yaml:"logging"`
	Sources        SourcesConfig   `yaml:"sources"`
	Search         SearchConfig    `yaml:"search"`
	Render         RenderConfig    `yaml:"render"`
	Assistant      AssistantConfig `yaml:"assistant"`
	VocabularyPath string          `yaml:"vocabulary_path"` // empty = embedded default
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SourcesConfig holds the external source settings.
type SourcesConfig struct {
	TimeoutSec int         `yaml:"timeout_sec"`
	UserAgent  string      `yaml:"user_agent"`
	ResultCap  int         `yaml:"result_cap"`
	ExamBank   SiteConfig  `yaml:"exam_bank"`
	LessonBank SiteConfig  `yaml:"lesson_bank"`
	Video      VideoConfig `yaml:"video"`
}

// SiteConfig describes one scraped search page.
type SiteConfig struct {
	Enabled        *bool  `yaml:"enabled"` // default true
	Label          string `yaml:"label"`
	BaseURL        string `yaml:"base_url"`
	SearchPath     string `yaml:"search_path"`
	QueryParam     string `yaml:"query_param"`
	ResultSelector string `yaml:"result_selector"` // CSS selectors
	TitleSelector  string `yaml:"title_selector"`
	LinkSelector   string `yaml:"link_selector"`
}

// IsEnabled reports whether the site adapter should be built.
func (s SiteConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// VideoConfig holds YouTube Data API settings. An empty API key disables the adapter.
type VideoConfig struct {
	APIKey            string `yaml:"api_key"`
	Endpoint          string `yaml:"endpoint"`
	MaxResults        int    `yaml:"max_results"`
	PopularityFloor   uint64 `yaml:"popularity_floor"`
	RelevanceLanguage string `yaml:"relevance_language"`
	LevelSuffix       *bool  `yaml:"level_suffix"` // default true
}

// SearchConfig holds fan-out and routing settings.
type SearchConfig struct {
	MaxParallel        int                 `yaml:"max_parallel"`
	CurriculumFallback *bool               `yaml:"curriculum_fallback"` // default true
	Keywords           map[string][]string `yaml:"keywords"`            // source kind -> intent keywords
}

// RenderConfig holds output settings.
type RenderConfig struct {
	Order      []string `yaml:"order"`
	ChunkLimit int      `yaml:"chunk_limit"`
}

// AssistantConfig holds the language-model fallback settings. An empty provider disables it.
type AssistantConfig struct {
	Provider   string `yaml:"provider"` // "", openai, gemini
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from a .env file when one exists.
// Variables already present in the environment are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Sources.TimeoutSec <= 0 {
		c.Sources.TimeoutSec = 10
	}
	if c.Sources.ResultCap <= 0 {
		c.Sources.ResultCap = 3
	}
	applySiteDefaults(&c.Sources.ExamBank, "https://www.dzexams.com", "div.result-item", "h3.title")
	applySiteDefaults(&c.Sources.LessonBank, "https://www.eddirasa.com", "div.search-result", "h3.result-title")
	if c.Sources.Video.MaxResults <= 0 {
		c.Sources.Video.MaxResults = 5
	}
	if c.Sources.Video.PopularityFloor == 0 {
		c.Sources.Video.PopularityFloor = 1000
	}
	if c.Sources.Video.RelevanceLanguage == "" {
		c.Sources.Video.RelevanceLanguage = "ar"
	}
	if c.Search.MaxParallel <= 0 {
		c.Search.MaxParallel = 3
	}
	if c.Render.ChunkLimit <= 0 {
		c.Render.ChunkLimit = 4096
	}
	if c.Assistant.TimeoutSec <= 0 {
		c.Assistant.TimeoutSec = 30
	}
}

func applySiteDefaults(s *SiteConfig, baseURL, result, title string) {
	if s.BaseURL == "" {
		s.BaseURL = baseURL
	}
	if s.SearchPath == "" {
		s.SearchPath = "/search"
	}
	if s.QueryParam == "" {
		s.QueryParam = "q"
	}
	if s.ResultSelector == "" {
		s.ResultSelector = result
	}
	if s.TitleSelector == "" {
		s.TitleSelector = title
	}
	if s.LinkSelector == "" {
		s.LinkSelector = "a[href]"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Sources.ResultCap > 10 {
		return fmt.Errorf("sources.result_cap must be at most 10, got %d", c.Sources.ResultCap)
	}
	if c.Sources.Video.MaxResults > 50 {
		return fmt.Errorf("sources.video.max_results must be at most 50, got %d", c.Sources.Video.MaxResults)
	}
	if c.Render.ChunkLimit < 256 {
		return fmt.Errorf("render.chunk_limit must be at least 256, got %d", c.Render.ChunkLimit)
	}
	if _, err := c.RenderOrder(); err != nil {
		return fmt.Errorf("render.order: %w", err)
	}
	if _, err := c.ClassifierKeywords(); err != nil {
		return fmt.Errorf("search.keywords: %w", err)
	}
	switch c.Assistant.Provider {
	case "":
		// disabled
	case "openai", "gemini":
		if c.Assistant.APIKey == "" {
			return fmt.Errorf("assistant.api_key is required for provider %q", c.Assistant.Provider)
		}
	default:
		return fmt.Errorf("assistant.provider must be \"openai\" or \"gemini\", got %q", c.Assistant.Provider)
	}
	return nil
}

// RenderOrder returns the parsed source precedence.
func (c *Config) RenderOrder() ([]source.Kind, error) {
	return source.ParseOrder(c.Render.Order)
}

// ClassifierKeywords returns the configured keyword sets keyed by kind.
// nil means the built-in defaults.
func (c *Config) ClassifierKeywords() (map[source.Kind][]string, error) {
	if len(c.Search.Keywords) == 0 {
		return nil, nil
	}
	out := make(map[source.Kind][]string, len(c.Search.Keywords))
	for name, words := range c.Search.Keywords {
		k, err := source.Parse(name)
		if err != nil {
			return nil, err
		}
		if k == source.Assistant {
			return nil, fmt.Errorf("source %q is not searchable", name)
		}
		out[k] = words
	}
	return out, nil
}

// SourceTimeout returns the per-adapter call timeout.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Sources.TimeoutSec) * time.Second
}

// CurriculumFallbackEnabled reports whether the curriculum expansion pass runs.
func (c *Config) CurriculumFallbackEnabled() bool {
	return c.Search.CurriculumFallback == nil || *c.Search.CurriculumFallback
}

// LevelSuffixEnabled reports whether video queries get the school level appended.
func (c *Config) LevelSuffixEnabled() bool {
	return c.Sources.Video.LevelSuffix == nil || *c.Sources.Video.LevelSuffix
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
