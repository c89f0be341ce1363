package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/pders01/headlines/internal/validation"
)

const AppName = "headlines"

// Provider kinds.
const (
	ProviderNewsAPI = "newsapi"
	ProviderRSS     = "rss"
)

type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Database DatabaseConfig `mapstructure:"database"`
	UI       UIConfig       `mapstructure:"ui"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

type ProviderConfig struct {
	Kind          string        `mapstructure:"kind"`
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Language      string        `mapstructure:"language"`
	PageSize      int           `mapstructure:"page_size"`
	FallbackQuery string        `mapstructure:"fallback_query"`
	RemovedTitle  string        `mapstructure:"removed_title"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	RSSURL        string        `mapstructure:"rss_url"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type UIConfig struct {
	DefaultSort    string        `mapstructure:"default_sort"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	Timezone       string        `mapstructure:"timezone"`
	Article        ArticleConfig `mapstructure:"article"`
}

type ArticleConfig struct {
	MaxDescriptionLength int `mapstructure:"max_description_length"`
	WordWrapMaxWidth     int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth     int `mapstructure:"word_wrap_min_width"`
}

type BrowserConfig struct {
	DefaultOpener string   `mapstructure:"default_opener"`
	Preferred     []string `mapstructure:"preferred"`
}

type KeyConfig struct {
	Modifier string `mapstructure:"modifier"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

func defaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Kind:          ProviderNewsAPI,
			BaseURL:       "https://newsapi.org/v2",
			Language:      "en",
			PageSize:      10,
			FallbackQuery: "latest",
			RemovedTitle:  "[Removed]",
			HTTPTimeout:   30 * time.Second,
			UserAgent:     "headlines/1.0 (https://github.com/pders01/headlines)",
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(xdg.DataHome, AppName, "headlines.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(xdg.DataHome, AppName, "history.bleve"),
		},
		UI: UIConfig{
			DefaultSort:    "month",
			SearchDebounce: 400 * time.Millisecond,
			Article: ArticleConfig{
				MaxDescriptionLength: 150,
				WordWrapMaxWidth:     120,
				WordWrapMinWidth:     40,
			},
		},
		Browser: BrowserConfig{
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
		},
		Log: LogConfig{
			Level: "off",
			Path:  filepath.Join(xdg.StateHome, AppName, "headlines.log"),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "rundll32"
	default:
		return "xdg-open"
	}
}

// DefaultConfigPath is where Load looks when no path is given.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	setDefaults(v, cfg)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultConfigPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("HEADLINES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// NewsAPI's own variable name is honoured when nothing else set a key.
	if config.Provider.APIKey == "" {
		config.Provider.APIKey = os.Getenv("NEWSAPI_KEY")
	}

	expandPaths(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every leaf key so AutomaticEnv can override nested
// values such as HEADLINES_PROVIDER_API_KEY.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("provider.kind", cfg.Provider.Kind)
	v.SetDefault("provider.base_url", cfg.Provider.BaseURL)
	v.SetDefault("provider.api_key", cfg.Provider.APIKey)
	v.SetDefault("provider.language", cfg.Provider.Language)
	v.SetDefault("provider.page_size", cfg.Provider.PageSize)
	v.SetDefault("provider.fallback_query", cfg.Provider.FallbackQuery)
	v.SetDefault("provider.removed_title", cfg.Provider.RemovedTitle)
	v.SetDefault("provider.http_timeout", cfg.Provider.HTTPTimeout)
	v.SetDefault("provider.user_agent", cfg.Provider.UserAgent)
	v.SetDefault("provider.rss_url", cfg.Provider.RSSURL)

	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)
	v.SetDefault("database.search_index", cfg.Database.SearchIndex)

	v.SetDefault("ui.default_sort", cfg.UI.DefaultSort)
	v.SetDefault("ui.search_debounce", cfg.UI.SearchDebounce)
	v.SetDefault("ui.timezone", cfg.UI.Timezone)
	v.SetDefault("ui.article.max_description_length", cfg.UI.Article.MaxDescriptionLength)
	v.SetDefault("ui.article.word_wrap_max_width", cfg.UI.Article.WordWrapMaxWidth)
	v.SetDefault("ui.article.word_wrap_min_width", cfg.UI.Article.WordWrapMinWidth)

	v.SetDefault("browser.default_opener", cfg.Browser.DefaultOpener)
	v.SetDefault("browser.preferred", cfg.Browser.Preferred)

	v.SetDefault("keys.modifier", cfg.Keys.Modifier)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.path", cfg.Log.Path)
}

// Validate checks values a typo in the config file could break.
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderNewsAPI:
		if _, err := validation.NewEndpointValidator().ValidateAndNormalize(c.Provider.BaseURL); err != nil {
			return fmt.Errorf("provider.base_url: %w", err)
		}
	case ProviderRSS:
		if c.Provider.RSSURL == "" {
			return fmt.Errorf("provider.rss_url is required when provider.kind is %q", ProviderRSS)
		}
		if _, err := validation.NewEndpointValidator().ValidateAndNormalize(c.Provider.RSSURL); err != nil {
			return fmt.Errorf("provider.rss_url: %w", err)
		}
	default:
		return fmt.Errorf("provider.kind: unknown provider %q", c.Provider.Kind)
	}

	if c.Provider.PageSize < 1 || c.Provider.PageSize > 100 {
		return fmt.Errorf("provider.page_size must be between 1 and 100, got %d", c.Provider.PageSize)
	}

	if c.UI.Timezone != "" {
		if _, err := time.LoadLocation(c.UI.Timezone); err != nil {
			return fmt.Errorf("ui.timezone: %w", err)
		}
	}

	return nil
}

// Location resolves ui.timezone, defaulting to the local zone.
func (c *Config) Location() *time.Location {
	if c.UI.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.UI.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.Path = expandPath(cfg.Log.Path)
}

// Save writes the config as TOML. The API key is never written back; it is
// expected to come from the environment or a hand-edited file.
func Save(config *Config, path string) error {
	v := viper.New()

	providerCfg := map[string]interface{}{
		"kind":           config.Provider.Kind,
		"base_url":       config.Provider.BaseURL,
		"api_key":        "",
		"language":       config.Provider.Language,
		"page_size":      config.Provider.PageSize,
		"fallback_query": config.Provider.FallbackQuery,
		"removed_title":  config.Provider.RemovedTitle,
		"http_timeout":   config.Provider.HTTPTimeout.String(),
		"user_agent":     config.Provider.UserAgent,
		"rss_url":        config.Provider.RSSURL,
	}

	dbCfg := map[string]interface{}{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	}

	uiCfg := map[string]interface{}{
		"default_sort":    config.UI.DefaultSort,
		"search_debounce": config.UI.SearchDebounce.String(),
		"timezone":        config.UI.Timezone,
		"article": map[string]interface{}{
			"max_description_length": config.UI.Article.MaxDescriptionLength,
			"word_wrap_max_width":    config.UI.Article.WordWrapMaxWidth,
			"word_wrap_min_width":    config.UI.Article.WordWrapMinWidth,
		},
	}

	browserCfg := map[string]interface{}{
		"default_opener": config.Browser.DefaultOpener,
		"preferred":      config.Browser.Preferred,
	}

	v.Set("provider", providerCfg)
	v.Set("database", dbCfg)
	v.Set("ui", uiCfg)
	v.Set("browser", browserCfg)
	v.Set("keys", map[string]interface{}{"modifier": config.Keys.Modifier})
	v.Set("log", map[string]interface{}{"level": config.Log.Level, "path": config.Log.Path})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
