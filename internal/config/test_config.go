package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Kind:          ProviderNewsAPI,
			BaseURL:       "http://127.0.0.1:0/v2",
			APIKey:        "test-key",
			Language:      "en",
			PageSize:      10,
			FallbackQuery: "latest",
			RemovedTitle:  "[Removed]",
			HTTPTimeout:   5 * time.Second,
			UserAgent:     "headlines-test/1.0",
		},
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		UI: UIConfig{
			DefaultSort:    "month",
			SearchDebounce: 10 * time.Millisecond,
			Timezone:       "UTC",
			Article:        defaultConfig().UI.Article,
		},
		Browser: BrowserConfig{
			DefaultOpener: "true",
		},
		Keys: defaultConfig().Keys,
		Log: LogConfig{
			Level: "off",
		},
	}
}
