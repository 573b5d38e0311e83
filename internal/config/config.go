package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for presenter.
type Config struct {
	CatalogPath  string             `mapstructure:"catalog_path"`
	CacheDir     string             `mapstructure:"cache_dir"`
	CacheTTL     string             `mapstructure:"cache_ttl"`
	NoCache      bool               `mapstructure:"no_cache"`
	RateLimit    float64            `mapstructure:"rate_limit"`
	UserAgent    string             `mapstructure:"user_agent"`
	Sources      []string           `mapstructure:"sources"`
	Providers    []string           `mapstructure:"providers"`
	DryRun       bool               `mapstructure:"dry_run"`
	LogLevel     string             `mapstructure:"log_level"`
	Pollinations PollinationsConfig `mapstructure:"pollinations"`
	File         FileConfig         `mapstructure:"file"`
	GitHub       GitHubConfig       `mapstructure:"github"`
	Git          GitConfig          `mapstructure:"git"`
}

// PollinationsConfig holds settings for the remote model listing.
type PollinationsConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// FileConfig holds settings for the local listing source.
type FileConfig struct {
	Path string `mapstructure:"path"`
}

// GitHubConfig holds GitHub-related settings.
type GitHubConfig struct {
	Token      string `mapstructure:"token"`
	Owner      string `mapstructure:"owner"`
	Repo       string `mapstructure:"repo"`
	BaseBranch string `mapstructure:"base_branch"`
	APIURL     string `mapstructure:"api_url"` // GitHub Enterprise; empty for github.com
}

// GitConfig holds the commit identity used by sync.
type GitConfig struct {
	AuthorName  string `mapstructure:"author_name"`
	AuthorEmail string `mapstructure:"author_email"`
}

// Load reads configuration from file, environment, and defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("catalog_path", "./catalog")
	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("no_cache", false)
	v.SetDefault("rate_limit", 5.0)
	v.SetDefault("user_agent", "presenter")
	v.SetDefault("sources", []string{"pollinations"})
	v.SetDefault("providers", []string{})
	v.SetDefault("dry_run", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("pollinations.base_url", "https://text.pollinations.ai")
	v.SetDefault("github.base_branch", "main")
	v.SetDefault("git.author_name", "presenter")
	v.SetDefault("git.author_email", "presenter@everstack.dev")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/presenter")
	}

	v.SetEnvPrefix("PRESENTER")
	v.AutomaticEnv()

	_ = v.BindEnv("github.token", "GITHUB_TOKEN")
	_ = v.BindEnv("github.owner", "PRESENTER_GITHUB_OWNER")
	_ = v.BindEnv("github.repo", "PRESENTER_GITHUB_REPO")
	_ = v.BindEnv("github.api_url", "PRESENTER_GITHUB_API_URL")
	_ = v.BindEnv("pollinations.base_url", "PRESENTER_POLLINATIONS_BASE_URL")
	_ = v.BindEnv("file.path", "PRESENTER_FILE_PATH")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if !filepath.IsAbs(cfg.CatalogPath) {
		abs, err := filepath.Abs(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("resolving catalog path: %w", err)
		}
		cfg.CatalogPath = abs
	}

	return &cfg, nil
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "presenter-cache")
	}
	return filepath.Join(home, ".cache", "presenter")
}
