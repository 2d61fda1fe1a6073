package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("ECOCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("ecocheck")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".ecocheck"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so that every key is
// visible to AutomaticEnv.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.stealth", cfg.Fetcher.Stealth)
	v.SetDefault("fetcher.browser_bin", cfg.Fetcher.BrowserBin)

	v.SetDefault("scraper.max_bullets", cfg.Scraper.MaxBullets)
	v.SetDefault("scraper.max_bullet_length", cfg.Scraper.MaxBulletLength)
	v.SetDefault("scraper.max_certifications", cfg.Scraper.MaxCertifications)
	v.SetDefault("scraper.max_ingredients_length", cfg.Scraper.MaxIngredientsLength)
	v.SetDefault("scraper.max_materials_length", cfg.Scraper.MaxMaterialsLength)
	v.SetDefault("scraper.max_sustain_length", cfg.Scraper.MaxSustainLength)
	v.SetDefault("scraper.max_cleaned_length", cfg.Scraper.MaxCleanedLength)
	v.SetDefault("scraper.max_payload_bytes", cfg.Scraper.MaxPayloadBytes)

	v.SetDefault("detector.observe_budget", cfg.Detector.ObserveBudget)
	v.SetDefault("detector.wait", cfg.Detector.Wait)

	v.SetDefault("ai.provider", cfg.AI.Provider)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.endpoint", cfg.AI.Endpoint)
	v.SetDefault("ai.api_key", cfg.AI.APIKey)
	v.SetDefault("ai.max_tokens", cfg.AI.MaxTokens)
	v.SetDefault("ai.temperature", cfg.AI.Temperature)
	v.SetDefault("ai.top_k", cfg.AI.TopK)
	v.SetDefault("ai.top_p", cfg.AI.TopP)
	v.SetDefault("ai.analysis_timeout", cfg.AI.AnalysisTimeout)
	v.SetDefault("ai.check_timeout", cfg.AI.CheckTimeout)
	v.SetDefault("ai.rate_limit", cfg.AI.RateLimit)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("storage.redis_addr", cfg.Storage.RedisAddr)
	v.SetDefault("storage.redis_prefix", cfg.Storage.RedisPrefix)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)
	v.SetDefault("storage.op_timeout", cfg.Storage.OpTimeout)
	v.SetDefault("storage.freshness", cfg.Storage.Freshness)
	v.SetDefault("storage.max_analysis_bytes", cfg.Storage.MaxAnalysisBytes)
	v.SetDefault("storage.max_credential_len", cfg.Storage.MaxCredentialLen)

	v.SetDefault("api.port", cfg.API.Port)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}

// defaultStoragePath is the file store location under the user's home.
func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".ecocheck", "store.json")
	}
	return filepath.Join(home, ".ecocheck", "store.json")
}
