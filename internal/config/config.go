package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for EcoCheck.
type Config struct {
	Fetcher  FetcherConfig  `mapstructure:"fetcher"  yaml:"fetcher"`
	Scraper  ScraperConfig  `mapstructure:"scraper"  yaml:"scraper"`
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector"`
	AI       AIConfig       `mapstructure:"ai"       yaml:"ai"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// FetcherConfig controls how pages are acquired.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	Stealth         bool          `mapstructure:"stealth"           yaml:"stealth"`
	BrowserBin      string        `mapstructure:"browser_bin"       yaml:"browser_bin"`
}

// ScraperConfig holds the extraction caps. The defaults are the contract
// values and Validate refuses anything larger.
type ScraperConfig struct {
	MaxBullets           int `mapstructure:"max_bullets"            yaml:"max_bullets"`
	MaxBulletLength      int `mapstructure:"max_bullet_length"      yaml:"max_bullet_length"`
	MaxCertifications    int `mapstructure:"max_certifications"     yaml:"max_certifications"`
	MaxIngredientsLength int `mapstructure:"max_ingredients_length" yaml:"max_ingredients_length"`
	MaxMaterialsLength   int `mapstructure:"max_materials_length"   yaml:"max_materials_length"`
	MaxSustainLength     int `mapstructure:"max_sustain_length"     yaml:"max_sustain_length"`
	MaxCleanedLength     int `mapstructure:"max_cleaned_length"     yaml:"max_cleaned_length"`
	MaxPayloadBytes      int `mapstructure:"max_payload_bytes"      yaml:"max_payload_bytes"`
}

// DetectorConfig controls the product-page readiness watch.
type DetectorConfig struct {
	ObserveBudget time.Duration `mapstructure:"observe_budget" yaml:"observe_budget"`
	Wait          bool          `mapstructure:"wait"           yaml:"wait"`
}

// AIConfig controls the analysis provider.
type AIConfig struct {
	Provider        string        `mapstructure:"provider"          yaml:"provider"`
	Model           string        `mapstructure:"model"             yaml:"model"`
	Endpoint        string        `mapstructure:"endpoint"          yaml:"endpoint"`
	APIKey          string        `mapstructure:"api_key"           yaml:"api_key"`
	MaxTokens       int           `mapstructure:"max_tokens"        yaml:"max_tokens"`
	Temperature     float64       `mapstructure:"temperature"       yaml:"temperature"`
	TopK            int           `mapstructure:"top_k"             yaml:"top_k"`
	TopP            float64       `mapstructure:"top_p"             yaml:"top_p"`
	AnalysisTimeout time.Duration `mapstructure:"analysis_timeout"  yaml:"analysis_timeout"`
	CheckTimeout    time.Duration `mapstructure:"check_timeout"     yaml:"check_timeout"`
	RateLimit       time.Duration `mapstructure:"rate_limit"        yaml:"rate_limit"`
}

// StorageConfig controls persistence of the credential and last analysis.
type StorageConfig struct {
	Type             string        `mapstructure:"type"               yaml:"type"`
	Path             string        `mapstructure:"path"               yaml:"path"`
	RedisAddr        string        `mapstructure:"redis_addr"         yaml:"redis_addr"`
	RedisPrefix      string        `mapstructure:"redis_prefix"       yaml:"redis_prefix"`
	MongoURI         string        `mapstructure:"mongo_uri"          yaml:"mongo_uri"`
	MongoDatabase    string        `mapstructure:"mongo_database"     yaml:"mongo_database"`
	MongoCollection  string        `mapstructure:"mongo_collection"   yaml:"mongo_collection"`
	OpTimeout        time.Duration `mapstructure:"op_timeout"         yaml:"op_timeout"`
	Freshness        time.Duration `mapstructure:"freshness"          yaml:"freshness"`
	MaxAnalysisBytes int           `mapstructure:"max_analysis_bytes" yaml:"max_analysis_bytes"`
	MaxCredentialLen int           `mapstructure:"max_credential_len" yaml:"max_credential_len"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// Contract limits shared with downstream consumers.
const (
	MaxBullets           = 10
	MaxBulletLength      = 200
	MaxCertifications    = 10
	MaxIngredientsLength = 500
	MaxMaterialsLength   = 500
	MaxSustainLength     = 300
	MaxCleanedLength     = 5000
	MaxPayloadBytes      = 10240
	MaxAnalysisBytes     = 51200
	MaxCredentialLen     = 500
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			Type:            "http",
			RequestTimeout:  20 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    10,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Scraper: ScraperConfig{
			MaxBullets:           MaxBullets,
			MaxBulletLength:      MaxBulletLength,
			MaxCertifications:    MaxCertifications,
			MaxIngredientsLength: MaxIngredientsLength,
			MaxMaterialsLength:   MaxMaterialsLength,
			MaxSustainLength:     MaxSustainLength,
			MaxCleanedLength:     MaxCleanedLength,
			MaxPayloadBytes:      MaxPayloadBytes,
		},
		Detector: DetectorConfig{
			ObserveBudget: 30 * time.Second,
		},
		AI: AIConfig{
			Provider:        "gemini",
			Model:           "gemini-pro",
			MaxTokens:       1024,
			Temperature:     0.3,
			TopK:            40,
			TopP:            0.95,
			AnalysisTimeout: 30 * time.Second,
			CheckTimeout:    35 * time.Second,
			RateLimit:       time.Second,
		},
		Storage: StorageConfig{
			Type:             "file",
			Path:             defaultStoragePath(),
			RedisAddr:        "localhost:6379",
			RedisPrefix:      "ecocheck:",
			MongoURI:         "mongodb://localhost:27017",
			MongoDatabase:    "ecocheck",
			MongoCollection:  "kv",
			OpTimeout:        5 * time.Second,
			Freshness:        time.Hour,
			MaxAnalysisBytes: MaxAnalysisBytes,
			MaxCredentialLen: MaxCredentialLen,
		},
		API: APIConfig{
			Port: 8787,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
