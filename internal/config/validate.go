package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	switch cfg.Fetcher.Type {
	case "http", "browser", "file":
	default:
		return fmt.Errorf("fetcher.type must be 'http', 'browser' or 'file', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if err := validateCap("scraper.max_bullets", cfg.Scraper.MaxBullets, MaxBullets); err != nil {
		return err
	}
	if err := validateCap("scraper.max_bullet_length", cfg.Scraper.MaxBulletLength, MaxBulletLength); err != nil {
		return err
	}
	if err := validateCap("scraper.max_certifications", cfg.Scraper.MaxCertifications, MaxCertifications); err != nil {
		return err
	}
	if err := validateCap("scraper.max_ingredients_length", cfg.Scraper.MaxIngredientsLength, MaxIngredientsLength); err != nil {
		return err
	}
	if err := validateCap("scraper.max_materials_length", cfg.Scraper.MaxMaterialsLength, MaxMaterialsLength); err != nil {
		return err
	}
	if err := validateCap("scraper.max_sustain_length", cfg.Scraper.MaxSustainLength, MaxSustainLength); err != nil {
		return err
	}
	if err := validateCap("scraper.max_cleaned_length", cfg.Scraper.MaxCleanedLength, MaxCleanedLength); err != nil {
		return err
	}
	if err := validateCap("scraper.max_payload_bytes", cfg.Scraper.MaxPayloadBytes, MaxPayloadBytes); err != nil {
		return err
	}

	if cfg.Detector.ObserveBudget <= 0 {
		return fmt.Errorf("detector.observe_budget must be > 0")
	}

	switch cfg.AI.Provider {
	case "gemini", "openai", "ollama":
	default:
		return fmt.Errorf("ai.provider must be gemini/openai/ollama, got %q", cfg.AI.Provider)
	}
	if cfg.AI.Model == "" {
		return fmt.Errorf("ai.model must not be empty")
	}
	if cfg.AI.Endpoint != "" {
		if _, err := url.Parse(cfg.AI.Endpoint); err != nil {
			return fmt.Errorf("invalid ai.endpoint %q: %w", cfg.AI.Endpoint, err)
		}
	}
	if cfg.AI.AnalysisTimeout <= 0 {
		return fmt.Errorf("ai.analysis_timeout must be > 0")
	}
	if cfg.AI.CheckTimeout < cfg.AI.AnalysisTimeout {
		return fmt.Errorf("ai.check_timeout (%s) must be >= ai.analysis_timeout (%s)",
			cfg.AI.CheckTimeout, cfg.AI.AnalysisTimeout)
	}
	if cfg.AI.RateLimit < 0 {
		return fmt.Errorf("ai.rate_limit must be >= 0")
	}

	validStorageTypes := map[string]bool{
		"memory": true, "file": true, "redis": true, "mongo": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: memory, file, redis, mongo)", cfg.Storage.Type)
	}
	if cfg.Storage.Type == "file" && cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for file storage")
	}
	if cfg.Storage.Freshness <= 0 {
		return fmt.Errorf("storage.freshness must be > 0")
	}
	if err := validateCap("storage.max_analysis_bytes", cfg.Storage.MaxAnalysisBytes, MaxAnalysisBytes); err != nil {
		return err
	}
	if err := validateCap("storage.max_credential_len", cfg.Storage.MaxCredentialLen, MaxCredentialLen); err != nil {
		return err
	}

	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("api.port must be 1-65535, got %d", cfg.API.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// validateCap checks 1 <= got <= limit.
func validateCap(key string, got, limit int) error {
	if got < 1 || got > limit {
		return fmt.Errorf("%s must be between 1 and %d, got %d", key, limit, got)
	}
	return nil
}

// ValidateURL checks if a URL string can be fetched.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
