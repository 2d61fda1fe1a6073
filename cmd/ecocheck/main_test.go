package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/IshaanNene/EcoCheck/internal/config"
)

func TestApplyCLIOverrides(t *testing.T) {
	t.Cleanup(func() {
		verbose, fromFile, waitForPage = false, false, false
		fetcherType, storageType, provider, model = "", "", "", ""
	})

	cfg := config.DefaultConfig()
	verbose = true
	fetcherType = "Browser"
	waitForPage = true
	storageType = "memory"
	provider = "OpenAI"
	model = "gpt-4o-mini"
	applyCLIOverrides(cfg)

	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
	if cfg.Fetcher.Type != "browser" || !cfg.Detector.Wait {
		t.Errorf("fetcher = %q wait = %v", cfg.Fetcher.Type, cfg.Detector.Wait)
	}
	if cfg.Storage.Type != "memory" || cfg.AI.Provider != "openai" || cfg.AI.Model != "gpt-4o-mini" {
		t.Errorf("unexpected overrides %+v %+v", cfg.Storage, cfg.AI)
	}

	fromFile = true
	applyCLIOverrides(cfg)
	if cfg.Fetcher.Type != "file" {
		t.Errorf("--file should select the file fetcher, got %q", cfg.Fetcher.Type)
	}
}

func TestResolveTarget(t *testing.T) {
	t.Cleanup(func() { fromFile = false })

	if _, err := resolveTarget("ftp://example.com"); err == nil {
		t.Error("expected error for ftp URL")
	}
	if got, err := resolveTarget("https://shop.test/p/1"); err != nil || got != "https://shop.test/p/1" {
		t.Errorf("resolveTarget = %q, %v", got, err)
	}

	fromFile = true
	if got, err := resolveTarget("./page.html"); err != nil || got != "./page.html" {
		t.Errorf("file target = %q, %v", got, err)
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := versionCmd()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)
	if !strings.Contains(out.String(), "EcoCheck "+config.Version) {
		t.Errorf("version output = %q", out.String())
	}
}
