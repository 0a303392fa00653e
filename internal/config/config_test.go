package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv(geminiAPIKeyEnv, "gem-key")
	t.Setenv(hatenaIDEnv, "someone")
	t.Setenv(hatenaAPIKeyEnv, "hat-key")
	t.Setenv(hatenaBlogIDEnv, "someone.hatenablog.com")
	t.Setenv(maxPerRunEnv, "7")

	cfg := Load()

	if cfg.Gemini.APIKey != "gem-key" {
		t.Fatalf("gemini key not applied: %q", cfg.Gemini.APIKey)
	}
	if cfg.Hatena.BlogID != "someone.hatenablog.com" {
		t.Fatalf("blog id not applied: %q", cfg.Hatena.BlogID)
	}
	if cfg.Pipeline.MaxPerRun != 7 {
		t.Fatalf("max per run not applied: %d", cfg.Pipeline.MaxPerRun)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadMergesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
gemini:
  model: gemini-1.5-pro
seen:
  path: /var/lib/newsposter/seen.json
sources:
  - name: Example
    url: https://ex.test/feed
  - name: Other
    url: https://other.test/rss
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.Gemini.Model != "gemini-1.5-pro" {
		t.Fatalf("model not merged: %q", cfg.Gemini.Model)
	}
	if cfg.Seen.Path != "/var/lib/newsposter/seen.json" {
		t.Fatalf("seen path not merged: %q", cfg.Seen.Path)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[0].Name != "Example" {
		t.Fatalf("sources not merged: %+v", cfg.Sources)
	}
	// Defaults survive where the file is silent.
	if cfg.Gemini.Endpoint == "" {
		t.Fatal("default endpoint lost during merge")
	}
}

func TestValidateNamesEveryMissingCredential(t *testing.T) {
	cfg := defaultConfig()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	for _, name := range []string{geminiAPIKeyEnv, hatenaIDEnv, hatenaAPIKeyEnv, hatenaBlogIDEnv} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error does not mention %s: %v", name, err)
		}
	}
}
