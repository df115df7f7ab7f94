package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/image-analyzer/internal/anthropic"
	"github.com/spf13/viper"
)

func TestInitDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("HOME", t.TempDir())

	if err := Init(""); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := GetPort(); got != "8888" {
		t.Errorf("Expected port 8888, got %s", got)
	}
	if got := GetHTTPTimeout(); got != 60*time.Second {
		t.Errorf("Expected 60s timeout, got %s", got)
	}
	if got := GetUploadLimit(); got != 10*1024*1024 {
		t.Errorf("Expected 10MiB upload limit, got %d", got)
	}
	p := GetProvider("anthropic")
	if p.URL != anthropic.DefaultURL || p.Model != anthropic.DefaultModel || p.Version != anthropic.DefaultVersion {
		t.Errorf("Unexpected anthropic defaults: %+v", p)
	}
}

func TestInitEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OLLAMA_URL", "http://gpu-box:11434")
	t.Setenv("SERVER_PORT", "3000")

	if err := Init(""); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := GetProvider("ollama").URL; got != "http://gpu-box:11434" {
		t.Errorf("Expected env url, got %s", got)
	}
	if got := GetPort(); got != "3000" {
		t.Errorf("Expected port 3000, got %s", got)
	}
}

func TestInitConfigFile(t *testing.T) {
	viper.Reset()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "app:\n  name: Lens\n  author: Digital Scholarship\nopenai:\n  model: gpt-4o-mini\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if err := Init(path); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	app := GetApp("1.2.3")
	if app.Name != "Lens" || app.Author != "Digital Scholarship" || app.Version != "1.2.3" {
		t.Errorf("Unexpected app: %+v", app)
	}
	if got := GetProvider("openai").Model; got != "gpt-4o-mini" {
		t.Errorf("Expected gpt-4o-mini, got %s", got)
	}
}

func TestInitMissingExplicitFile(t *testing.T) {
	viper.Reset()
	if err := Init(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for a missing explicit config file")
	}
}
