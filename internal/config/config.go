package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/image-analyzer/internal/anthropic"
	"github.com/lehigh-university-libraries/image-analyzer/internal/gemini"
	"github.com/lehigh-university-libraries/image-analyzer/internal/ollama"
	"github.com/lehigh-university-libraries/image-analyzer/internal/openai"
	"github.com/spf13/viper"
)

// Init wires viper to an optional config file and the environment.
// An explicit cfgFile that cannot be read is an error; a missing default file is not.
func Init(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "image-analyzer"))
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// SetDefaults registers every key with its default value
func SetDefaults() {
	viper.SetDefault("app.name", "Image Analyzer")
	viper.SetDefault("app.description", "Structured image analysis with vision models")
	viper.SetDefault("app.author", "")
	viper.SetDefault("server.port", "8888")
	viper.SetDefault("http.timeout", 60*time.Second)
	viper.SetDefault("upload.max_bytes", 10*1024*1024)
	viper.SetDefault("credentials.file", ".image-analyzer-keys.yaml")
	viper.SetDefault("anthropic.url", anthropic.DefaultURL)
	viper.SetDefault("anthropic.model", anthropic.DefaultModel)
	viper.SetDefault("anthropic.version", anthropic.DefaultVersion)
	viper.SetDefault("openai.url", openai.DefaultURL)
	viper.SetDefault("openai.model", openai.DefaultModel)
	viper.SetDefault("ollama.url", ollama.DefaultURL)
	viper.SetDefault("ollama.model", ollama.DefaultModel)
	viper.SetDefault("gemini.model", gemini.DefaultModel)
}

// App describes the application for the presentation layer
type App struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Author      string `json:"author"`
}

func GetApp(version string) App {
	return App{
		Name:        viper.GetString("app.name"),
		Version:     version,
		Description: viper.GetString("app.description"),
		Author:      viper.GetString("app.author"),
	}
}

func GetPort() string {
	return viper.GetString("server.port")
}

func GetHTTPTimeout() time.Duration {
	return viper.GetDuration("http.timeout")
}

func GetUploadLimit() int64 {
	return viper.GetInt64("upload.max_bytes")
}

func GetCredentialsFile() string {
	return viper.GetString("credentials.file")
}

// Provider holds the connection settings for one provider
type Provider struct {
	URL     string
	Model   string
	Version string
}

func GetProvider(name string) Provider {
	return Provider{
		URL:     viper.GetString(name + ".url"),
		Model:   viper.GetString(name + ".model"),
		Version: viper.GetString(name + ".version"),
	}
}
