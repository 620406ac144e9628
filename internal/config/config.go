/**
 * Configuration for docextract
 *
 * Values come from (in increasing precedence) built-in defaults, an optional
 * docextract.yaml, a .env file and the process environment. The result is
 * read once at start-up and never mutated afterwards.
 */

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds docextract configuration
type Config struct {
	// Engine selection
	Engines   []string `mapstructure:"engines"`
	Languages []string `mapstructure:"languages"`

	// Filesystem
	OutputDir   string `mapstructure:"default_output_dir"`
	TempDir     string `mapstructure:"temp_dir"`
	MaxFileSize int64  `mapstructure:"max_file_size"`

	// PDF rasterization
	PDFDPI int `mapstructure:"pdf_dpi"`

	// Tesseract configuration
	TessdataPrefix string `mapstructure:"tessdata_prefix"`

	// Local vision LLM
	OllamaBaseURL      string `mapstructure:"ollama_base_url"`
	OllamaDefaultModel string `mapstructure:"ollama_default_model"`
	OllamaNERModel     string `mapstructure:"ollama_ner_model"`

	// Hosted vision LLM
	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIModel   string `mapstructure:"openai_model"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`

	// Recognition and tagging sidecars
	EasyOCRURL   string `mapstructure:"easyocr_url"`
	PaddleOCRURL string `mapstructure:"paddleocr_url"`
	SuryaURL     string `mapstructure:"surya_url"`
	TaggerURL    string `mapstructure:"tagger_url"`

	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Recognition result cache, disabled when RedisURL is empty
	RedisURL string        `mapstructure:"redis_url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// HTTP API
	APIHost string `mapstructure:"api_host"`
	APIPort int    `mapstructure:"api_port"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// LoadConfig loads configuration from .env, docextract.yaml and the environment
func LoadConfig() (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("docextract")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/docextract")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Engines = splitList(cfg.Engines)
	cfg.Languages = splitList(cfg.Languages)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engines", []string{"tesseract"})
	v.SetDefault("languages", []string{"en"})
	v.SetDefault("default_output_dir", "./output")
	v.SetDefault("temp_dir", "/tmp/ocr_processor")
	v.SetDefault("max_file_size", int64(104857600)) // 100MB
	v.SetDefault("pdf_dpi", 200)
	v.SetDefault("tessdata_prefix", "")
	v.SetDefault("ollama_base_url", "http://localhost:11434")
	v.SetDefault("ollama_default_model", "llava")
	v.SetDefault("ollama_ner_model", "llama3.2")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("easyocr_url", "http://localhost:8101")
	v.SetDefault("paddleocr_url", "http://localhost:8102")
	v.SetDefault("surya_url", "http://localhost:8103")
	v.SetDefault("tagger_url", "http://localhost:8104")
	v.SetDefault("request_timeout", "120s")
	v.SetDefault("redis_url", "")
	v.SetDefault("cache_ttl", "24h")
	v.SetDefault("api_host", "0.0.0.0")
	v.SetDefault("api_port", 8000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if len(c.Engines) == 0 {
		return fmt.Errorf("ENGINES must name at least one engine")
	}

	seen := make(map[string]bool, len(c.Engines))
	for _, raw := range c.Engines {
		spec, err := ParseEngineSpec(raw)
		if err != nil {
			return err
		}
		if seen[spec.ID] {
			return fmt.Errorf("engine %q is configured twice", spec.ID)
		}
		seen[spec.ID] = true

		if spec.Name == EngineOpenAI && c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the %s engine", spec.ID)
		}
	}

	if c.PDFDPI < 36 || c.PDFDPI > 600 {
		return fmt.Errorf("PDF_DPI must be between 36 and 600, got %d", c.PDFDPI)
	}

	if c.MaxFileSize < 1024 || c.MaxFileSize > 10737418240 { // 1KB to 10GB
		return fmt.Errorf("MAX_FILE_SIZE must be between 1KB and 10GB, got %d", c.MaxFileSize)
	}

	if c.APIPort < 1 || c.APIPort > 65535 {
		return fmt.Errorf("API_PORT must be between 1 and 65535, got %d", c.APIPort)
	}

	if c.OutputDir == "" {
		return fmt.Errorf("DEFAULT_OUTPUT_DIR is required")
	}

	return nil
}

// Address is the listen address of the HTTP API.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

// splitList accepts both list values and a single comma separated string.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
