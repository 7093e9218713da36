package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	OCR        OCRConfig        `yaml:"ocr"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Batch      BatchConfig      `yaml:"batch"`
	Store      StoreConfig      `yaml:"store"`
	Server     ServerConfig     `yaml:"server"`
}

// LLMConfig holds extraction-service configuration
type LLMConfig struct {
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseURL"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"maxTokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// OCRConfig holds the external tool locations and rasterization parameters
type OCRConfig struct {
	Pdftotext     string  `yaml:"pdftotext"`
	Pdftoppm      string  `yaml:"pdftoppm"`
	Tesseract     string  `yaml:"tesseract"`
	TesseractLang string  `yaml:"lang"`
	TessdataDir   string  `yaml:"tessdataDir"`
	Scale         float64 `yaml:"scale"`
	PSMModes      []int   `yaml:"psmModes"`
	MaxPages      int     `yaml:"maxPages"`
}

// NormalizerConfig holds field-normalizer configuration
type NormalizerConfig struct {
	MinTextChars int `yaml:"minTextChars"`
}

// BatchConfig holds batch-driver configuration
type BatchConfig struct {
	Workers    int           `yaml:"workers"`
	DocTimeout time.Duration `yaml:"docTimeout"`
	MaxFileMB  int           `yaml:"maxFileMB"`
	OutputDir  string        `yaml:"outputDir"`
	SkipHidden bool          `yaml:"skipHidden"`
}

// StoreConfig selects the optional batch-history store. Empty Driver disables it.
type StoreConfig struct {
	Driver          string        `yaml:"driver"` // "", "sqlite", "postgres"
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"maxConns"`
	MinConns        int32         `yaml:"minConns"`
	MaxConnLifetime time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime time.Duration `yaml:"maxConnIdleTime"`
	DialTimeout     time.Duration `yaml:"dialTimeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpcAddr"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-3.5-turbo",
			Temperature: 0.1,
			MaxTokens:   2000,
			Timeout:     45 * time.Second,
		},
		OCR: OCRConfig{
			Pdftotext:     "pdftotext",
			Pdftoppm:      "pdftoppm",
			Tesseract:     "tesseract",
			TesseractLang: "eng",
			Scale:         2.0,
			PSMModes:      []int{6, 3, 4},
		},
		Normalizer: NormalizerConfig{
			MinTextChars: 50,
		},
		Batch: BatchConfig{
			Workers:    1,
			DocTimeout: 3 * time.Minute,
			MaxFileMB:  10,
			SkipHidden: true,
		},
		Store: StoreConfig{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr: ":8080",
		},
	}
}

// LoadConfig loads configuration from environment variables on top of the defaults.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg
}

// Load reads the optional YAML file at path, then lets environment variables override it.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.LLM.Temperature)
	c.LLM.MaxTokens = getEnvAsInt("OPENAI_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.LLM.Timeout)

	c.OCR.Pdftotext = getEnv("PDFTOTEXT_BIN", c.OCR.Pdftotext)
	c.OCR.Pdftoppm = getEnv("PDFTOPPM_BIN", c.OCR.Pdftoppm)
	c.OCR.Tesseract = getEnv("TESSERACT_BIN", c.OCR.Tesseract)
	c.OCR.TesseractLang = getEnv("TESSERACT_LANG", c.OCR.TesseractLang)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.Scale = getEnvAsFloat64("OCR_SCALE", c.OCR.Scale)
	c.OCR.PSMModes = getEnvAsInts("OCR_PSM_MODES", c.OCR.PSMModes)
	c.OCR.MaxPages = getEnvAsInt("OCR_MAX_PAGES", c.OCR.MaxPages)

	c.Normalizer.MinTextChars = getEnvAsInt("MIN_TEXT_CHARS", c.Normalizer.MinTextChars)

	c.Batch.Workers = getEnvAsInt("BATCH_WORKERS", c.Batch.Workers)
	c.Batch.DocTimeout = getEnvAsDuration("DOC_TIMEOUT", c.Batch.DocTimeout)
	c.Batch.MaxFileMB = getEnvAsInt("MAX_FILE_MB", c.Batch.MaxFileMB)
	c.Batch.OutputDir = getEnv("OUTPUT_DIR", c.Batch.OutputDir)

	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.DSN = getEnv("STORE_DSN", c.Store.DSN)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInts(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks what every binary needs. Callers that talk to the extraction
// service should also call ValidateLLM.
func (c *Config) Validate() error {
	if c.Normalizer.MinTextChars < 0 {
		return NewAppError("CONFIG_ERROR", "MIN_TEXT_CHARS must not be negative", ErrInvalidInput)
	}
	if c.OCR.Scale < 2.0 {
		return NewAppError("CONFIG_ERROR", "OCR_SCALE must be at least 2.0", ErrInvalidInput)
	}
	if len(c.OCR.PSMModes) == 0 {
		return NewAppError("CONFIG_ERROR", "OCR_PSM_MODES must list at least one mode", ErrInvalidInput)
	}
	switch c.Store.Driver {
	case "":
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return NewAppError("CONFIG_ERROR", "STORE_DSN is required when STORE_DRIVER is set", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unsupported STORE_DRIVER %q", c.Store.Driver), ErrInvalidInput)
	}
	return nil
}

// ValidateLLM requires the API credential.
func (c *Config) ValidateLLM() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	return nil
}
