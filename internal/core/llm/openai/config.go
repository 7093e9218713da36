package openai

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

// Config for the OpenAI client.
type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // default gpt-3.5-turbo
	Temperature float32       // 0..2
	MaxTokens   int           // default 2000
	Timeout     time.Duration // http client timeout
	JSONMode    bool          // request response_format json_object
}

// ConfigFrom maps the application LLM section.
func ConfigFrom(c common.LLMConfig) Config {
	return Config{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Timeout:     c.Timeout,
		JSONMode:    true,
	}
}

// ChatClient mirrors the subset we need from the OpenAI client for testability.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

type Client struct {
	cfg    Config
	chat   ChatClient
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = goopenai.GPT3Dot5Turbo
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	transport := goopenai.DefaultConfig(cfg.APIKey)
	transport.BaseURL = cfg.BaseURL
	transport.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return NewWithChatClient(cfg, goopenai.NewClientWithConfig(transport), logger)
}

// NewWithChatClient wires an existing chat client, e.g. a fake in tests.
func NewWithChatClient(cfg Config, chat ChatClient, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = goopenai.GPT3Dot5Turbo
	}
	return &Client{cfg: cfg, chat: chat, logger: logger}
}
