package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
)

const (
	DefaultModel      = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens  = 4096
	DefaultMaxRetries = 2
)

var (
	// ErrNoAPIKey means report generation was requested without credentials.
	ErrNoAPIKey = errors.New("API key not configured")

	// ErrEmptyResponse means the model answered without any text.
	ErrEmptyResponse = errors.New("model returned no text")
)

// Generator turns a Summary into report prose.
type Generator interface {
	Generate(ctx context.Context, s types.Summary) (string, error)
}

// Usage is the token accounting of one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// AnthropicConfig configures the Anthropic generator.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64

	// BaseURL overrides the API endpoint. Empty means the SDK default.
	BaseURL string

	// MaxRetries bounds retries of transient failures. Zero means
	// DefaultMaxRetries; negative disables retries.
	MaxRetries int

	Logger *slog.Logger
}

// Anthropic generates reports with the Anthropic Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    *slog.Logger
	lastUsage Usage
}

// NewAnthropic creates the generator. It fails with ErrNoAPIKey when no key
// is configured so the CLI can tell the user before reading any file.
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	retries := cfg.MaxRetries
	switch {
	case retries == 0:
		retries = DefaultMaxRetries
	case retries < 0:
		retries = 0
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(retries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    cfg.Logger,
	}, nil
}

// Generate writes the report for s. An empty summary returns NoDataMessage
// without calling the API.
func (a *Anthropic) Generate(ctx context.Context, s types.Summary) (string, error) {
	if s.TotalRecords == 0 {
		return NoDataMessage, nil
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(s))),
		},
	})
	if err != nil {
		a.logger.Error("report generation failed", slog.String("model", a.model), slog.Any("error", err))
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	a.lastUsage = Usage{
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}

	for _, block := range message.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			a.logger.Info("report generated",
				slog.String("model", a.model),
				slog.Int("size", len(block.Text)),
				slog.Int64("tokens_in", a.lastUsage.InputTokens),
				slog.Int64("tokens_out", a.lastUsage.OutputTokens),
			)
			return block.Text, nil
		}
	}
	return "", ErrEmptyResponse
}

// LastUsage returns the token usage of the most recent successful call.
func (a *Anthropic) LastUsage() Usage {
	return a.lastUsage
}
