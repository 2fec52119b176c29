package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultOpenAIModel is the model used when none is configured.
	DefaultOpenAIModel = "gpt-4.1-nano"
)

// OpenAIClient implements the Completer interface using the OpenAI
// chat-completions API.
type OpenAIClient struct {
	client  openai.Client
	model   string
	logger  *logrus.Logger
	metrics *MetricsCollector
}

// NewOpenAIClient creates a new OpenAI client. The SDK's automatic retries
// are disabled: a failed call surfaces immediately.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		logger:  cfg.Logger,
		metrics: NewMetricsCollector(EngineOpenAI),
	}, nil
}

// Name returns the engine and model identifier.
func (c *OpenAIClient) Name() string {
	return "openai:" + c.model
}

// Complete sends a system and a user message and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, p Prompt) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"model":       c.model,
		"prompt_len":  len(p.User),
		"temperature": p.Temperature,
		"json":        p.JSON,
	}).Debug("Requesting completion from OpenAI")

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.System),
			openai.UserMessage(p.User),
		},
		Temperature: openai.Float(p.Temperature),
	}
	if p.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	startTime := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params)
	duration := time.Since(startTime)
	if err != nil {
		c.metrics.RecordCompletion(duration, false, len(p.User), 0)
		fields := logrus.Fields{"duration_ms": duration.Milliseconds()}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			fields["status_code"] = apiErr.StatusCode
		}
		c.logger.WithError(err).WithFields(fields).Error("OpenAI completion request failed")
		return "", fmt.Errorf("openai completion: %w", err)
	}

	var content string
	if len(completion.Choices) > 0 {
		content = completion.Choices[0].Message.Content
	}
	if strings.TrimSpace(content) == "" {
		c.metrics.RecordCompletion(duration, false, len(p.User), 0)
		c.logger.WithFields(logrus.Fields{
			"choices":     len(completion.Choices),
			"duration_ms": duration.Milliseconds(),
		}).Error("OpenAI returned an empty completion")
		return "", ErrEmptyCompletion
	}

	c.metrics.RecordCompletion(duration, true, len(p.User), len(content))
	c.logger.WithFields(logrus.Fields{
		"model":        c.model,
		"duration_ms":  duration.Milliseconds(),
		"response_len": len(content),
		"total_tokens": completion.Usage.TotalTokens,
	}).Info("Completion received")

	return content, nil
}

// CheckHealth verifies that the configured model is visible to the API key.
func (c *OpenAIClient) CheckHealth(ctx context.Context) error {
	c.logger.Debug("Checking OpenAI health")

	if _, err := c.client.Models.Get(ctx, c.model); err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"model": c.model,
		}).Error("OpenAI health check failed")
		return fmt.Errorf("health check failed: %w", err)
	}

	c.logger.Debug("OpenAI health check passed")
	return nil
}
