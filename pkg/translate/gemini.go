package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const (
	// DefaultGeminiModel is the model used when none is configured.
	DefaultGeminiModel = "gemini-2.5-flash"
)

// GeminiClient implements the Completer interface using the Google Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	logger  *logrus.Logger
	metrics *MetricsCollector
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   cfg.Model,
		logger:  cfg.Logger,
		metrics: NewMetricsCollector(EngineGemini),
	}, nil
}

// Name returns the engine and model identifier.
func (c *GeminiClient) Name() string {
	return "gemini:" + c.model
}

// Complete sends the prompt as a single-turn GenerateContent call.
func (c *GeminiClient) Complete(ctx context.Context, p Prompt) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"model":       c.model,
		"prompt_len":  len(p.User),
		"temperature": p.Temperature,
		"json":        p.JSON,
	}).Debug("Requesting completion from Gemini")

	gc := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser),
		Temperature:       genai.Ptr(float32(p.Temperature)),
	}
	if p.JSON {
		gc.ResponseMIMEType = "application/json"
	}

	startTime := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(p.User), gc)
	duration := time.Since(startTime)
	if err != nil {
		c.metrics.RecordCompletion(duration, false, len(p.User), 0)
		c.logger.WithError(err).WithFields(logrus.Fields{
			"duration_ms": duration.Milliseconds(),
		}).Error("Gemini completion request failed")
		return "", fmt.Errorf("gemini completion: %w", err)
	}

	content := resp.Text()
	if strings.TrimSpace(content) == "" {
		c.metrics.RecordCompletion(duration, false, len(p.User), 0)
		c.logger.WithFields(logrus.Fields{
			"candidates":  len(resp.Candidates),
			"duration_ms": duration.Milliseconds(),
		}).Error("Gemini returned an empty completion")
		return "", ErrEmptyCompletion
	}

	c.metrics.RecordCompletion(duration, true, len(p.User), len(content))
	c.logger.WithFields(logrus.Fields{
		"model":        c.model,
		"duration_ms":  duration.Milliseconds(),
		"response_len": len(content),
	}).Info("Completion received")

	return content, nil
}

// CheckHealth verifies that the configured model can be described.
func (c *GeminiClient) CheckHealth(ctx context.Context) error {
	c.logger.Debug("Checking Gemini health")

	if _, err := c.client.Models.Get(ctx, c.model, nil); err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"model": c.model,
		}).Error("Gemini health check failed")
		return fmt.Errorf("health check failed: %w", err)
	}

	c.logger.Debug("Gemini health check passed")
	return nil
}
