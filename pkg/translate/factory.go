package translate

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// EngineType represents the completion backend to use.
type EngineType string

const (
	// EngineOpenAI uses the OpenAI chat-completions API.
	EngineOpenAI EngineType = "openai"
	// EngineGemini uses the Google Gemini API.
	EngineGemini EngineType = "gemini"
)

// Config holds configuration for creating a Completer instance.
type Config struct {
	// Engine specifies which completion backend to use.
	Engine EngineType
	// APIKey authenticates against the backend.
	APIKey string
	// Model is the backend model identifier.
	Model string
	// BaseURL overrides the backend endpoint (OpenAI-compatible proxies, tests).
	BaseURL string
	// HTTPClient overrides the HTTP client used by the backend SDK.
	HTTPClient *http.Client
	// Logger is the logger instance to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// NewCompleter creates a Completer for the configured engine.
func NewCompleter(ctx context.Context, cfg Config) (Completer, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	cfg.Logger.WithFields(logrus.Fields{
		"engine":   cfg.Engine,
		"model":    cfg.Model,
		"base_url": cfg.BaseURL,
	}).Info("Creating completion client")

	switch cfg.Engine {
	case EngineOpenAI:
		return NewOpenAIClient(cfg)
	case EngineGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		cfg.Logger.WithFields(logrus.Fields{
			"engine": cfg.Engine,
		}).Error("Unknown completion engine")
		return nil, fmt.Errorf("unknown completion engine: %s", cfg.Engine)
	}
}

// ParseEngineType parses a string into an EngineType.
func ParseEngineType(s string) (EngineType, error) {
	switch strings.ToLower(s) {
	case "openai", "":
		return EngineOpenAI, nil
	case "gemini":
		return EngineGemini, nil
	default:
		return "", fmt.Errorf("unknown engine type: %s (supported: openai, gemini)", s)
	}
}
