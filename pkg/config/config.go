// Package config loads the localization plugin options and the host
// application settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dasmlab/ailocalize/pkg/cms"
)

const (
	// DefaultModel is the completion model used when none is configured.
	DefaultModel = "gpt-4.1-nano"
	// DefaultGeminiModel is the Gemini model used when none is configured.
	DefaultGeminiModel = "gemini-2.5-flash"
	// DefaultEngine is the completion backend used when none is configured.
	DefaultEngine = "openai"
)

// ResponseFormat selects how the model is asked to lay out bulk results.
type ResponseFormat string

const (
	// FormatText asks for "fieldName: content" blocks separated by blank lines.
	FormatText ResponseFormat = "text"
	// FormatJSON asks for a single JSON object keyed by field name.
	FormatJSON ResponseFormat = "json"
)

// Registration errors. They are fatal to startup.
var (
	ErrNoCollections  = errors.New("AI Localization plugin requires at least one collection to be configured.")
	ErrNoAPIKey       = errors.New("AI Localization plugin requires OpenAI API key.")
	ErrNoGeminiAPIKey = errors.New("AI Localization plugin requires Gemini API key.")
	ErrNoLocalization = errors.New("AI Localization plugin requires localization to be enabled in your config.")
	ErrUnknownFormat  = errors.New("unknown response format")
)

// CollectionOptions lists the fields to translate for one collection.
// Fields must also be declared localized in the host schema to be used.
type CollectionOptions struct {
	Fields []string `yaml:"fields"`
}

// OpenAIOptions configures the OpenAI chat-completion backend.
type OpenAIOptions struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"baseURL,omitempty"`
}

// GeminiOptions configures the Gemini backend.
type GeminiOptions struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model,omitempty"`
}

// PluginOptions is the configuration surface accepted by the plugin.
type PluginOptions struct {
	Collections    map[string]CollectionOptions `yaml:"collections"`
	Engine         string                       `yaml:"engine,omitempty"`
	OpenAI         OpenAIOptions                `yaml:"openai"`
	Gemini         GeminiOptions                `yaml:"gemini,omitempty"`
	ResponseFormat ResponseFormat               `yaml:"responseFormat,omitempty"`
}

// File is the on-disk configuration layout.
type File struct {
	Plugin PluginOptions `yaml:"plugin"`
	Host   cms.Config    `yaml:"host"`
}

// Model returns the configured model for the selected engine, or its default.
func (o PluginOptions) Model() string {
	if o.EngineName() == "gemini" {
		if o.Gemini.Model != "" {
			return o.Gemini.Model
		}
		return DefaultGeminiModel
	}
	if o.OpenAI.Model != "" {
		return o.OpenAI.Model
	}
	return DefaultModel
}

// EngineName returns the lower-cased engine name, defaulting to openai.
func (o PluginOptions) EngineName() string {
	if o.Engine == "" {
		return DefaultEngine
	}
	return strings.ToLower(o.Engine)
}

// Format returns the response format, defaulting to FormatText.
func (o PluginOptions) Format() ResponseFormat {
	if o.ResponseFormat == "" {
		return FormatText
	}
	return o.ResponseFormat
}

// Fields returns the configured fields of a collection.
func (o PluginOptions) Fields(collection string) ([]string, bool) {
	c, ok := o.Collections[collection]
	if !ok {
		return nil, false
	}
	return c.Fields, true
}

// Validate checks the options on their own. Host-dependent checks live in
// the plugin package.
func (o PluginOptions) Validate() error {
	if len(o.Collections) == 0 {
		return ErrNoCollections
	}
	switch o.EngineName() {
	case "gemini":
		if o.Gemini.APIKey == "" {
			return ErrNoGeminiAPIKey
		}
	default:
		if o.OpenAI.APIKey == "" {
			return ErrNoAPIKey
		}
	}
	switch o.Format() {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, o.ResponseFormat)
	}
	return nil
}

// Load reads a YAML configuration file and applies environment overrides.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies environment overrides.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	f.applyEnv()
	return &f, nil
}

func (f *File) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		f.Plugin.OpenAI.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		f.Plugin.Gemini.APIKey = v
	}
	if v := os.Getenv("AI_LOCALIZATION_MODEL"); v != "" {
		if f.Plugin.EngineName() == "gemini" {
			f.Plugin.Gemini.Model = v
		} else {
			f.Plugin.OpenAI.Model = v
		}
	}
}
