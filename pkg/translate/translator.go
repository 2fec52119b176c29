package translate

import (
	"context"
	"errors"
)

// DefaultTemperature biases the model toward literal, low-variance output.
const DefaultTemperature = 0.3

// ErrEmptyCompletion is returned when the backend answers without content.
var ErrEmptyCompletion = errors.New("translation failed - no content returned")

// Prompt is one chat-completion exchange: a system instruction and a user
// message, answered in a single round trip.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	// JSON asks the backend to constrain its output to a JSON object.
	JSON bool
}

// Completer defines the interface for chat-completion backends.
// This abstraction allows switching between LLM providers (OpenAI, Gemini)
// without changing the translation flows.
type Completer interface {
	// Complete sends the prompt and returns the completion text.
	// Implementations do not retry; an empty answer yields ErrEmptyCompletion.
	Complete(ctx context.Context, p Prompt) (string, error)

	// CheckHealth verifies that the backend is reachable and the model exists.
	CheckHealth(ctx context.Context) error

	// Name identifies the backend and model, e.g. "openai:gpt-4.1-nano".
	Name() string
}
