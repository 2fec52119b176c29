package translate

import (
	"fmt"
	"strings"

	"github.com/dasmlab/ailocalize/pkg/locale"
)

const (
	// BulkSystemPrompt fixes the assistant's role for multi-field requests.
	BulkSystemPrompt = "You are a professional translator. Translate content accurately while preserving formatting and structure. Return the translated content in the same format as provided."

	// FieldSystemPrompt fixes the assistant's role for single-field requests.
	FieldSystemPrompt = "You are a professional translator. Translate content accurately while preserving formatting and structure."
)

// FieldContent is one field's source text as sent to the model. Structured
// values have already been serialised to JSON.
type FieldContent struct {
	Name    string
	Content string
}

// ComposeBulkPrompt builds the user message for a multi-field translation.
// Fields are rendered as "name: content" blocks separated by a blank line.
// With structured set, the model is asked to answer with one JSON object
// keyed by field name instead of echoing the block layout.
func ComposeBulkPrompt(sourceLocale, targetLocale string, fields []FieldContent, structured bool) Prompt {
	entries := make([]string, 0, len(fields))
	for _, f := range fields {
		entries = append(entries, f.Name+": "+f.Content)
	}

	layoutRule := `- Maintain the field name format: "fieldName: translatedContent"`
	if structured {
		layoutRule = `- Respond with a single JSON object whose keys are the field names and whose values are the translated contents (rich text values stay JSON objects)`
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following content from %s to %s.\n\n",
		locale.Name(sourceLocale), locale.Name(targetLocale))
	b.WriteString("For each field, preserve the exact format:\n")
	b.WriteString("- If content is JSON (rich text), preserve the exact JSON structure and only translate text values\n")
	b.WriteString("- If content is plain text, return only the translated text\n")
	b.WriteString(layoutRule)
	b.WriteString("\n\nContent to translate:\n")
	b.WriteString(strings.Join(entries, "\n\n"))

	return Prompt{
		System:      BulkSystemPrompt,
		User:        b.String(),
		Temperature: DefaultTemperature,
		JSON:        structured,
	}
}

// ComposeFieldPrompt builds the user message for a single-field translation.
func ComposeFieldPrompt(sourceLocale, targetLocale, content string) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following content from %s to %s.\n\n",
		locale.Name(sourceLocale), locale.Name(targetLocale))
	b.WriteString("If the content is JSON (rich text), preserve the exact JSON structure and only translate the text values within it.\n")
	b.WriteString("If the content is plain text, return only the translated text.\n\n")
	b.WriteString("Content to translate:\n")
	b.WriteString(content)

	return Prompt{
		System:      FieldSystemPrompt,
		User:        b.String(),
		Temperature: DefaultTemperature,
	}
}
