package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dasmlab/ailocalize/pkg/cms"
	"github.com/dasmlab/ailocalize/pkg/translate"
)

// SelectFields returns the configured field names that the collection
// schema declares localized, in configured order.
func SelectFields(collection cms.Collection, configured []string) []string {
	selected := make([]string, 0, len(configured))
	for _, name := range configured {
		if f, ok := collection.Field(name); ok && f.Localized {
			selected = append(selected, name)
		}
	}
	return selected
}

// ExtractContent reads the selected fields from doc. Strings pass through,
// objects and arrays are serialised to JSON (map keys sorted), and absent,
// empty or scalar non-string values are skipped.
func ExtractContent(doc cms.Document, fields []string) ([]translate.FieldContent, error) {
	contents := make([]translate.FieldContent, 0, len(fields))
	for _, name := range fields {
		value, ok := doc[name]
		if !ok || isEmpty(value) {
			continue
		}
		text, ok, err := serialise(value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		if ok {
			contents = append(contents, translate.FieldContent{Name: name, Content: text})
		}
	}
	return contents, nil
}

// serialise renders a stored value as prompt text. ok is false for values
// that are neither strings nor structured.
func serialise(value any) (text string, ok bool, err error) {
	switch v := value.(type) {
	case string:
		return v, true, nil
	case map[string]any, []any:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return "", false, fmt.Errorf("encode structured value: %w", err)
		}
		return strings.TrimSuffix(buf.String(), "\n"), true, nil
	default:
		return "", false, nil
	}
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
