package translate

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	blockSeparator = "\n\n"
	nameSeparator  = ": "
)

var markdownCodeBlock = regexp.MustCompile("(?s)^```(?:json)?\\s*\\n(.*?)\\n?```$")

// ParseResult holds the fields recovered from a bulk completion.
type ParseResult struct {
	// Values maps each recovered field (named as it was sent) to its value.
	Values map[string]any
	// Dropped counts blocks that could not be attributed to a sent field.
	Dropped int
}

// ParseBulk splits a bulk completion back into per-field values.
//
// Blocks are separated by a blank line and split at the first ": " into a
// field name and a value. Names are matched case-insensitively against the
// fields that were sent; blocks naming anything else, or lacking the
// separator, are dropped. Field content containing a blank line or ": "
// cannot be told apart from the layout and will be mis-split.
//
// With structured set, the completion is first read as a JSON object keyed
// by field name; if it is not one, block parsing is used instead. Only
// string, object and array members are kept from the object.
func ParseBulk(text string, sent []string, structured bool) ParseResult {
	canonical := make(map[string]string, len(sent))
	for _, name := range sent {
		canonical[strings.ToLower(name)] = name
	}

	if structured {
		if res, ok := parseObject(text, canonical); ok {
			return res
		}
		parseFallbacks.Inc()
	}

	res := ParseResult{Values: make(map[string]any)}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	for _, block := range strings.Split(text, blockSeparator) {
		if strings.TrimSpace(block) == "" {
			continue
		}

		idx := strings.Index(block, nameSeparator)
		if idx <= 0 {
			res.Dropped++
			recordDropped(dropNoSeparator)
			continue
		}

		name, ok := canonical[strings.ToLower(strings.TrimSpace(block[:idx]))]
		if !ok {
			res.Dropped++
			recordDropped(dropUnknownField)
			continue
		}

		res.Values[name] = ParseValue(block[idx+len(nameSeparator):])
	}

	return res
}

// ParseValue interprets a translated value. JSON objects, arrays and string
// literals are decoded; anything else is kept as trimmed plain text.
func ParseValue(text string) any {
	text = strings.TrimSpace(text)
	if !gjson.Valid(text) {
		return text
	}

	switch gjson.Parse(text).Type {
	case gjson.JSON, gjson.String:
	default:
		// Numbers, booleans and null stay text so a translated "2024" remains a string.
		return text
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	return v
}

func parseObject(text string, canonical map[string]string) (ParseResult, bool) {
	text = strings.TrimSpace(text)
	if m := markdownCodeBlock.FindStringSubmatch(text); len(m) > 1 {
		text = strings.TrimSpace(m[1])
	}
	if !gjson.Valid(text) || !gjson.Parse(text).IsObject() {
		return ParseResult{}, false
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return ParseResult{}, false
	}

	res := ParseResult{Values: make(map[string]any, len(obj))}
	for key, value := range obj {
		name, ok := canonical[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			res.Dropped++
			recordDropped(dropUnknownField)
			continue
		}
		switch v := value.(type) {
		case string:
			// Rich text may come back JSON-encoded inside a string.
			res.Values[name] = ParseValue(v)
		case map[string]any, []any:
			res.Values[name] = v
		default:
			// null would delete the stored value; numbers and booleans are
			// not translations.
			res.Dropped++
			recordDropped(dropUnsupported)
		}
	}
	return res, true
}
