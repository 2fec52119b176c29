package translate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParseBulk(t *testing.T) {
	tests := []struct {
		name        string
		completion  string
		sent        []string
		want        map[string]any
		wantDropped int
	}{
		{
			name:       "single plain field",
			completion: "title: Hallo",
			sent:       []string{"title"},
			want:       map[string]any{"title": "Hallo"},
		},
		{
			name:       "multiple blocks",
			completion: "title: Hallo Welt\n\nexcerpt: Eine kurze Zusammenfassung",
			sent:       []string{"title", "excerpt"},
			want: map[string]any{
				"title":   "Hallo Welt",
				"excerpt": "Eine kurze Zusammenfassung",
			},
		},
		{
			name:       "rich text is decoded",
			completion: `content: {"root":{"children":[{"text":"Hallo","type":"text"}],"type":"root"}}`,
			sent:       []string{"content"},
			want: map[string]any{
				"content": map[string]any{
					"root": map[string]any{
						"type":     "root",
						"children": []any{map[string]any{"text": "Hallo", "type": "text"}},
					},
				},
			},
		},
		{
			name:       "field names match case-insensitively",
			completion: "Title: Hallo\n\nEXCERPT: Kurz",
			sent:       []string{"title", "excerpt"},
			want:       map[string]any{"title": "Hallo", "excerpt": "Kurz"},
		},
		{
			name:        "unknown field is dropped",
			completion:  "title: Hallo\n\nauthor: Jemand",
			sent:        []string{"title"},
			want:        map[string]any{"title": "Hallo"},
			wantDropped: 1,
		},
		{
			name:        "block without separator is dropped",
			completion:  "Here is your translation\n\ntitle: Hallo",
			sent:        []string{"title"},
			want:        map[string]any{"title": "Hallo"},
			wantDropped: 1,
		},
		{
			name:        "separator at start is dropped",
			completion:  ": Hallo",
			sent:        []string{"title"},
			want:        map[string]any{},
			wantDropped: 1,
		},
		{
			name:       "only one of two fields returned",
			completion: "title: Hallo",
			sent:       []string{"title", "excerpt"},
			want:       map[string]any{"title": "Hallo"},
		},
		{
			name:       "crlf line endings",
			completion: "title: Hallo\r\n\r\nexcerpt: Kurz\r\n",
			sent:       []string{"title", "excerpt"},
			want:       map[string]any{"title": "Hallo", "excerpt": "Kurz"},
		},
		{
			name:       "value keeps later separators",
			completion: "title: Hinweis: bitte lesen",
			sent:       []string{"title"},
			want:       map[string]any{"title": "Hinweis: bitte lesen"},
		},
		{
			name:       "numeric text stays a string",
			completion: "title: 2024",
			sent:       []string{"title"},
			want:       map[string]any{"title": "2024"},
		},
		{
			name:       "empty completion",
			completion: "",
			sent:       []string{"title"},
			want:       map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseBulk(tt.completion, tt.sent, false)
			if diff := cmp.Diff(tt.want, got.Values); diff != "" {
				t.Errorf("ParseBulk() values mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.wantDropped, got.Dropped)
		})
	}
}

// A blank line inside field content desynchronises the block layout.
func TestParseBulk_EmbeddedBlankLineIsMisSplit(t *testing.T) {
	got := ParseBulk("excerpt: first paragraph\n\nsecond paragraph", []string{"excerpt"}, false)

	assert.Equal(t, map[string]any{"excerpt": "first paragraph"}, got.Values)
	assert.Equal(t, 1, got.Dropped)
}

func TestParseBulk_Structured(t *testing.T) {
	sent := []string{"title", "content"}

	t.Run("json object", func(t *testing.T) {
		got := ParseBulk(`{"title":"Hallo","content":{"root":{"type":"root"}},"extra":"x"}`, sent, true)
		assert.Equal(t, map[string]any{
			"title":   "Hallo",
			"content": map[string]any{"root": map[string]any{"type": "root"}},
		}, got.Values)
		assert.Equal(t, 1, got.Dropped)
	})

	t.Run("fenced json with encoded rich text", func(t *testing.T) {
		completion := "```json\n{\"Title\": \"Hallo\", \"content\": \"{\\\"root\\\":{\\\"type\\\":\\\"root\\\"}}\"}\n```"
		got := ParseBulk(completion, sent, true)
		assert.Equal(t, map[string]any{
			"title":   "Hallo",
			"content": map[string]any{"root": map[string]any{"type": "root"}},
		}, got.Values)
	})

	t.Run("non-text members dropped", func(t *testing.T) {
		tests := []struct {
			name       string
			completion string
		}{
			{name: "null", completion: `{"title":null,"content":"Inhalt"}`},
			{name: "number", completion: `{"title":2024,"content":"Inhalt"}`},
			{name: "boolean", completion: `{"title":true,"content":"Inhalt"}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got := ParseBulk(tt.completion, sent, true)
				assert.Equal(t, map[string]any{"content": "Inhalt"}, got.Values)
				assert.Equal(t, 1, got.Dropped)
			})
		}
	})

	t.Run("falls back to blocks", func(t *testing.T) {
		got := ParseBulk("title: Hallo", sent, true)
		assert.Equal(t, map[string]any{"title": "Hallo"}, got.Values)
	})
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{name: "plain text", in: "Hallo Welt", want: "Hallo Welt"},
		{name: "trimmed", in: "  Hallo \n", want: "Hallo"},
		{name: "object", in: `{"a":"b"}`, want: map[string]any{"a": "b"}},
		{name: "array", in: `["a","b"]`, want: []any{"a", "b"}},
		{name: "string literal", in: `"Hallo"`, want: "Hallo"},
		{name: "number stays text", in: "42", want: "42"},
		{name: "bool stays text", in: "true", want: "true"},
		{name: "broken json", in: `{"a":`, want: `{"a":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseValue(tt.in))
		})
	}
}
