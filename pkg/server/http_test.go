package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/goleak"
	"google.golang.org/grpc/codes"

	"github.com/dasmlab/ailocalize/pkg/cms"
	"github.com/dasmlab/ailocalize/pkg/config"
	"github.com/dasmlab/ailocalize/pkg/plugin"
	"github.com/dasmlab/ailocalize/pkg/service"
	"github.com/dasmlab/ailocalize/pkg/translate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (c *stubCompleter) Complete(context.Context, translate.Prompt) (string, error) {
	c.calls++
	return c.reply, c.err
}

func (c *stubCompleter) CheckHealth(context.Context) error { return nil }

func (c *stubCompleter) Name() string { return "stub" }

type fixture struct {
	handler   http.Handler
	store     *cms.SQLiteStore
	completer *stubCompleter
}

func newFixture(t *testing.T, reply string) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	host := cms.Config{
		Localization: &cms.Localization{Locales: []string{"en", "de", "xx"}, DefaultLocale: "en"},
		Collections: []cms.Collection{{
			Slug: "posts",
			Fields: []cms.Field{
				{Name: "title", Type: "text", Localized: true},
				{Name: "excerpt", Type: "textarea", Localized: true},
				{Name: "content", Type: "richText", Localized: true},
				{Name: "publishedDate", Type: "date"},
			},
		}},
	}
	opts := config.PluginOptions{
		OpenAI:      config.OpenAIOptions{APIKey: "sk-test"},
		Collections: map[string]config.CollectionOptions{"posts": {Fields: []string{"title", "excerpt", "content"}}},
	}

	store, err := cms.NewSQLiteStore(":memory:", host.Collections, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	completer := &stubCompleter{reply: reply}
	svc := service.NewTranslationService(store, host, opts, completer, logger)

	registered, err := plugin.Apply(host, opts, PluginHandlers(svc, logger))
	require.NoError(t, err)

	return &fixture{
		handler:   NewHTTPServer(registered, store, logger, 0).Handler(),
		store:     store,
		completer: completer,
	}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestTranslateBulkEndpoint(t *testing.T) {
	f := newFixture(t, "title: Hallo Welt\n\nexcerpt: Kurz")

	created := f.do(t, http.MethodPost, "/api/posts?locale=en",
		`{"id":"p1","title":"Hello World","excerpt":"Short","publishedDate":"2024-01-01"}`)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	assert.Equal(t, "p1", gjson.Get(created.Body.String(), "doc.id").String())

	rec := f.do(t, http.MethodPost, "/api/ai-localization/translate-bulk",
		`{"docId":"p1","collection":"posts","sourceLocale":"en","targetLocale":"de"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.String()
	assert.True(t, gjson.Get(body, "success").Bool())
	assert.Equal(t, "Successfully translated 2 field(s) from English to German", gjson.Get(body, "message").String())
	assert.Equal(t, `["title","excerpt"]`, gjson.Get(body, "translatedFields").Raw)
	assert.Equal(t, "Hallo Welt", gjson.Get(body, "translatedContent.title").String())

	de := f.do(t, http.MethodGet, "/api/posts/p1?locale=de", "")
	require.Equal(t, http.StatusOK, de.Code)
	assert.Equal(t, "Hallo Welt", gjson.Get(de.Body.String(), "doc.title").String())
	assert.Equal(t, "2024-01-01", gjson.Get(de.Body.String(), "doc.publishedDate").String())

	en := f.do(t, http.MethodGet, "/api/posts/p1", "")
	assert.Equal(t, "Hello World", gjson.Get(en.Body.String(), "doc.title").String())
}

func TestTranslateBulkEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "malformed body",
			body:     `{"docId":`,
			wantCode: http.StatusBadRequest,
			wantErr:  "Invalid request data",
		},
		{
			name:     "missing member",
			body:     `{"collection":"posts","sourceLocale":"en","targetLocale":"de"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "Invalid request data",
		},
		{
			name:     "collection not configured",
			body:     `{"docId":"p1","collection":"media","sourceLocale":"en","targetLocale":"de"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "Collection 'media' not configured for translation",
		},
		{
			name:     "document missing",
			body:     `{"docId":"nope","collection":"posts","sourceLocale":"en","targetLocale":"de"}`,
			wantCode: http.StatusNotFound,
			wantErr:  "Document not found",
		},
		{
			name:     "empty completion",
			body:     `{"docId":"p1","collection":"posts","sourceLocale":"en","targetLocale":"de"}`,
			err:      translate.ErrEmptyCompletion,
			wantCode: http.StatusInternalServerError,
			wantErr:  "Translation failed - no content returned",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "")
			f.completer.err = tt.err
			_, err := f.store.Create(context.Background(), "posts", "en", map[string]any{"id": "p1", "title": "Hello"})
			require.NoError(t, err)

			rec := f.do(t, http.MethodPost, "/api/ai-localization/translate-bulk", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantErr, gjson.Get(rec.Body.String(), "error").String())

			de, err := f.store.FindByID(context.Background(), "posts", "p1", "de")
			require.NoError(t, err)
			assert.NotContains(t, de, "title")
		})
	}
}

func TestTranslateBulkEndpoint_ValidationDetails(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodPost, "/api/ai-localization/translate-bulk", `{"collection":"posts"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	var fields []string
	for _, d := range body.Details {
		fields = append(fields, d.Field)
	}
	assert.Equal(t, []string{"docId", "sourceLocale", "targetLocale"}, fields)
	assert.Zero(t, f.completer.calls)
}

func TestTranslateFieldEndpoint(t *testing.T) {
	f := newFixture(t, "Hallo")
	_, err := f.store.Create(context.Background(), "posts", "en", map[string]any{"id": "p1", "title": "Hello"})
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/ai-localization/translate",
		`{"docId":"p1","collection":"posts","fieldName":"title","sourceLocale":"en","targetLocale":"de"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Hallo", gjson.Get(rec.Body.String(), "translatedContent").String())
	assert.Equal(t, "Field 'title' translated from English to German", gjson.Get(rec.Body.String(), "message").String())
}

func TestSupportedLanguagesEndpoint(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodGet, "/api/ai-localization/supported-languages", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, gjson.Get(body, "success").Bool())
	assert.Equal(t, "en", gjson.Get(body, "defaultLocale").String())
	assert.Equal(t,
		`[{"code":"en","name":"English"},{"code":"de","name":"German"},{"code":"xx","name":"XX"}]`,
		gjson.Get(body, "languages").Raw)
}

func TestDocumentEndpoints(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodPatch, "/api/posts/missing?locale=de", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/media/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Collection 'media' not found", gjson.Get(rec.Body.String(), "error").String())

	rec = f.do(t, http.MethodPost, "/api/posts", `{"id":"p2","title":"Hi"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPatch, "/api/posts/p2?locale=de", `{"title":"Hallo"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hallo", gjson.Get(rec.Body.String(), "doc.title").String())
}

func TestRequestIDHeader(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, "")
	f.do(t, http.MethodGet, "/health", "")

	rec := f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ailocalize_http_requests_total")
}

func TestHTTPStatus(t *testing.T) {
	tests := map[codes.Code]int{
		codes.InvalidArgument:    http.StatusBadRequest,
		codes.FailedPrecondition: http.StatusBadRequest,
		codes.NotFound:           http.StatusNotFound,
		codes.Internal:           http.StatusInternalServerError,
		codes.Unknown:            http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, httpStatus(code), code.String())
	}
}
