package plugin

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dasmlab/ailocalize/pkg/cms"
	"github.com/dasmlab/ailocalize/pkg/config"
)

func hostConfig() cms.Config {
	return cms.Config{
		Localization: &cms.Localization{Locales: []string{"en", "de"}, DefaultLocale: "en"},
		Admin:        cms.AdminComponents{Providers: []string{"existing#Provider"}},
		Collections: []cms.Collection{
			{Slug: "posts", Fields: []cms.Field{{Name: "title", Localized: true}}},
			{Slug: "media", Fields: []cms.Field{{Name: "alt"}}},
		},
		Endpoints: []cms.Endpoint{{Path: "/health-extra", Method: http.MethodGet, Handler: http.NotFoundHandler()}},
	}
}

func pluginOptions() config.PluginOptions {
	return config.PluginOptions{
		OpenAI: config.OpenAIOptions{APIKey: "sk-test"},
		Collections: map[string]config.CollectionOptions{
			"posts":   {Fields: []string{"title"}},
			"missing": {Fields: []string{"title"}},
		},
	}
}

func handlers() Handlers {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	return Handlers{TranslateBulk: ok, TranslateField: ok, SupportedLanguages: ok}
}

func TestApply(t *testing.T) {
	host := hostConfig()

	out, err := Apply(host, pluginOptions(), handlers())
	require.NoError(t, err)

	assert.Equal(t, []string{"existing#Provider", AiLocalizationProvider}, out.Admin.Providers)
	assert.Equal(t, []string{CSSInjector}, out.Admin.AfterLogin)

	posts, ok := out.Collection("posts")
	require.True(t, ok)
	assert.Equal(t, []string{AutoTranslateAllButton}, posts.Admin.BeforeDocumentControls)

	media, ok := out.Collection("media")
	require.True(t, ok)
	assert.Empty(t, media.Admin.BeforeDocumentControls)

	require.Len(t, out.Endpoints, 4)
	var patterns []string
	for _, e := range out.Endpoints {
		patterns = append(patterns, e.Pattern(""))
	}
	assert.Equal(t, []string{
		"GET /health-extra",
		"POST /ai-localization/translate-bulk",
		"POST /ai-localization/translate",
		"GET /ai-localization/supported-languages",
	}, patterns)
}

func TestApply_DoesNotMutateHost(t *testing.T) {
	host := hostConfig()

	_, err := Apply(host, pluginOptions(), handlers())
	require.NoError(t, err)

	assert.Equal(t, []string{"existing#Provider"}, host.Admin.Providers)
	assert.Empty(t, host.Admin.AfterLogin)
	assert.Empty(t, host.Collections[0].Admin.BeforeDocumentControls)
	assert.Len(t, host.Endpoints, 1)
}

func TestApply_RegistrationErrors(t *testing.T) {
	noLocalization := hostConfig()
	noLocalization.Localization = nil

	noKey := pluginOptions()
	noKey.OpenAI.APIKey = ""

	tests := []struct {
		name    string
		host    cms.Config
		opts    config.PluginOptions
		wantErr error
	}{
		{name: "no collections", host: hostConfig(), opts: config.PluginOptions{OpenAI: config.OpenAIOptions{APIKey: "k"}}, wantErr: config.ErrNoCollections},
		{name: "no api key", host: hostConfig(), opts: noKey, wantErr: config.ErrNoAPIKey},
		{name: "localization disabled", host: noLocalization, opts: pluginOptions(), wantErr: config.ErrNoLocalization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(tt.host, tt.opts, handlers())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
