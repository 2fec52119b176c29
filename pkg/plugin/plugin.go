// Package plugin registers AI-assisted localization with a host configuration.
package plugin

import (
	"net/http"

	"github.com/dasmlab/ailocalize/pkg/cms"
	"github.com/dasmlab/ailocalize/pkg/config"
)

// Admin component references injected into the host.
const (
	AutoTranslateAllButton = "ai-localization/client#AutoTranslateAllButton"
	AiLocalizationProvider = "ai-localization/client#AiLocalizationProvider"
	CSSInjector            = "ai-localization/client#CssInjector"
)

// Endpoint paths, relative to the host API root.
const (
	TranslateBulkPath      = "/ai-localization/translate-bulk"
	TranslateFieldPath     = "/ai-localization/translate"
	SupportedLanguagesPath = "/ai-localization/supported-languages"
)

// Handlers serve the plugin endpoints.
type Handlers struct {
	TranslateBulk      http.Handler
	TranslateField     http.Handler
	SupportedLanguages http.Handler
}

// Apply validates opts against host and returns a new configuration with
// the plugin's admin components and endpoints added. host is not modified.
func Apply(host cms.Config, opts config.PluginOptions, h Handlers) (cms.Config, error) {
	if err := opts.Validate(); err != nil {
		return cms.Config{}, err
	}
	if host.Localization == nil {
		return cms.Config{}, config.ErrNoLocalization
	}

	out := host.Clone()
	out.Admin.Providers = append(out.Admin.Providers, AiLocalizationProvider)
	out.Admin.AfterLogin = append(out.Admin.AfterLogin, CSSInjector)

	for i := range out.Collections {
		if _, ok := opts.Collections[out.Collections[i].Slug]; !ok {
			continue
		}
		edit := &out.Collections[i].Admin
		edit.BeforeDocumentControls = append(edit.BeforeDocumentControls, AutoTranslateAllButton)
	}

	out.Endpoints = append(out.Endpoints,
		cms.Endpoint{Path: TranslateBulkPath, Method: http.MethodPost, Handler: h.TranslateBulk},
		cms.Endpoint{Path: TranslateFieldPath, Method: http.MethodPost, Handler: h.TranslateField},
		cms.Endpoint{Path: SupportedLanguagesPath, Method: http.MethodGet, Handler: h.SupportedLanguages},
	)

	return out, nil
}
