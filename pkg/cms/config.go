// Package cms models the host content-management framework the
// localization plugin attaches to: collection schemas, localization
// settings, admin component slots, HTTP endpoints and the document store.
package cms

import (
	"net/http"
)

// Field describes one field of a collection schema.
type Field struct {
	Name      string `yaml:"name" json:"name"`
	Type      string `yaml:"type" json:"type"`
	Localized bool   `yaml:"localized" json:"localized"`
}

// CollectionAdmin holds the admin UI component slots of a collection edit view.
type CollectionAdmin struct {
	BeforeDocumentControls []string `yaml:"beforeDocumentControls,omitempty" json:"beforeDocumentControls,omitempty"`
}

// Collection is a named set of documents sharing a schema.
type Collection struct {
	Slug   string          `yaml:"slug" json:"slug"`
	Fields []Field         `yaml:"fields" json:"fields"`
	Admin  CollectionAdmin `yaml:"admin,omitempty" json:"admin,omitempty"`
}

// Field returns the schema entry named name.
func (c Collection) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Localization lists the locales documents are partitioned by.
type Localization struct {
	Locales       []string `yaml:"locales" json:"locales"`
	DefaultLocale string   `yaml:"defaultLocale" json:"defaultLocale"`
}

// AdminComponents holds application-wide admin UI component slots.
type AdminComponents struct {
	Providers  []string `yaml:"providers,omitempty" json:"providers,omitempty"`
	AfterLogin []string `yaml:"afterLogin,omitempty" json:"afterLogin,omitempty"`
}

// Endpoint is a custom route contributed to the host API.
// Path is relative to the API root (e.g. "/ai-localization/translate-bulk").
type Endpoint struct {
	Path    string
	Method  string
	Handler http.Handler
}

// Pattern returns the ServeMux pattern for the endpoint under prefix.
func (e Endpoint) Pattern(prefix string) string {
	return e.Method + " " + prefix + e.Path
}

// Config is the host application configuration. Plugins receive a Config
// and return a new one; see Clone.
type Config struct {
	Collections  []Collection    `yaml:"collections" json:"collections"`
	Localization *Localization   `yaml:"localization" json:"localization"`
	Admin        AdminComponents `yaml:"admin,omitempty" json:"admin,omitempty"`
	Endpoints    []Endpoint      `yaml:"-" json:"-"`
}

// Collection returns the collection with the given slug.
func (c Config) Collection(slug string) (Collection, bool) {
	for _, col := range c.Collections {
		if col.Slug == slug {
			return col, true
		}
	}
	return Collection{}, false
}

// Clone returns a deep copy of c. Handlers are shared, everything else is copied.
func (c Config) Clone() Config {
	out := Config{
		Admin: AdminComponents{
			Providers:  cloneStrings(c.Admin.Providers),
			AfterLogin: cloneStrings(c.Admin.AfterLogin),
		},
	}

	if c.Collections != nil {
		out.Collections = make([]Collection, len(c.Collections))
		for i, col := range c.Collections {
			out.Collections[i] = Collection{
				Slug:   col.Slug,
				Fields: append([]Field(nil), col.Fields...),
				Admin: CollectionAdmin{
					BeforeDocumentControls: cloneStrings(col.Admin.BeforeDocumentControls),
				},
			}
		}
	}

	if c.Localization != nil {
		out.Localization = &Localization{
			Locales:       cloneStrings(c.Localization.Locales),
			DefaultLocale: c.Localization.DefaultLocale,
		}
	}

	if c.Endpoints != nil {
		out.Endpoints = append([]Endpoint(nil), c.Endpoints...)
	}

	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
