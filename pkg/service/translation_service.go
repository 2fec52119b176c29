package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dasmlab/ailocalize/pkg/cms"
	"github.com/dasmlab/ailocalize/pkg/config"
	"github.com/dasmlab/ailocalize/pkg/locale"
	"github.com/dasmlab/ailocalize/pkg/translate"
)

// Client-facing error messages.
const (
	msgDocumentNotFound  = "Document not found"
	msgNoLocalizedFields = "No localized fields found for translation"
	msgNoContent         = "No content found in configured fields"
	msgNoLocalization    = "Localization is not enabled in the host config"
)

// TranslationService runs the translation flows against the host document
// store. Each call is a self-contained unit of work: it holds no state
// between requests and takes no locks.
type TranslationService struct {
	// Store is the host document store.
	Store cms.Store

	// Host is the host configuration the plugin was registered against.
	Host cms.Config

	// Options are the plugin options.
	Options config.PluginOptions

	// Completer is the chat-completion backend.
	Completer translate.Completer

	// Logger for service operations.
	Logger *logrus.Logger
}

// NewTranslationService creates a new TranslationService instance.
func NewTranslationService(store cms.Store, host cms.Config, opts config.PluginOptions, completer translate.Completer, logger *logrus.Logger) *TranslationService {
	if logger == nil {
		logger = logrus.New()
	}

	return &TranslationService{
		Store:     store,
		Host:      host,
		Options:   opts,
		Completer: completer,
		Logger:    logger,
	}
}

// TranslateBulk translates the configured localized fields of a document
// from the source locale and writes them into the target locale.
//
// The flow stops at the first failure. Blocks of the completion that cannot
// be attributed to a sent field are dropped silently, so a successful result
// may cover fewer fields than were sent.
func (s *TranslationService) TranslateBulk(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	log := s.requestLogger(ctx).WithFields(logrus.Fields{
		"doc_id":        req.DocID,
		"collection":    req.Collection,
		"source_locale": req.SourceLocale,
		"target_locale": req.TargetLocale,
	})
	log.Info("Bulk translation request received")

	if err := req.Validate(); err != nil {
		log.WithError(err).Warn("Bulk translation request rejected")
		return nil, err
	}

	configured, ok := s.Options.Fields(req.Collection)
	if !ok {
		log.Warn("Collection not configured for translation")
		return nil, status.Errorf(codes.InvalidArgument, "Collection '%s' not configured for translation", req.Collection)
	}

	collection, ok := s.Host.Collection(req.Collection)
	if !ok {
		log.Warn("Collection missing from host schema")
		return nil, status.Errorf(codes.NotFound, "Collection '%s' not found", req.Collection)
	}

	fields := SelectFields(collection, configured)
	if len(fields) == 0 {
		log.WithField("configured", configured).Warn("No configured field is localized")
		return nil, status.Error(codes.InvalidArgument, msgNoLocalizedFields)
	}

	doc, err := s.findSource(ctx, log, req.Collection, req.DocID, req.SourceLocale)
	if err != nil {
		return nil, err
	}

	contents, err := ExtractContent(doc, fields)
	if err != nil {
		log.WithError(err).Error("Failed to serialise source content")
		return nil, status.Error(codes.Internal, err.Error())
	}
	if len(contents) == 0 {
		log.Warn("Configured fields are empty in source document")
		return nil, status.Error(codes.InvalidArgument, msgNoContent)
	}

	structured := s.Options.Format() == config.FormatJSON
	prompt := translate.ComposeBulkPrompt(req.SourceLocale, req.TargetLocale, contents, structured)

	sent := make([]string, 0, len(contents))
	for _, c := range contents {
		sent = append(sent, c.Name)
	}

	text, err := s.complete(ctx, log, prompt)
	if err != nil {
		return nil, err
	}

	parsed := translate.ParseBulk(text, sent, structured)
	if parsed.Dropped > 0 {
		log.WithFields(logrus.Fields{
			"dropped_blocks": parsed.Dropped,
		}).Warn("Some completion blocks could not be matched to a field")
	}

	if len(parsed.Values) > 0 {
		if err := s.Store.Update(ctx, req.Collection, req.DocID, req.TargetLocale, parsed.Values); err != nil {
			return nil, s.storeError(log, err, "Failed to write translated fields")
		}
	}

	translated := make([]string, 0, len(parsed.Values))
	for _, name := range sent {
		if _, ok := parsed.Values[name]; ok {
			translated = append(translated, name)
		}
	}

	log.WithFields(logrus.Fields{
		"sent_fields":       len(sent),
		"translated_fields": len(translated),
	}).Info("Bulk translation completed")

	return &BulkResult{
		Success: true,
		Message: fmt.Sprintf("Successfully translated %d field(s) from %s to %s",
			len(translated), locale.Name(req.SourceLocale), locale.Name(req.TargetLocale)),
		TranslatedFields:  translated,
		TranslatedContent: parsed.Values,
	}, nil
}

// TranslateField translates one localized field of a document.
func (s *TranslationService) TranslateField(ctx context.Context, req FieldRequest) (*FieldResult, error) {
	log := s.requestLogger(ctx).WithFields(logrus.Fields{
		"doc_id":        req.DocID,
		"collection":    req.Collection,
		"field":         req.FieldName,
		"source_locale": req.SourceLocale,
		"target_locale": req.TargetLocale,
	})
	log.Info("Field translation request received")

	if err := req.Validate(); err != nil {
		log.WithError(err).Warn("Field translation request rejected")
		return nil, err
	}

	collection, ok := s.Host.Collection(req.Collection)
	if !ok {
		log.Warn("Collection missing from host schema")
		return nil, status.Errorf(codes.NotFound, "Collection '%s' not found", req.Collection)
	}
	if len(SelectFields(collection, []string{req.FieldName})) == 0 {
		log.Warn("Field is not localized")
		return nil, status.Errorf(codes.InvalidArgument, "Field '%s' is not a localized field", req.FieldName)
	}

	doc, err := s.findSource(ctx, log, req.Collection, req.DocID, req.SourceLocale)
	if err != nil {
		return nil, err
	}

	value, present := doc[req.FieldName]
	if !present || isEmpty(value) {
		log.Warn("Field empty in source document")
		return nil, status.Errorf(codes.InvalidArgument, "Field '%s' not found or empty in source document", req.FieldName)
	}
	content, ok, err := serialise(value)
	if err != nil {
		log.WithError(err).Error("Failed to serialise source content")
		return nil, status.Error(codes.Internal, err.Error())
	}
	if !ok {
		log.WithField("type", fmt.Sprintf("%T", value)).Warn("Unsupported field content type")
		return nil, status.Errorf(codes.InvalidArgument, "Field '%s' contains unsupported content type", req.FieldName)
	}

	text, err := s.complete(ctx, log, translate.ComposeFieldPrompt(req.SourceLocale, req.TargetLocale, content))
	if err != nil {
		return nil, err
	}

	translated := translate.ParseValue(text)
	if err := s.Store.Update(ctx, req.Collection, req.DocID, req.TargetLocale, map[string]any{req.FieldName: translated}); err != nil {
		return nil, s.storeError(log, err, "Failed to write translated field")
	}

	log.Info("Field translation completed")

	return &FieldResult{
		Success: true,
		Message: fmt.Sprintf("Field '%s' translated from %s to %s",
			req.FieldName, locale.Name(req.SourceLocale), locale.Name(req.TargetLocale)),
		TranslatedContent: translated,
	}, nil
}

// SupportedLanguages lists the host locales with display names.
func (s *TranslationService) SupportedLanguages(ctx context.Context) (*LanguagesResult, error) {
	loc := s.Host.Localization
	if loc == nil {
		s.requestLogger(ctx).Warn("Supported languages requested but localization is disabled")
		return nil, status.Error(codes.FailedPrecondition, msgNoLocalization)
	}

	def := loc.DefaultLocale
	if def == "" {
		def = "en"
	}

	for _, code := range loc.Locales {
		if !locale.Known(code) {
			s.requestLogger(ctx).WithFields(logrus.Fields{
				"locale": code,
				"name":   locale.Name(code),
			}).Warn("Locale has no display name, using uppercased code")
		}
	}

	return &LanguagesResult{
		Success:       true,
		Languages:     locale.Languages(loc.Locales),
		DefaultLocale: def,
	}, nil
}

func (s *TranslationService) findSource(ctx context.Context, log *logrus.Entry, collection, id, loc string) (cms.Document, error) {
	doc, err := s.Store.FindByID(ctx, collection, id, loc)
	if err != nil {
		return nil, s.storeError(log, err, "Failed to read source document")
	}
	if doc == nil {
		log.Warn("Source document not found")
		return nil, status.Error(codes.NotFound, msgDocumentNotFound)
	}
	return doc, nil
}

// complete makes the single model call of a request.
func (s *TranslationService) complete(ctx context.Context, log *logrus.Entry, prompt translate.Prompt) (string, error) {
	startTime := time.Now()
	text, err := s.Completer.Complete(ctx, prompt)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"completer":   s.Completer.Name(),
			"duration_ms": time.Since(startTime).Milliseconds(),
		}).Error("Completion failed")
		if errors.Is(err, translate.ErrEmptyCompletion) {
			return "", status.Error(codes.Internal, "Translation failed - no content returned")
		}
		return "", status.Errorf(codes.Internal, "Translation failed: %v", err)
	}
	return text, nil
}

func (s *TranslationService) storeError(log *logrus.Entry, err error, msg string) error {
	switch {
	case errors.Is(err, cms.ErrNotFound):
		log.Warn("Document not found")
		return status.Error(codes.NotFound, msgDocumentNotFound)
	case errors.Is(err, cms.ErrUnknownCollection):
		log.WithError(err).Warn(msg)
		return status.Error(codes.NotFound, err.Error())
	default:
		log.WithError(err).Error(msg)
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *TranslationService) requestLogger(ctx context.Context) *logrus.Entry {
	id := RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	return s.Logger.WithField("request_id", id)
}
