package service

import (
	"context"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dasmlab/ailocalize/pkg/locale"
)

// InvalidRequestMessage is the error message for malformed request bodies.
const InvalidRequestMessage = "Invalid request data"

// BulkRequest asks for every configured field of a document to be
// translated from one locale into another.
type BulkRequest struct {
	DocID        string `json:"docId"`
	Collection   string `json:"collection"`
	SourceLocale string `json:"sourceLocale"`
	TargetLocale string `json:"targetLocale"`
}

// Validate checks that every member is present.
func (r BulkRequest) Validate() error {
	return requireFields(
		"docId", r.DocID,
		"collection", r.Collection,
		"sourceLocale", r.SourceLocale,
		"targetLocale", r.TargetLocale,
	)
}

// BulkResult is the outcome of a bulk translation.
type BulkResult struct {
	Success           bool           `json:"success"`
	Message           string         `json:"message"`
	TranslatedFields  []string       `json:"translatedFields"`
	TranslatedContent map[string]any `json:"translatedContent"`
}

// FieldRequest asks for a single field of a document to be translated.
type FieldRequest struct {
	DocID        string `json:"docId"`
	Collection   string `json:"collection"`
	FieldName    string `json:"fieldName"`
	SourceLocale string `json:"sourceLocale"`
	TargetLocale string `json:"targetLocale"`
}

// Validate checks that every member is present.
func (r FieldRequest) Validate() error {
	return requireFields(
		"docId", r.DocID,
		"collection", r.Collection,
		"fieldName", r.FieldName,
		"sourceLocale", r.SourceLocale,
		"targetLocale", r.TargetLocale,
	)
}

// FieldResult is the outcome of a single-field translation.
type FieldResult struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	TranslatedContent any    `json:"translatedContent"`
}

// LanguagesResult lists the host's locales with display names.
type LanguagesResult struct {
	Success       bool              `json:"success"`
	Languages     []locale.Language `json:"languages"`
	DefaultLocale string            `json:"defaultLocale"`
}

// requireFields takes name/value pairs and reports every empty value as a
// field violation on an InvalidArgument status.
func requireFields(pairs ...string) error {
	var violations []*errdetails.BadRequest_FieldViolation
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			violations = append(violations, &errdetails.BadRequest_FieldViolation{
				Field:       pairs[i],
				Description: "Required",
			})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return InvalidRequest(violations...)
}

// InvalidRequest builds the InvalidArgument status used for malformed bodies.
func InvalidRequest(violations ...*errdetails.BadRequest_FieldViolation) error {
	st := status.New(codes.InvalidArgument, InvalidRequestMessage)
	if len(violations) == 0 {
		return st.Err()
	}
	detailed, err := st.WithDetails(&errdetails.BadRequest{FieldViolations: violations})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

type requestIDKey struct{}

// WithRequestID returns a context carrying the request id used in logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id carried by ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
