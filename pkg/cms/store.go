package cms

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrUnknownCollection is returned for collections absent from the schema.
	ErrUnknownCollection = errors.New("unknown collection")
)

// Document is a single locale's view of a stored record. The record id is
// held under the "id" key.
type Document map[string]any

// ID returns the document id.
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// Store reads and writes locale-partitioned documents.
//
// Update writes localized fields into the addressed locale only and shared
// (non-localized) fields into every locale. There is no version check:
// concurrent updates to the same document and locale are last-write-wins.
type Store interface {
	FindByID(ctx context.Context, collection, id, locale string) (Document, error)
	Update(ctx context.Context, collection, id, locale string, data map[string]any) error
	Create(ctx context.Context, collection, locale string, data map[string]any) (string, error)
}
