// Package workspace defines the storage backend contract the importer writes
// through: typed record fields, collection schemas and the backend interfaces
// implemented by the Notion and SQLite backends.
package workspace

import (
	"context"
	"errors"
)

var (
	// ErrUnauthorized means the backend rejected the credentials.
	ErrUnauthorized = errors.New("workspace: authentication failed")
	// ErrForbidden means the credentials are valid but lack access to the target.
	ErrForbidden = errors.New("workspace: access denied")
	// ErrNotFound means the requested container does not exist or is not shared.
	ErrNotFound = errors.New("workspace: not found")
)

// Collection identifies a database of records.
type Collection struct {
	ID    string
	Title string
	URL   string
}

// Store is the record-level contract used by the reconciliation engine.
type Store interface {
	// FindByExternalID returns the ID of the record whose field equals externalID.
	FindByExternalID(ctx context.Context, collectionID, field, externalID string) (recordID string, found bool, err error)
	// CreateRecord creates a record with the full payload.
	CreateRecord(ctx context.Context, collectionID string, fields Fields) (recordID string, err error)
	// UpdateRecord patches only the given fields.
	UpdateRecord(ctx context.Context, recordID string, fields Fields) error
	// EnsureSchema adds any missing fields to the collection.
	EnsureSchema(ctx context.Context, collectionID string, schema Schema) error
	// TitleFieldName returns the collection's title field.
	TitleFieldName(ctx context.Context, collectionID string) (string, error)
}

// Backend is a Store that can also be bootstrapped: credential and access
// checks plus find-or-create of collections under a parent container.
type Backend interface {
	Store
	// Verify checks the credentials. Returns ErrUnauthorized on rejection.
	Verify(ctx context.Context) error
	// CheckParent confirms the parent container is reachable.
	// Returns ErrForbidden or ErrNotFound.
	CheckParent(ctx context.Context, parentID string) error
	// OpenCollection finds the collection titled title under parentID, creating
	// it when missing, and ensures its schema.
	OpenCollection(ctx context.Context, parentID, title string, schema Schema) (Collection, error)
}
