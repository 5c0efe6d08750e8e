package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vango-dev/observable/pkg/store"
)

// FormatVersion is the document version written by Save.
const FormatVersion = 1

// ErrVersion is returned when a document has an unsupported version.
var ErrVersion = errors.New("snapshot: unsupported format version")

// Document is the stored form of a snapshot.
type Document struct {
	Version int                        `json:"version"`
	TakenAt time.Time                  `json:"takenAt"`
	Cells   map[string]json.RawMessage `json:"cells"`
}

// Take captures the current value of every cell in s.
func Take(s *store.Store) (*Document, error) {
	cells, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return &Document{
		Version: FormatVersion,
		TakenAt: time.Now().UTC(),
		Cells:   cells,
	}, nil
}

// Encode returns the JSON form of doc.
func Encode(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Decode parses a document and checks its version.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, doc.Version)
	}
	return &doc, nil
}

// Save takes a snapshot of s and stores it under key.
func Save(ctx context.Context, s *store.Store, backend Backend, key string) (*Document, error) {
	doc, err := Take(s)
	if err != nil {
		return nil, err
	}
	data, err := Encode(doc)
	if err != nil {
		return nil, err
	}
	if err := backend.Put(ctx, key, data); err != nil {
		return nil, err
	}
	return doc, nil
}

// Load reads the document stored under key without applying it.
func Load(ctx context.Context, backend Backend, key string) (*Document, error) {
	data, err := backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Restore loads the document stored under key and writes its values into s
// in a single action. The document is returned even when some cells could
// not be restored; the error then lists them.
func Restore(ctx context.Context, s *store.Store, backend Backend, key string) (*Document, error) {
	doc, err := Load(ctx, backend, key)
	if err != nil {
		return nil, err
	}
	return doc, s.Restore(doc.Cells)
}
