package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
)

// file format: {"compliance_documents": [ ... ]}
type catalogFile struct {
	Documents *[]domain.Document `json:"compliance_documents"`
}

// Decode parses a catalog document. Every failure wraps ErrCatalogLoad.
func Decode(b []byte) ([]domain.Document, error) {
	var f catalogFile
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogLoad, err)
	}
	if f.Documents == nil {
		return nil, fmt.Errorf("%w: missing compliance_documents", domain.ErrCatalogLoad)
	}
	return *f.Documents, nil
}

// FileLoader baca catalog dari file lokal
type FileLoader struct {
	Path string
}

func (l FileLoader) Load(ctx context.Context) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogLoad, err)
	}
	return Decode(b)
}

// ObjectGetter is satisfied by storage.Store.
type ObjectGetter interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// ObjectLoader baca catalog dari object storage (MinIO)
type ObjectLoader struct {
	Store ObjectGetter
	Key   string
}

func (l ObjectLoader) Load(ctx context.Context) ([]domain.Document, error) {
	b, err := l.Store.GetObject(ctx, l.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: object %s: %v", domain.ErrCatalogLoad, l.Key, err)
	}
	return Decode(b)
}
