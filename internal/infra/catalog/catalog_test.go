package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
)

const sampleCatalog = `{
  "compliance_documents": [
    {
      "doc_id": "gdpr_core",
      "title": "GDPR core obligations",
      "category": "gdpr",
      "version": "2016/679",
      "requirements": [
        {"id": "gdpr.1", "description": "Lawful basis for processing"},
        {"id": "gdpr.2", "description": "Right to erasure"}
      ]
    },
    {
      "doc_id": "baseline",
      "title": "Baseline controls",
      "category": "common",
      "version": "1",
      "requirements": [{"id": "common.1", "description": "Audit logging"}]
    }
  ]
}`

func TestDecode(t *testing.T) {
	docs, err := Decode([]byte(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "gdpr_core", docs[0].DocID)
	assert.Equal(t, "Right to erasure", docs[0].Requirements[1].Description)

	_, err = Decode([]byte(`{"documents": []}`))
	assert.ErrorIs(t, err, domain.ErrCatalogLoad)

	_, err = Decode([]byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrCatalogLoad)

	docs, err = Decode([]byte(`{"compliance_documents": []}`))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	docs, err := FileLoader{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = FileLoader{Path: path + ".missing"}.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogLoad)
}

type fakeObjects map[string][]byte

func (f fakeObjects) GetObject(_ context.Context, key string) ([]byte, error) {
	b, ok := f[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return b, nil
}

func TestObjectLoader(t *testing.T) {
	store := fakeObjects{"catalog/doc.json": []byte(sampleCatalog)}

	docs, err := ObjectLoader{Store: store, Key: "catalog/doc.json"}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = ObjectLoader{Store: store, Key: "nope"}.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogLoad)
}

type countingLoader struct {
	calls int
	docs  []domain.Document
	err   error
}

func (l *countingLoader) Load(context.Context) ([]domain.Document, error) {
	l.calls++
	return l.docs, l.err
}

func TestCachedLoadsOnce(t *testing.T) {
	docs, err := Decode([]byte(sampleCatalog))
	require.NoError(t, err)
	loader := &countingLoader{docs: docs}
	c := NewCached(loader, nil)

	first, err := c.Catalog(context.Background())
	require.NoError(t, err)
	second, err := c.Catalog(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, loader.calls)

	_, err = c.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls)
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	loader := &countingLoader{err: domain.ErrCatalogLoad}
	c := NewCached(loader, nil)

	_, err := c.Catalog(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogLoad)

	loader.err = nil
	loader.docs = []domain.Document{{DocID: "baseline", Category: "common"}}
	cat, err := c.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
	assert.Equal(t, 2, loader.calls)
}

func TestCachedReloadKeepsPreviousOnFailure(t *testing.T) {
	loader := &countingLoader{docs: []domain.Document{{DocID: "baseline", Category: "common"}}}
	c := NewCached(loader, nil)
	before, err := c.Catalog(context.Background())
	require.NoError(t, err)

	loader.docs = []domain.Document{{DocID: "dup"}, {DocID: "dup"}}
	_, err = c.Reload(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogLoad)

	after, err := c.Catalog(context.Background())
	require.NoError(t, err)
	assert.Same(t, before, after)
}
