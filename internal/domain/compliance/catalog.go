package compliance

import (
	"fmt"
	"strings"
)

// Catalog is a read-only view over the loaded compliance documents.
type Catalog struct {
	docs []Document
}

// NewCatalog validates docs and returns a catalog holding its own copy of them.
// Validation failures wrap ErrCatalogLoad.
func NewCatalog(docs []Document) (*Catalog, error) {
	seen := make(map[string]struct{}, len(docs))
	out := make([]Document, 0, len(docs))
	for i, d := range docs {
		if strings.TrimSpace(d.DocID) == "" {
			return nil, fmt.Errorf("%w: document %d has no doc_id", ErrCatalogLoad, i)
		}
		if _, dup := seen[d.DocID]; dup {
			return nil, fmt.Errorf("%w: duplicate doc_id %q", ErrCatalogLoad, d.DocID)
		}
		seen[d.DocID] = struct{}{}

		reqs := make([]Requirement, len(d.Requirements))
		for j, r := range d.Requirements {
			if strings.TrimSpace(r.ID) == "" {
				return nil, fmt.Errorf("%w: document %q requirement %d has no id", ErrCatalogLoad, d.DocID, j)
			}
			reqs[j] = r
		}
		d.Requirements = reqs
		d.Category = strings.ToLower(strings.TrimSpace(d.Category))
		out = append(out, d)
	}
	return &Catalog{docs: out}, nil
}

// Documents returns all documents in load order.
func (c *Catalog) Documents() []Document {
	out := make([]Document, len(c.docs))
	copy(out, c.docs)
	return out
}

// Select returns the documents whose declared category is in set, in load order.
func (c *Catalog) Select(set CategorySet) []Document {
	var out []Document
	for _, d := range c.docs {
		if set.Contains(d.Category) {
			out = append(out, d)
		}
	}
	return out
}

// Len is the number of documents in the catalog.
func (c *Catalog) Len() int { return len(c.docs) }
