package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"

	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
	"github.com/bryanwahyu/automaton-compliance/internal/logging"
)

// Cached loads the catalog on first use and keeps it for the life of the
// process. A failed load is not cached; the next call tries again.
type Cached struct {
	loader domain.CatalogLoader
	logger *zap.Logger

	mu  sync.Mutex
	cat *domain.Catalog
}

func NewCached(loader domain.CatalogLoader, logger *zap.Logger) *Cached {
	return &Cached{loader: loader, logger: logging.OrNop(logger)}
}

func (c *Cached) Catalog(ctx context.Context) (*domain.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cat != nil {
		return c.cat, nil
	}
	return c.loadLocked(ctx)
}

// Reload forces a fresh load. On failure the previously loaded catalog stays
// in place.
func (c *Cached) Reload(ctx context.Context) (*domain.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(ctx)
}

func (c *Cached) loadLocked(ctx context.Context) (*domain.Catalog, error) {
	docs, err := c.loader.Load(ctx)
	if err != nil {
		c.logger.Error("compliance catalog load failed", zap.Error(err))
		return nil, err
	}
	cat, err := domain.NewCatalog(docs)
	if err != nil {
		c.logger.Error("compliance catalog invalid", zap.Error(err))
		return nil, err
	}
	c.cat = cat
	c.logger.Info("compliance catalog loaded", zap.Int("documents", cat.Len()))
	return cat, nil
}
