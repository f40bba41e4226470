package compliance

import "context"

// CatalogLoader port (sumber dokumen compliance, file atau object store)
type CatalogLoader interface {
	Load(ctx context.Context) ([]Document, error)
}

// PromptRepository renders named prompt templates.
type PromptRepository interface {
	Has(key string) bool
	Render(key string, vars map[string]string) (string, error)
}

// ReportRepository port (interface untuk persistence)
type ReportRepository interface {
	Save(ctx context.Context, tenant string, r *Report) error
	Get(ctx context.Context, tenant string, id string) (*Report, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*ReportRecord, error)
	Summary(ctx context.Context, tenant string, sinceDays int) (TenantSummary, error)
}

// ArtifactStore port (penyimpanan report JSON)
type ArtifactStore interface {
	PutJSON(ctx context.Context, key string, v any) (string, error)
}

// EventPublisher announces generated reports to other services.
type EventPublisher interface {
	PublishReport(ctx context.Context, r *Report) error
}
