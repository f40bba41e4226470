package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
)

type fakePrompts struct {
	missing bool
	fail    map[string]bool
}

func (p fakePrompts) Has(key string) bool { return !p.missing && key == PromptKeyAnalysis }

func (p fakePrompts) Render(key string, vars map[string]string) (string, error) {
	if !p.Has(key) {
		return "", domain.ErrPromptTemplateMissing
	}
	if p.fail[vars["requirement_id"]] {
		return "", fmt.Errorf("%w: missing variable", domain.ErrPromptRender)
	}
	return "REQ=" + vars["requirement_id"] + " LOC=" + vars["location"] + "\n" + vars["test_report"], nil
}

// scriptedOracle answers by requirement id, parsed back out of the prompt.
type scriptedOracle struct {
	mu      sync.Mutex
	answers map[string]string
	errs    map[string]error
	calls   atomic.Int32
	prompts []string
}

func (o *scriptedOracle) Invoke(ctx context.Context, prompt string) (string, error) {
	o.calls.Add(1)
	o.mu.Lock()
	o.prompts = append(o.prompts, prompt)
	o.mu.Unlock()

	id := strings.TrimPrefix(strings.Fields(prompt)[0], "REQ=")
	if err, ok := o.errs[id]; ok {
		return "", err
	}
	if a, ok := o.answers[id]; ok {
		return a, nil
	}
	return `{"status":"compliant","confidence_score":0.8,"explanation":"default"}`, nil
}

type staticCatalog struct {
	cat *domain.Catalog
	err error
}

func (s staticCatalog) Catalog(context.Context) (*domain.Catalog, error) { return s.cat, s.err }

type memReports struct {
	mu      sync.Mutex
	saved   map[string]*domain.Report
	saveErr error
}

func newMemReports() *memReports { return &memReports{saved: map[string]*domain.Report{}} }

func (m *memReports) Save(_ context.Context, tenant string, r *domain.Report) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[tenant+"/"+r.Metadata.ReportID] = r
	return nil
}

func (m *memReports) Get(_ context.Context, tenant, id string) (*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.saved[tenant+"/"+id]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}

func (m *memReports) Latest(_ context.Context, tenant string, _ int) ([]*domain.ReportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ReportRecord
	for _, r := range m.saved {
		if r.Metadata.TenantID == tenant {
			rec := domain.RecordOf(tenant, r)
			out = append(out, &rec)
		}
	}
	return out, nil
}

func (m *memReports) Summary(_ context.Context, _ string, _ int) (domain.TenantSummary, error) {
	return domain.TenantSummary{Reports: len(m.saved)}, nil
}

type recordingArtifacts struct {
	keys []string
	err  error
}

func (a *recordingArtifacts) PutJSON(_ context.Context, key string, _ any) (string, error) {
	a.keys = append(a.keys, key)
	if a.err != nil {
		return "", a.err
	}
	return "s3://bucket/" + key, nil
}

type recordingEvents struct {
	published []*domain.Report
	err       error
}

func (e *recordingEvents) PublishReport(_ context.Context, r *domain.Report) error {
	e.published = append(e.published, r)
	return e.err
}
