package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-compliance/internal/config"
	"github.com/bryanwahyu/automaton-compliance/internal/domain/ai"
	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
)

const testCatalog = `{"compliance_documents":[
  {"doc_id":"gdpr_core","title":"GDPR","category":"gdpr","version":"1","requirements":[
    {"id":"gdpr.1","description":"Lawful basis"},
    {"id":"gdpr.2","description":"Right to erasure"}]},
  {"doc_id":"dpdp_core","title":"DPDP","category":"dpdp","version":"1","requirements":[
    {"id":"dpdp.1","description":"Consent notice"}]}
]}`

func stubOracle(t *testing.T, answer func(prompt string) string) {
	t.Helper()
	prev := newOracle
	newOracle = func(context.Context, *config.Config, *zap.Logger) (ai.Oracle, error) {
		return ai.OracleFunc(func(_ context.Context, prompt string) (string, error) {
			return answer(prompt), nil
		}), nil
	}
	t.Cleanup(func() { newOracle = prev })
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	catalogPath := writeFile(t, dir, "doc.json", testCatalog)
	reportPath := writeFile(t, dir, "report.json", `{"build":"b-77","tests":[{"name":"erase user","passed":true}]}`)
	out := filepath.Join(dir, "out.json")

	stubOracle(t, func(prompt string) string {
		if strings.Contains(prompt, "gdpr.2") {
			return "Here you go:\n{\"status\":\"non_compliant\",\"confidence_score\":0.9,\"explanation\":\"no erasure test\",\"suggested_actions\":[\"add test\"]}"
		}
		return `{"status":"compliant","confidence_score":0.8,"explanation":"ok"}`
	})

	root := NewRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"check",
		"--report", reportPath,
		"--jurisdiction", "EU",
		"--catalog", catalogPath,
		"--out", out,
		"--log-level", "error",
	})
	require.NoError(t, root.Execute())
	assert.Contains(t, stdout.String(), "compliance rate 50.00%")

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	var rep domain.Report
	require.NoError(t, json.Unmarshal(b, &rep))

	assert.Equal(t, "b-77", rep.Metadata.SubjectIdentity)
	assert.Equal(t, "EU", rep.Metadata.Jurisdiction)
	assert.Equal(t, 2, rep.Summary.Total)
	assert.Equal(t, 1, rep.Summary.NonCompliant)
	assert.Equal(t, 50.0, rep.Summary.ComplianceRate)
	assert.Contains(t, rep.DetailedResults, "gdpr_core")
	assert.NotContains(t, rep.DetailedResults, "dpdp_core")
}

func TestCheckCommandRequiresFlags(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"check", "--report", "x.json"})
	assert.ErrorContains(t, root.Execute(), "jurisdiction")
}

func TestCheckCommandBadReport(t *testing.T) {
	dir := t.TempDir()
	stubOracle(t, func(string) string { return "{}" })

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"check",
		"--report", writeFile(t, dir, "r.json", `[1,2]`),
		"--jurisdiction", "EU",
		"--catalog", writeFile(t, dir, "doc.json", testCatalog),
		"--out", filepath.Join(dir, "out.json"),
	})
	err := root.Execute()
	assert.ErrorIs(t, err, domain.ErrInvalidReport)
}
