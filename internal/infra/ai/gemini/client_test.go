package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/bryanwahyu/automaton-compliance/internal/domain/ai"
)

func TestInvoke(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"status\":\"non_compliant\"}"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "key", Options{BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := c.Invoke(context.Background(), "check dpdp.1")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"non_compliant"}`, out)
	assert.True(t, strings.HasSuffix(path, defaultModel+":generateContent"), path)
}

func TestIsQuotaError(t *testing.T) {
	assert.True(t, isQuotaError(fmt.Errorf("wrap: %w", genai.APIError{Code: 429})))
	assert.True(t, isQuotaError(genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"}))
	assert.False(t, isQuotaError(genai.APIError{Code: 500}))
	assert.False(t, isQuotaError(ai.ErrEmptyResponse))
}
