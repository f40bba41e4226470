package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/json", contentTypeFor("acme/reports/1.json"))
	assert.Equal(t, "application/yaml", contentTypeFor("prompts/compliance.yml"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("report.html"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("blob"))
}
