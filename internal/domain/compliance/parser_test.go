package compliance

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassification(t *testing.T) {
	t.Run("noise around the object is ignored", func(t *testing.T) {
		c, err := ParseClassification(`noise {"status":"compliant","confidence_score":0.9,"explanation":"ok"} trailing`)
		require.NoError(t, err)
		assert.Equal(t, StatusCompliant, c.Status)
		assert.Equal(t, 0.9, c.ConfidenceScore)
		assert.Equal(t, "ok", c.Explanation)
		assert.Empty(t, c.SuggestedActions)
	})

	t.Run("missing fields get defaults", func(t *testing.T) {
		c, err := ParseClassification(`{}`)
		require.NoError(t, err)
		assert.Equal(t, StatusNeedsReview, c.Status)
		assert.Equal(t, 0.0, c.ConfidenceScore)
		assert.Equal(t, DefaultExplanation, c.Explanation)
		assert.NotNil(t, c.SuggestedActions)
	})

	t.Run("code fenced output", func(t *testing.T) {
		raw := "```json\n{\"status\":\"non_compliant\",\"suggested_actions\":[\"encrypt at rest\"]}\n```"
		c, err := ParseClassification(raw)
		require.NoError(t, err)
		assert.Equal(t, StatusNonCompliant, c.Status)
		assert.Equal(t, []string{"encrypt at rest"}, c.SuggestedActions)
	})

	t.Run("no braces", func(t *testing.T) {
		_, err := ParseClassification("I cannot answer that")
		assert.True(t, errors.Is(err, ErrParse))

		fb := FallbackClassification(err)
		assert.Equal(t, StatusNeedsReview, fb.Status)
		assert.Equal(t, 0.0, fb.ConfidenceScore)
		assert.Contains(t, fb.Explanation, "no JSON object")
	})

	t.Run("closing brace before opening brace", func(t *testing.T) {
		_, err := ParseClassification("} oops {")
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("invalid json between braces", func(t *testing.T) {
		_, err := ParseClassification(`{"status": compliant}`)
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("wrong field type", func(t *testing.T) {
		_, err := ParseClassification(`{"confidence_score":"high"}`)
		assert.ErrorIs(t, err, ErrParse)
	})
}

func TestClassificationNormalize(t *testing.T) {
	c := Classification{Status: " Compliant ", ConfidenceScore: 1.7}.Normalize()
	assert.Equal(t, StatusCompliant, c.Status)
	assert.Equal(t, 1.0, c.ConfidenceScore)
	assert.NotNil(t, c.SuggestedActions)

	c = Classification{Status: "partially", ConfidenceScore: -0.2}.Normalize()
	assert.Equal(t, StatusNeedsReview, c.Status)
	assert.Equal(t, 0.0, c.ConfidenceScore)

	c = Classification{Status: StatusError, ConfidenceScore: math.NaN()}.Normalize()
	assert.Equal(t, StatusError, c.Status)
	assert.Equal(t, 0.0, c.ConfidenceScore)
}
