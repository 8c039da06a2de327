package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/history-ai-wiki/internal/domain"
)

func TestValidateBiasResponse_Valid(t *testing.T) {
	t.Parallel()
	j, err := ValidateBiasResponse(map[string]any{
		"bias_score":  float64(42.5),
		"explanation": "The text favors one side of the conflict.",
	})
	require.NoError(t, err)
	assert.InDelta(t, 42.5, j.Score, 1e-9)
	assert.NotEmpty(t, j.Explanation)
}

func TestValidateBiasResponse_BoundaryScores(t *testing.T) {
	t.Parallel()
	for _, score := range []float64{0.0, 100.0} {
		j, err := ValidateBiasResponse(map[string]any{
			"bias_score":  score,
			"explanation": "Boundary value is considered in range.",
		})
		require.NoError(t, err)
		assert.Equal(t, score, j.Score)
	}
}

func TestValidateBiasResponse_OutOfRange(t *testing.T) {
	t.Parallel()
	for _, score := range []float64{150.0, -10.0, 100.01} {
		_, err := ValidateBiasResponse(map[string]any{
			"bias_score":  score,
			"explanation": "Explanation long enough to pass.",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrBiasInvalid))
		assert.Contains(t, err.Error(), "bias score out of range")
	}
}

func TestValidateBiasResponse_MissingFields(t *testing.T) {
	t.Parallel()
	cases := []map[string]any{
		{"bias_score": float64(10)},
		{"explanation": "Missing the score entirely."},
		{},
	}
	for _, data := range cases {
		_, err := ValidateBiasResponse(data)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrBiasInvalid))
		assert.Contains(t, err.Error(), "invalid bias judge response format")
	}
}

func TestValidateBiasResponse_NonNumericScore(t *testing.T) {
	t.Parallel()
	_, err := ValidateBiasResponse(map[string]any{
		"bias_score":  "very biased",
		"explanation": "Explanation long enough to pass.",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBiasInvalid))
	assert.Contains(t, err.Error(), "failed to extract bias data")
	assert.NotContains(t, err.Error(), "out of range")
}

func TestValidateBiasResponse_NumericStringScore(t *testing.T) {
	t.Parallel()
	j, err := ValidateBiasResponse(map[string]any{
		"bias_score":  "67.5",
		"explanation": "Score delivered as a string is coerced.",
	})
	require.NoError(t, err)
	assert.InDelta(t, 67.5, j.Score, 1e-9)
}

func TestValidateBiasResponse_ShortExplanation(t *testing.T) {
	t.Parallel()
	_, err := ValidateBiasResponse(map[string]any{
		"bias_score":  float64(50),
		"explanation": "short",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBiasInvalid))
	assert.Contains(t, err.Error(), "at least 10")
}

func TestValidateBiasResponse_NonStringExplanation(t *testing.T) {
	t.Parallel()
	_, err := ValidateBiasResponse(map[string]any{
		"bias_score":  float64(50),
		"explanation": float64(1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explanation must be a string")
}
