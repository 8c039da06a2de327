package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/history-ai-wiki/internal/domain"
)

func TestParseJSONResponse_PlainJSON(t *testing.T) {
	t.Parallel()
	got, err := ParseJSONResponse(`{"title": "T", "n": 3}`)
	require.NoError(t, err)
	assert.Equal(t, "T", got["title"])
	assert.Equal(t, float64(3), got["n"])
}

func TestParseJSONResponse_FencedEqualsUnfenced(t *testing.T) {
	t.Parallel()
	plain, err := ParseJSONResponse(`{"a": [1, 2], "b": "x"}`)
	require.NoError(t, err)

	fenced, err := ParseJSONResponse("```json\n{\"a\": [1, 2], \"b\": \"x\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, plain, fenced)

	bare, err := ParseJSONResponse("```\n{\"a\": [1, 2], \"b\": \"x\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, plain, bare)
}

func TestParseJSONResponse_SurroundingWhitespace(t *testing.T) {
	t.Parallel()
	got, err := ParseJSONResponse("  \n```json\n{\"k\": \"v\"}\n```  \n")
	require.NoError(t, err)
	assert.Equal(t, "v", got["k"])
}

func TestParseJSONResponse_InvalidJSON(t *testing.T) {
	t.Parallel()
	_, err := ParseJSONResponse("this is not json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrParse))
}

func TestParseJSONResponse_EmptyAfterStripping(t *testing.T) {
	t.Parallel()
	_, err := ParseJSONResponse("```json\n```")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrParse))
}

func TestStripCodeFence_Idempotent(t *testing.T) {
	t.Parallel()
	once := stripCodeFence("```json\n{\"a\":1}\n```")
	twice := stripCodeFence(once)
	assert.Equal(t, `{"a":1}`, once)
	assert.Equal(t, once, twice)
}
