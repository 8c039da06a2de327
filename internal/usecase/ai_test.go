package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/history-ai-wiki/internal/domain"
)

// fakeGateway records prompts and replays canned responses.
type fakeGateway struct {
	calls    int
	prompts  []string
	response string
	err      error
}

func (f *fakeGateway) GenerateText(_ domain.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

const longContent = "This is a sufficiently long piece of historical content for the bias judge to analyze."

func TestGenerateCard_HappyPath(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: "```json\n{\"title\": \"Suez Crisis\", \"description\": \"A thorough account of the 1956 crisis.\", \"keywords\": [\"suez\", \"1956\"]}\n```"}
	svc := NewAIService(gw)

	card, err := svc.GenerateCard(context.Background(), "Suez Crisis", "neutral historian", "causes, outcome", "")
	require.NoError(t, err)
	assert.Equal(t, "Suez Crisis", card.Title)
	assert.Equal(t, []string{"suez", "1956"}, card.Keywords)
	require.Equal(t, 1, gw.calls)
	assert.Contains(t, gw.prompts[0], "TITLE: Suez Crisis")
	assert.NotContains(t, gw.prompts[0], "ADDITIONAL CONTEXT")
}

func TestGenerateCard_ContextTextReachesPrompt(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: `{"title": "T", "description": "Long enough description.", "keywords": ["k"]}`}
	svc := NewAIService(gw)

	_, err := svc.GenerateCard(context.Background(), "T", "sp", "topics", "facts from the uploaded document")
	require.NoError(t, err)
	assert.Contains(t, gw.prompts[0], "ADDITIONAL CONTEXT FROM PROVIDED DOCUMENT:")
	assert.Contains(t, gw.prompts[0], "facts from the uploaded document")
}

func TestGenerateCard_ParseFailure(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: "the model rambled instead of returning json"}
	svc := NewAIService(gw)

	_, err := svc.GenerateCard(context.Background(), "T", "sp", "topics", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOrchestration))
	assert.True(t, errors.Is(err, domain.ErrParse))
	assert.Contains(t, err.Error(), "card generation failed")
}

func TestGenerateCard_StructureFailure(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: `{"title": "T", "description": "Long enough description."}`}
	svc := NewAIService(gw)

	_, err := svc.GenerateCard(context.Background(), "T", "sp", "topics", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCardInvalid))
	assert.Contains(t, err.Error(), "card generation failed")
}

func TestGenerateCard_GatewayFailureIsUnexpected(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{err: domain.ErrGateway}
	svc := NewAIService(gw)

	_, err := svc.GenerateCard(context.Background(), "T", "sp", "topics", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOrchestration))
	assert.Contains(t, err.Error(), "unexpected error")
}

func TestCopilotAnswer_GuardsBeforeCall(t *testing.T) {
	t.Parallel()
	cases := []struct{ question, docContext string }{
		{"", ""},
		{"what happened?", ""},
		{"", "some context text"},
	}
	for _, tc := range cases {
		gw := &fakeGateway{response: "irrelevant"}
		svc := NewAIService(gw)
		_, err := svc.CopilotAnswer(context.Background(), tc.question, tc.docContext)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrOrchestration))
		assert.Contains(t, err.Error(), "question and context are required")
		assert.Zero(t, gw.calls)
	}
}

func TestCopilotAnswer_TrimsAndReturns(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: "  The answer is July 1956.\n"}
	svc := NewAIService(gw)

	answer, err := svc.CopilotAnswer(context.Background(), "when?", "The crisis began in July 1956.")
	require.NoError(t, err)
	assert.Equal(t, "The answer is July 1956.", answer)
	assert.Contains(t, gw.prompts[0], "QUESTION FROM USER: when?")
}

func TestCopilotAnswer_EmptyModelAnswer(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: "   \n\t"}
	svc := NewAIService(gw)

	_, err := svc.CopilotAnswer(context.Background(), "when?", "document text here")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOrchestration))
	assert.Contains(t, err.Error(), "empty answer")
}

func TestJudgeBias_RejectsShortContentBeforeCall(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: "irrelevant"}
	svc := NewAIService(gw)

	_, err := svc.JudgeBias(context.Background(), "too short")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOrchestration))
	assert.Contains(t, err.Error(), "at least 50 characters")
	assert.Zero(t, gw.calls)
}

func TestJudgeBias_HappyPath(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: `{"bias_score": 35.5, "explanation": "Mostly neutral with a mild slant."}`}
	svc := NewAIService(gw)

	j, err := svc.JudgeBias(context.Background(), longContent)
	require.NoError(t, err)
	assert.InDelta(t, 35.5, j.Score, 1e-9)
	assert.Contains(t, gw.prompts[0], "CONTENT TO ANALYZE:")
}

func TestJudgeBias_OutOfRangeScore(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: `{"bias_score": 150, "explanation": "This score is impossible."}`}
	svc := NewAIService(gw)

	_, err := svc.JudgeBias(context.Background(), longContent)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBiasInvalid))
	assert.Contains(t, err.Error(), "bias judgment failed")
}

func TestJudgeBias_MalformedResponse(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: `{"score": 10}`}
	svc := NewAIService(gw)

	_, err := svc.JudgeBias(context.Background(), longContent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid bias judge response format")
}
