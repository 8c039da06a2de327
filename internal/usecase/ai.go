// Package usecase contains application business logic services.
package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/history-ai-wiki/internal/adapter/ai"
	"github.com/fairyhunter13/history-ai-wiki/internal/adapter/observability"
	"github.com/fairyhunter13/history-ai-wiki/internal/domain"
)

// minBiasContentLen is the minimum content length accepted by the bias judge.
const minBiasContentLen = 50

// AIService orchestrates prompt building, the upstream model call, response
// parsing and structural validation into three caller-facing operations. It is
// stateless between calls and safe for concurrent use; every internal failure
// surfaces as domain.ErrOrchestration with the cause preserved.
type AIService struct {
	Gateway domain.ModelGateway
}

// NewAIService constructs an AIService around the given model gateway.
func NewAIService(gw domain.ModelGateway) AIService {
	return AIService{Gateway: gw}
}

// GenerateCard generates a historical event card. The pipeline is
// build prompt -> gateway call -> parse -> validate; the returned card always
// satisfies the card content policy.
func (s AIService) GenerateCard(ctx domain.Context, title, systemPrompt, topicsToCover, contextText string) (domain.GeneratedCard, error) {
	prompt := ai.BuildCardGenerationPrompt(title, systemPrompt, topicsToCover, contextText)
	resp, err := s.Gateway.GenerateText(ctx, prompt)
	if err != nil {
		return domain.GeneratedCard{}, wrapOrchestration("card generation", err)
	}
	data, err := ai.ParseJSONResponse(resp)
	if err != nil {
		return domain.GeneratedCard{}, wrapOrchestration("card generation", err)
	}
	card, err := ai.ValidateCardStructure(data)
	if err != nil {
		return domain.GeneratedCard{}, wrapOrchestration("card generation", err)
	}
	slog.Info("card generated", slog.String("title", card.Title))
	return card, nil
}

// CopilotAnswer answers a question strictly from the given document context.
// Empty question or context is rejected before any upstream call is made.
func (s AIService) CopilotAnswer(ctx domain.Context, question, context string) (string, error) {
	if question == "" || context == "" {
		return "", fmt.Errorf("%w: question and context are required", domain.ErrOrchestration)
	}
	prompt := ai.BuildCopilotPrompt(question, context)
	resp, err := s.Gateway.GenerateText(ctx, prompt)
	if err != nil {
		return "", wrapOrchestration("copilot answer", err)
	}
	answer := strings.TrimSpace(resp)
	if answer == "" {
		return "", fmt.Errorf("%w: copilot answer failed: empty answer from model", domain.ErrOrchestration)
	}
	slog.Info("copilot answer generated", slog.Int("answer_length", len(answer)))
	return answer, nil
}

// JudgeBias scores the neutrality of the given content. Content shorter than
// minBiasContentLen is rejected before any upstream call is made.
func (s AIService) JudgeBias(ctx domain.Context, content string) (domain.BiasJudgment, error) {
	if len(content) < minBiasContentLen {
		return domain.BiasJudgment{}, fmt.Errorf("%w: content must be at least %d characters", domain.ErrOrchestration, minBiasContentLen)
	}
	prompt := ai.BuildBiasJudgePrompt(content)
	resp, err := s.Gateway.GenerateText(ctx, prompt)
	if err != nil {
		return domain.BiasJudgment{}, wrapOrchestration("bias judgment", err)
	}
	data, err := ai.ParseJSONResponse(resp)
	if err != nil {
		return domain.BiasJudgment{}, wrapOrchestration("bias judgment", err)
	}
	judgment, err := ai.ValidateBiasResponse(data)
	if err != nil {
		return domain.BiasJudgment{}, wrapOrchestration("bias judgment", err)
	}
	observability.BiasScoreHistogram.Observe(judgment.Score)
	slog.Info("bias analysis complete", slog.Float64("score", judgment.Score))
	return judgment, nil
}

// wrapOrchestration is the single translation boundary: parse and validation
// failures keep an operation-specific message, everything else is wrapped
// generically. The original cause stays on the chain for logs.
func wrapOrchestration(op string, err error) error {
	slog.Error("ai operation failed", slog.String("operation", op), slog.Any("error", err))
	switch {
	case errors.Is(err, domain.ErrParse), errors.Is(err, domain.ErrCardInvalid), errors.Is(err, domain.ErrBiasInvalid):
		return fmt.Errorf("%w: %s failed: %w", domain.ErrOrchestration, op, err)
	default:
		return fmt.Errorf("%w: unexpected error: %w", domain.ErrOrchestration, err)
	}
}
