package usecase

import (
	"fmt"
	"log/slog"

	"github.com/fairyhunter13/history-ai-wiki/internal/adapter/observability"
	"github.com/fairyhunter13/history-ai-wiki/internal/domain"
)

// CardService handles the card workflow: AI-backed creation, retrieval,
// listing, and per-card copilot and bias analysis.
type CardService struct {
	Cards     domain.CardRepository
	AI        AIService
	Extractor domain.TextExtractor
	// Events is optional; card creation events are published best effort.
	Events domain.EventPublisher
	// Cache is optional; Get serves cards from it before hitting the DB.
	Cache domain.CardCache
	// DefaultLimit bounds List when callers pass limit <= 0.
	DefaultLimit int
}

// NewCardService constructs a CardService with its dependencies.
func NewCardService(cards domain.CardRepository, aiSvc AIService, extractor domain.TextExtractor, defaultLimit int) CardService {
	if defaultLimit <= 0 {
		defaultLimit = 100
	}
	return CardService{Cards: cards, AI: aiSvc, Extractor: extractor, DefaultLimit: defaultLimit}
}

// CreateFromAI generates a card via the AI service and persists it. When a
// context document is supplied its text is extracted and fed to the prompt;
// extraction failure or empty text degrades to an empty context instead of
// failing the whole operation.
func (s CardService) CreateFromAI(ctx domain.Context, title, systemPrompt, topicsToCover, fileName string, pdfBytes []byte) (domain.Card, error) {
	if title == "" || systemPrompt == "" || topicsToCover == "" {
		return domain.Card{}, fmt.Errorf("%w: title, system prompt and topics are required", domain.ErrInvalidArgument)
	}

	contextText := ""
	if len(pdfBytes) > 0 && s.Extractor != nil {
		extracted, err := s.Extractor.Extract(ctx, fileName, pdfBytes)
		switch {
		case err != nil:
			slog.Warn("context extraction failed, continuing without context", slog.String("filename", fileName), slog.Any("error", err))
		case extracted == "":
			slog.Warn("context extraction returned empty text", slog.String("filename", fileName))
		default:
			contextText = extracted
			slog.Info("context document parsed", slog.Int("chars", len(contextText)))
		}
	}

	generated, err := s.AI.GenerateCard(ctx, title, systemPrompt, topicsToCover, contextText)
	if err != nil {
		return domain.Card{}, err
	}

	card, err := s.Cards.Create(ctx, domain.Card{
		Title:       generated.Title,
		Description: generated.Description,
		Keywords:    generated.Keywords,
	})
	if err != nil {
		return domain.Card{}, fmt.Errorf("save card: %w", err)
	}
	observability.CardsCreatedTotal.Inc()
	if s.Events != nil {
		if err := s.Events.PublishCardCreated(ctx, card); err != nil {
			slog.Warn("card created event not published", slog.String("id", card.ID), slog.Any("error", err))
		}
	}
	slog.Info("card created", slog.String("id", card.ID), slog.String("title", card.Title))
	return card, nil
}

// Get returns a single card by id, consulting the read cache when present.
func (s CardService) Get(ctx domain.Context, id string) (domain.Card, error) {
	if s.Cache != nil {
		if card, ok := s.Cache.Get(ctx, id); ok {
			return card, nil
		}
	}
	card, err := s.Cards.Get(ctx, id)
	if err != nil {
		return domain.Card{}, err
	}
	if s.Cache != nil {
		s.Cache.Set(ctx, card)
	}
	return card, nil
}

// List returns cards optionally filtered by a title substring.
func (s CardService) List(ctx domain.Context, titleFilter string, skip, limit int) ([]domain.Card, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = s.DefaultLimit
	}
	cards, err := s.Cards.GetMulti(ctx, titleFilter, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch cards: %w", err)
	}
	return cards, nil
}

// CopilotForCard answers a question about a stored card's description.
func (s CardService) CopilotForCard(ctx domain.Context, id, question string) (string, error) {
	card, err := s.Cards.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.AI.CopilotAnswer(ctx, question, card.Description)
}

// BiasForCard judges the neutrality of a stored card's description.
func (s CardService) BiasForCard(ctx domain.Context, id string) (domain.BiasJudgment, error) {
	card, err := s.Cards.Get(ctx, id)
	if err != nil {
		return domain.BiasJudgment{}, err
	}
	return s.AI.JudgeBias(ctx, card.Description)
}
