package ai

import (
	"fmt"

	"github.com/fairyhunter13/history-ai-wiki/internal/domain"
)

// Card content policy.
const (
	maxTitleLen       = 200
	minDescriptionLen = 10
)

// ValidateCardStructure checks a parsed card payload against the card content
// policy and returns the typed card. Wrong field types fail validation, they
// are never coerced. All failures wrap domain.ErrCardInvalid.
func ValidateCardStructure(data map[string]any) (domain.GeneratedCard, error) {
	for _, field := range []string{"title", "description", "keywords"} {
		if _, ok := data[field]; !ok {
			return domain.GeneratedCard{}, fmt.Errorf("%w: card is missing required field %q", domain.ErrCardInvalid, field)
		}
	}

	title, ok := data["title"].(string)
	if !ok {
		return domain.GeneratedCard{}, fmt.Errorf("%w: card title must be a string", domain.ErrCardInvalid)
	}
	description, ok := data["description"].(string)
	if !ok {
		return domain.GeneratedCard{}, fmt.Errorf("%w: card description must be a string", domain.ErrCardInvalid)
	}
	rawKeywords, ok := data["keywords"].([]any)
	if !ok {
		return domain.GeneratedCard{}, fmt.Errorf("%w: card keywords must be a list", domain.ErrCardInvalid)
	}
	keywords := make([]string, 0, len(rawKeywords))
	for _, k := range rawKeywords {
		s, ok := k.(string)
		if !ok {
			return domain.GeneratedCard{}, fmt.Errorf("%w: all keywords must be strings", domain.ErrCardInvalid)
		}
		keywords = append(keywords, s)
	}

	if len(title) < 1 || len(title) > maxTitleLen {
		return domain.GeneratedCard{}, fmt.Errorf("%w: card title must be between 1 and %d characters", domain.ErrCardInvalid, maxTitleLen)
	}
	if len(description) < minDescriptionLen {
		return domain.GeneratedCard{}, fmt.Errorf("%w: card description must be at least %d characters", domain.ErrCardInvalid, minDescriptionLen)
	}
	if len(keywords) < 1 {
		return domain.GeneratedCard{}, fmt.Errorf("%w: card must have at least one keyword", domain.ErrCardInvalid)
	}

	return domain.GeneratedCard{Title: title, Description: description, Keywords: keywords}, nil
}
