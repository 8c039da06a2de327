package ai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/history-ai-wiki/internal/domain"
)

// ParseJSONResponse decodes a model response as a JSON object, stripping the
// markdown code fence the model sometimes wraps around structured output.
// Decode failures return domain.ErrParse; the offending raw text is logged
// for diagnostics but never returned to the caller.
func ParseJSONResponse(text string) (map[string]any, error) {
	cleaned := stripCodeFence(text)
	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		snippet := cleaned
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		slog.Error("failed to parse model response as JSON", slog.Any("error", err), slog.String("response", snippet))
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return parsed, nil
}

// stripCodeFence removes a surrounding ```json ... ``` (or bare ```) fence.
// Applying it to unfenced text is a no-op, so stripping is idempotent.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
