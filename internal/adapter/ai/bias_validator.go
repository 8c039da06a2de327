package ai

import (
	"fmt"
	"strconv"

	"github.com/fairyhunter13/history-ai-wiki/internal/domain"
)

const minExplanationLen = 10

// ValidateBiasResponse checks a parsed bias judge payload and returns the
// typed judgment. A missing or non-numeric field reports an invalid format; a
// numeric score outside [0, 100] reports "out of range" — the two messages are
// deliberately distinct. All failures wrap domain.ErrBiasInvalid.
func ValidateBiasResponse(data map[string]any) (domain.BiasJudgment, error) {
	rawScore, hasScore := data["bias_score"]
	rawExplanation, hasExplanation := data["explanation"]
	if !hasScore || !hasExplanation {
		return domain.BiasJudgment{}, fmt.Errorf("%w: invalid bias judge response format", domain.ErrBiasInvalid)
	}

	score, err := toFloat(rawScore)
	if err != nil {
		return domain.BiasJudgment{}, fmt.Errorf("%w: failed to extract bias data: %v", domain.ErrBiasInvalid, err)
	}
	explanation, ok := rawExplanation.(string)
	if !ok {
		return domain.BiasJudgment{}, fmt.Errorf("%w: failed to extract bias data: explanation must be a string", domain.ErrBiasInvalid)
	}

	if score < 0.0 || score > 100.0 {
		return domain.BiasJudgment{}, fmt.Errorf("%w: bias score out of range: %v", domain.ErrBiasInvalid, score)
	}
	if len(explanation) < minExplanationLen {
		return domain.BiasJudgment{}, fmt.Errorf("%w: bias explanation must be at least %d characters", domain.ErrBiasInvalid, minExplanationLen)
	}

	return domain.BiasJudgment{Score: score, Explanation: explanation}, nil
}

// toFloat accepts the numeric shapes a JSON decode can produce, plus numeric
// strings, matching the upstream contract loosely on purpose.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("bias_score is not numeric: %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("bias_score is not numeric: %T", v)
	}
}
