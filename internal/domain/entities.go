// Package domain holds the core entities and ports of the service.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrGateway         = errors.New("model gateway failed")
	ErrParse           = errors.New("response parse failed")
	ErrCardInvalid     = errors.New("card validation failed")
	ErrBiasInvalid     = errors.New("bias validation failed")
	ErrOrchestration   = errors.New("ai orchestration failed")
	ErrInternal        = errors.New("internal error")
)

// Card is a persisted historical event card.
type Card struct {
	ID          string
	Title       string
	Description string
	Keywords    []string
	CreatedAt   time.Time
}

// GeneratedCard is the validated output of a card generation call.
// A GeneratedCard returned by the orchestration layer always satisfies the
// card validator's constraints; it is never returned half-valid.
type GeneratedCard struct {
	Title       string
	Description string
	Keywords    []string
}

// BiasJudgment is the validated output of a bias judge call.
// Score is always within [0, 100] when returned successfully.
type BiasJudgment struct {
	Score       float64
	Explanation string
}

// CardRepository (port)

type CardRepository interface {
	Create(ctx Context, c Card) (Card, error)
	Get(ctx Context, id string) (Card, error)
	// GetMulti returns cards whose title contains titleFilter (case-insensitive);
	// an empty filter matches everything. Results are paginated by skip/limit.
	GetMulti(ctx Context, titleFilter string, skip, limit int) ([]Card, error)
}

// ModelGateway (port)
// GenerateText sends a fully rendered prompt to the upstream generative model
// and returns the raw response text verbatim. Implementations retry internally
// with bounded backoff and fail with ErrGateway once attempts are exhausted.
type ModelGateway interface {
	GenerateText(ctx Context, prompt string) (string, error)
}

// EventPublisher (port)
// Emits domain events for downstream consumers. Implementations deliver best
// effort; callers log and continue on failure.
type EventPublisher interface {
	PublishCardCreated(ctx Context, c Card) error
}

// CardCache (port)
// Optional read cache for stored cards. Lookups never fail a request; a
// broken cache behaves like a miss. Cards are immutable once created, so TTL
// expiry is the only invalidation needed.
type CardCache interface {
	Get(ctx Context, id string) (Card, bool)
	Set(ctx Context, c Card)
}

// TextExtractor (port)
// Extract returns plain text for an uploaded document. Callers treat failure
// or empty output as "no context available", never as a fatal error.
type TextExtractor interface {
	Extract(ctx Context, fileName string, data []byte) (string, error)
}

// Context is an alias so the domain package stays decoupled from call sites;
// adapters and usecases pass context.Context through.
type Context = context.Context
