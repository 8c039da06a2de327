// Package postgres provides PostgreSQL database adapters.
//
// It implements the card repository on top of a minimal pgx pool interface
// so the SQL layer stays easy to fake in tests.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/history-ai-wiki/internal/domain"
)

// CardRepo persists and loads cards using a minimal pgx pool.
type CardRepo struct{ Pool PgxPool }

// PgxPool is a minimal subset of pgxpool used by the repos for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// NewCardRepo constructs a CardRepo with the given pool.
func NewCardRepo(p PgxPool) *CardRepo { return &CardRepo{Pool: p} }

// Create stores a new card and returns it with its generated id.
func (r *CardRepo) Create(ctx domain.Context, c domain.Card) (domain.Card, error) {
	tracer := otel.Tracer("repo.cards")
	ctx, span := tracer.Start(ctx, "cards.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "cards"),
	)
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()
	q := `INSERT INTO cards (id, title, description, keywords, created_at) VALUES ($1,$2,$3,$4,$5)`
	_, err := r.Pool.Exec(ctx, q, c.ID, c.Title, c.Description, c.Keywords, c.CreatedAt)
	if err != nil {
		return domain.Card{}, fmt.Errorf("op=card.create: %w", err)
	}
	return c, nil
}

// Get loads a card by id or returns domain.ErrNotFound.
func (r *CardRepo) Get(ctx domain.Context, id string) (domain.Card, error) {
	tracer := otel.Tracer("repo.cards")
	ctx, span := tracer.Start(ctx, "cards.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "cards"),
	)
	q := `SELECT id, title, description, keywords, created_at FROM cards WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var c domain.Card
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Keywords, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Card{}, fmt.Errorf("%w: card %s", domain.ErrNotFound, id)
		}
		return domain.Card{}, fmt.Errorf("op=card.get: %w", err)
	}
	return c, nil
}

// GetMulti returns cards filtered by a case-insensitive title substring,
// paginated by skip/limit. An empty filter matches all cards.
func (r *CardRepo) GetMulti(ctx domain.Context, titleFilter string, skip, limit int) ([]domain.Card, error) {
	tracer := otel.Tracer("repo.cards")
	ctx, span := tracer.Start(ctx, "cards.GetMulti")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "cards"),
	)
	q := `SELECT id, title, description, keywords, created_at FROM cards
	      WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')
	      ORDER BY created_at DESC OFFSET $2 LIMIT $3`
	rows, err := r.Pool.Query(ctx, q, titleFilter, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("op=card.get_multi: %w", err)
	}
	defer rows.Close()
	cards := make([]domain.Card, 0)
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Keywords, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=card.get_multi: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=card.get_multi: %w", err)
	}
	return cards, nil
}
