package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/history-ai-wiki/internal/domain"
)

// memCardRepo is an in-memory CardRepository for tests.
type memCardRepo struct {
	cards map[string]domain.Card
	seq   int
}

func newMemCardRepo() *memCardRepo {
	return &memCardRepo{cards: map[string]domain.Card{}}
}

func (r *memCardRepo) Create(_ domain.Context, c domain.Card) (domain.Card, error) {
	r.seq++
	c.ID = fmt.Sprintf("card-%d", r.seq)
	c.CreatedAt = time.Now()
	r.cards[c.ID] = c
	return c, nil
}

func (r *memCardRepo) Get(_ domain.Context, id string) (domain.Card, error) {
	c, ok := r.cards[id]
	if !ok {
		return domain.Card{}, fmt.Errorf("%w: card %s", domain.ErrNotFound, id)
	}
	return c, nil
}

func (r *memCardRepo) GetMulti(_ domain.Context, _ string, skip, limit int) ([]domain.Card, error) {
	out := make([]domain.Card, 0, len(r.cards))
	for _, c := range r.cards {
		out = append(out, c)
	}
	if skip >= len(out) {
		return nil, nil
	}
	out = out[skip:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(_ domain.Context, _ string, _ []byte) (string, error) {
	return f.text, f.err
}

const cardJSON = `{"title": "Suez Crisis", "description": "A thorough account of the 1956 crisis.", "keywords": ["suez"]}`

func newCardService(gw *fakeGateway, ext domain.TextExtractor) (CardService, *memCardRepo) {
	repo := newMemCardRepo()
	return NewCardService(repo, NewAIService(gw), ext, 100), repo
}

func TestCreateFromAI_PersistsGeneratedCard(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: cardJSON}
	svc, repo := newCardService(gw, nil)

	card, err := svc.CreateFromAI(context.Background(), "Suez Crisis", "neutral historian", "causes", "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, card.ID)
	assert.Equal(t, "Suez Crisis", card.Title)
	assert.Len(t, repo.cards, 1)
	assert.NotContains(t, gw.prompts[0], "ADDITIONAL CONTEXT")
}

func TestCreateFromAI_RequiresInputs(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: cardJSON}
	svc, _ := newCardService(gw, nil)

	_, err := svc.CreateFromAI(context.Background(), "", "sp", "topics", "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	assert.Zero(t, gw.calls)
}

func TestCreateFromAI_ExtractedTextFeedsPrompt(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: cardJSON}
	svc, _ := newCardService(gw, &fakeExtractor{text: "text pulled from the pdf"})

	_, err := svc.CreateFromAI(context.Background(), "T", "sp", "topics", "doc.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Contains(t, gw.prompts[0], "ADDITIONAL CONTEXT FROM PROVIDED DOCUMENT:")
	assert.Contains(t, gw.prompts[0], "text pulled from the pdf")
}

func TestCreateFromAI_ExtractionFailureDegradesToEmptyContext(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: cardJSON}
	svc, repo := newCardService(gw, &fakeExtractor{err: errors.New("tika unreachable")})

	card, err := svc.CreateFromAI(context.Background(), "T", "sp", "topics", "doc.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.NotEmpty(t, card.ID)
	assert.Len(t, repo.cards, 1)
	assert.NotContains(t, gw.prompts[0], "ADDITIONAL CONTEXT")
}

func TestCreateFromAI_GenerationFailureDoesNotPersist(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: "not json at all"}
	svc, repo := newCardService(gw, nil)

	_, err := svc.CreateFromAI(context.Background(), "T", "sp", "topics", "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOrchestration))
	assert.Empty(t, repo.cards)
}

type memPublisher struct {
	published []domain.Card
	err       error
}

func (m *memPublisher) PublishCardCreated(_ domain.Context, c domain.Card) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, c)
	return nil
}

func TestCreateFromAI_PublishesEvent(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: cardJSON}
	svc, _ := newCardService(gw, nil)
	pub := &memPublisher{}
	svc.Events = pub

	card, err := svc.CreateFromAI(context.Background(), "T", "sp", "topics", "", nil)
	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	assert.Equal(t, card.ID, pub.published[0].ID)
}

func TestCreateFromAI_PublishFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: cardJSON}
	svc, repo := newCardService(gw, nil)
	svc.Events = &memPublisher{err: errors.New("broker down")}

	card, err := svc.CreateFromAI(context.Background(), "T", "sp", "topics", "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, card.ID)
	assert.Len(t, repo.cards, 1)
}

type memCardCache struct {
	entries map[string]domain.Card
	sets    int
}

func (m *memCardCache) Get(_ domain.Context, id string) (domain.Card, bool) {
	c, ok := m.entries[id]
	return c, ok
}

func (m *memCardCache) Set(_ domain.Context, c domain.Card) {
	m.sets++
	m.entries[c.ID] = c
}

func TestGet_CacheHitSkipsRepo(t *testing.T) {
	t.Parallel()
	svc, _ := newCardService(&fakeGateway{}, nil)
	cache := &memCardCache{entries: map[string]domain.Card{
		"cached-id": {ID: "cached-id", Title: "Cached", Description: "From the cache.", Keywords: []string{"k"}},
	}}
	svc.Cache = cache

	card, err := svc.Get(context.Background(), "cached-id")
	require.NoError(t, err)
	assert.Equal(t, "Cached", card.Title)
}

func TestGet_CacheMissPopulatesCache(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: cardJSON}
	svc, _ := newCardService(gw, nil)
	cache := &memCardCache{entries: map[string]domain.Card{}}
	svc.Cache = cache

	created, err := svc.CreateFromAI(context.Background(), "T", "sp", "topics", "", nil)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, cache.entries, created.ID)
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()
	svc, _ := newCardService(&fakeGateway{}, nil)

	_, err := svc.Get(context.Background(), "missing-id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestList_NormalizesPaging(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: cardJSON}
	svc, _ := newCardService(gw, nil)
	_, err := svc.CreateFromAI(context.Background(), "T", "sp", "topics", "", nil)
	require.NoError(t, err)

	cards, err := svc.List(context.Background(), "", -5, 0)
	require.NoError(t, err)
	assert.Len(t, cards, 1)
}

func TestCopilotForCard_UsesStoredDescription(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{response: cardJSON}
	svc, _ := newCardService(gw, nil)
	card, err := svc.CreateFromAI(context.Background(), "T", "sp", "topics", "", nil)
	require.NoError(t, err)

	gw.response = "The crisis started in 1956."
	answer, err := svc.CopilotForCard(context.Background(), card.ID, "when did it start?")
	require.NoError(t, err)
	assert.NotEmpty(t, answer)
	assert.Contains(t, gw.prompts[len(gw.prompts)-1], card.Description)
}

func TestBiasForCard_MissingCard(t *testing.T) {
	t.Parallel()
	gw := &fakeGateway{}
	svc, _ := newCardService(gw, nil)

	_, err := svc.BiasForCard(context.Background(), "missing-id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Zero(t, gw.calls)
}
