package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fairyhunter13/history-ai-wiki/internal/config"
	"github.com/fairyhunter13/history-ai-wiki/internal/domain"
	"github.com/fairyhunter13/history-ai-wiki/internal/usecase"
	"github.com/gabriel-vasile/mimetype"
)

// Server aggregates handlers dependencies.
type Server struct {
	Cfg       config.Config
	Cards     usecase.CardService
	AI        usecase.AIService
	DBCheck   func(ctx context.Context) error
	TikaCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, cards usecase.CardService, aiSvc usecase.AIService, dbCheck, tikaCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Cards: cards, AI: aiSvc, DBCheck: dbCheck, TikaCheck: tikaCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func validationDetails(err error) map[string]string {
	verrs := map[string]string{}
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			verrs[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return verrs
}

// allowedContextMIME enforces an allowlist for the optional context document.
func allowedContextMIME(m string) bool {
	m = strings.ToLower(m)
	return m == "application/pdf" || strings.HasPrefix(m, "text/plain")
}

type cardResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	CreatedAt   string   `json:"created_at"`
}

func toCardResponse(c domain.Card) cardResponse {
	return cardResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Keywords:    c.Keywords,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateCardHandler generates a new card from multipart form data, including
// an optional context document fed to the prompt.
func (s *Server) CreateCardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "payload too large", Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB}}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}

		form := struct {
			Title         string `validate:"required,min=1,max=200"`
			SystemPrompt  string `validate:"required,min=10"`
			TopicsToCover string `validate:"required,min=5"`
		}{
			Title:         r.FormValue("title"),
			SystemPrompt:  r.FormValue("system_prompt"),
			TopicsToCover: r.FormValue("topics_to_cover"),
		}
		if err := getValidator().Struct(form); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}

		var fileName string
		var fileBytes []byte
		if f, fh, err := r.FormFile("context_file"); err == nil {
			defer func() { _ = f.Close() }()
			fileBytes, err = io.ReadAll(f)
			if err != nil {
				writeError(w, r, fmt.Errorf("%w: context_file read: %v", domain.ErrInvalidArgument, err), nil)
				return
			}
			fileName = fh.Filename
			if m := mimetype.Detect(fileBytes); !allowedContextMIME(m.String()) {
				writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "unsupported media type for context_file", Details: map[string]any{"mime": m.String(), "filename": fileName}}})
				return
			}
		}

		card, err := s.Cards.CreateFromAI(r.Context(), form.Title, form.SystemPrompt, form.TopicsToCover, fileName, fileBytes)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, toCardResponse(card))
	}
}

// ListCardsHandler returns cards with optional title filtering and paging.
func (s *Server) ListCardsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		cards, err := s.Cards.List(r.Context(), r.URL.Query().Get("title"), skip, limit)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]cardResponse, 0, len(cards))
		for _, c := range cards {
			out = append(out, toCardResponse(c))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GetCardHandler returns the details of a single card.
func (s *Server) GetCardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid card id", domain.ErrInvalidArgument), nil)
			return
		}
		card, err := s.Cards.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toCardResponse(card))
	}
}

// CopilotHandler answers a question over caller-supplied context text.
func (s *Server) CopilotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			Question string `json:"question" validate:"required,max=500"`
			Context  string `json:"context" validate:"required,min=10"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		answer, err := s.AI.CopilotAnswer(r.Context(), req.Question, req.Context)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
	}
}

// BiasJudgeHandler scores caller-supplied content for neutrality.
func (s *Server) BiasJudgeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			BlogContent string `json:"blog_content" validate:"required,min=50"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		judgment, err := s.AI.JudgeBias(r.Context(), req.BlogContent)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bias_score": judgment.Score, "explanation": judgment.Explanation})
	}
}

// CardCopilotHandler answers a question over a stored card's description.
func (s *Server) CardCopilotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid card id", domain.ErrInvalidArgument), nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			Question string `json:"question" validate:"required,max=500"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		answer, err := s.Cards.CopilotForCard(r.Context(), id, req.Question)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
	}
}

// CardBiasHandler scores a stored card's description for neutrality.
func (s *Server) CardBiasHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid card id", domain.ErrInvalidArgument), nil)
			return
		}
		judgment, err := s.Cards.BiasForCard(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bias_score": judgment.Score, "explanation": judgment.Explanation})
	}
}

// ReadyzHandler returns a readiness handler that probes the DB and Tika.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 2)
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks = append(checks, check{Name: "db", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "db", OK: true})
			}
		}
		if s.TikaCheck != nil {
			if err := s.TikaCheck(ctx); err != nil {
				checks = append(checks, check{Name: "tika", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "tika", OK: true})
			}
		}
		st := http.StatusOK
		for _, c := range checks {
			if !c.OK {
				st = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
