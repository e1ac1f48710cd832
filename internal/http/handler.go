package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/davidbz/tokenmeter/internal/domain"
	"github.com/davidbz/tokenmeter/internal/observability"
)

// Handler handles HTTP requests.
type Handler struct {
	users   *domain.UserRegistry
	billing *domain.BillingEngine
	tokens  *domain.TokenCounter
	catalog *domain.PriceCatalog
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(
	users *domain.UserRegistry,
	billing *domain.BillingEngine,
	tokens *domain.TokenCounter,
	catalog *domain.PriceCatalog,
) *Handler {
	return &Handler{
		users:   users,
		billing: billing,
		tokens:  tokens,
		catalog: catalog,
	}
}

type userInfoRequest struct {
	User *domain.UserCandidate `json:"user"`
}

type resultRequest struct {
	User         *domain.UserCandidate `json:"user"`
	Model        string                `json:"model"`
	InputTokens  int                   `json:"input_tokens"`
	OutputTokens int                   `json:"output_tokens"`
}

type resultResponse struct {
	StatsText string `json:"stats_text"`
}

type tokensRequest struct {
	Messages json.RawMessage `json:"messages"`
	Type     string          `json:"type"`
	Model    string          `json:"model"`
}

type tokensResponse struct {
	Tokens int `json:"tokens"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleUserInfo registers the calling user on first sighting.
func (h *Handler) HandleUserInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req userInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidPayload, err))
		return
	}

	if req.User != nil {
		ctx = observability.WithUserID(ctx, req.User.ID)
	}

	if _, err := h.users.EnsureUser(ctx, req.User); err != nil {
		writeError(w, r.WithContext(ctx), err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "success"})
}

// HandleResult bills a finished model call and returns the summary line.
func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidPayload, err))
		return
	}

	event := domain.UsageEvent{
		UserID:       "",
		Model:        req.Model,
		InputTokens:  req.InputTokens,
		OutputTokens: req.OutputTokens,
	}
	if req.User != nil {
		event.UserID = req.User.ID
	}

	receipt, err := h.billing.RecordUsage(r.Context(), event)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, resultResponse{StatsText: receipt.Summary})
}

// HandleCalculateTokens counts the tokens of a chat or raw payload.
func (h *Handler) HandleCalculateTokens(w http.ResponseWriter, r *http.Request) {
	var req tokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidPayload, err))
		return
	}

	ctx := observability.WithModel(r.Context(), req.Model)

	tokens, err := h.tokens.Count(ctx, domain.TokenizeRequest{
		Payload: req.Messages,
		Kind:    domain.ParsePayloadKind(req.Type),
		Model:   req.Model,
	})
	if err != nil {
		writeError(w, r.WithContext(ctx), err)
		return
	}

	writeJSON(w, r, http.StatusOK, tokensResponse{Tokens: tokens})
}

// HandleListPrices returns the price catalog sorted by model name.
func (h *Handler) HandleListPrices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.catalog.List(r.Context()))
}

// HandleUpsertPrice replaces or adds the price of one model.
func (h *Handler) HandleUpsertPrice(w http.ResponseWriter, r *http.Request) {
	var entry domain.PriceEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidPrice, err))
		return
	}

	ctx := observability.WithModel(r.Context(), entry.Model)

	if err := h.catalog.Upsert(ctx, entry); err != nil {
		writeError(w, r.WithContext(ctx), err)
		return
	}

	observability.FromContext(ctx).Info("model price updated",
		zap.String("input_price", entry.InputPrice.String()),
		zap.String("output_price", entry.OutputPrice.String()),
	)

	writeJSON(w, r, http.StatusOK, entry)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidPayload),
		errors.Is(err, domain.ErrInvalidUsage),
		errors.Is(err, domain.ErrInvalidPrice):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := observability.FromContext(r.Context())

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		message = "internal server error"
	} else {
		logger.Warn("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
	}

	writeJSON(w, r, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Status is already written, only log.
		observability.FromContext(r.Context()).Error("failed to encode response", zap.Error(err))
	}
}
