package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/platform/auth"
	"github.com/clickbazaar/api/internal/platform/httpx"
	"github.com/clickbazaar/api/internal/services"
)

// MeHandlers serves the account-scoped endpoints: reward points and the
// customer side of support chat.
type MeHandlers struct {
	rewards services.RewardService
	support services.SupportService
}

// NewMeHandlers constructs the account handlers.
func NewMeHandlers(rewards services.RewardService, support services.SupportService) *MeHandlers {
	return &MeHandlers{rewards: rewards, support: support}
}

// Routes registers the account endpoints.
func (h *MeHandlers) Routes(r chi.Router) {
	r.Get("/reward-points", h.rewardPoints)
	r.Get("/support/messages", h.listSupportMessages)
	r.Post("/support/messages", h.sendSupportMessage)
}

func (h *MeHandlers) rewardPoints(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	summary, err := h.rewards.Summary(r.Context(), identity.UID, paginationFromQuery(r))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	history := summary.History.Items
	if history == nil {
		history = []domain.RewardPointEntry{}
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"availablePoints": summary.AvailablePoints,
		"history":         history,
	})
}

func (h *MeHandlers) listSupportMessages(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	page, err := h.support.Thread(r.Context(), identity.UID, domain.SupportSenderCustomer, paginationFromQuery(r))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, pagePayload(page))
}

type supportMessageRequest struct {
	Body string `json:"body"`
}

func (h *MeHandlers) sendSupportMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	var req supportMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	message, err := h.support.SendMessage(r.Context(), services.SendMessageCommand{
		UserID: identity.UID,
		Sender: domain.SupportSenderCustomer,
		Body:   req.Body,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, message)
}
