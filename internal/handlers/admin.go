package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/repositories"
	"github.com/clickbazaar/api/internal/services"
)

// AdminHandlers serves category management and the support inbox. The router
// guards the whole group with the admin-role middleware.
type AdminHandlers struct {
	categories services.CategoryService
	support    services.SupportService
}

// NewAdminHandlers constructs the admin handlers.
func NewAdminHandlers(categories services.CategoryService, support services.SupportService) *AdminHandlers {
	return &AdminHandlers{categories: categories, support: support}
}

// Routes registers the admin endpoints.
func (h *AdminHandlers) Routes(r chi.Router) {
	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)
	r.Get("/categories/{categoryID}", h.getCategory)
	r.Put("/categories/{categoryID}", h.updateCategory)
	r.Delete("/categories/{categoryID}", h.deleteCategory)

	r.Get("/support/inbox", h.supportInbox)
	r.Get("/support/threads/{userID}", h.supportThread)
	r.Post("/support/threads/{userID}", h.supportReply)
}

type categoryRequest struct {
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	ParentID *string `json:"parentId,omitempty"`
}

func (h *AdminHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"items": categories})
}

func (h *AdminHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	category, err := h.categories.Create(r.Context(), services.CategoryInput{
		Name:     req.Name,
		Slug:     req.Slug,
		ParentID: req.ParentID,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, category)
}

func (h *AdminHandlers) getCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.categories.Get(r.Context(), chi.URLParam(r, "categoryID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, category)
}

func (h *AdminHandlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	category, err := h.categories.Update(r.Context(), chi.URLParam(r, "categoryID"), services.CategoryInput{
		Name:     req.Name,
		Slug:     req.Slug,
		ParentID: req.ParentID,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, category)
}

func (h *AdminHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.categories.Delete(r.Context(), chi.URLParam(r, "categoryID")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) supportInbox(w http.ResponseWriter, r *http.Request) {
	filter := repositories.SupportThreadFilter{
		UserID:     strings.TrimSpace(r.URL.Query().Get("user")),
		UnreadOnly: r.URL.Query().Get("unread") == "true",
	}
	page, err := h.support.Inbox(r.Context(), filter, paginationFromQuery(r))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, pagePayload(page))
}

func (h *AdminHandlers) supportThread(w http.ResponseWriter, r *http.Request) {
	page, err := h.support.Thread(r.Context(), chi.URLParam(r, "userID"), domain.SupportSenderAgent, paginationFromQuery(r))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, pagePayload(page))
}

func (h *AdminHandlers) supportReply(w http.ResponseWriter, r *http.Request) {
	var req supportMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	message, err := h.support.SendMessage(r.Context(), services.SendMessageCommand{
		UserID: chi.URLParam(r, "userID"),
		Sender: domain.SupportSenderAgent,
		Body:   req.Body,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, message)
}
