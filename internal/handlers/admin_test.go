package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/repositories"
	"github.com/clickbazaar/api/internal/services"
)

func adminRouter(categories services.CategoryService, support services.SupportService) http.Handler {
	h := NewAdminHandlers(categories, support)
	return NewRouter(WithAdminRoutes(h.Routes))
}

func TestAdminCreateCategory(t *testing.T) {
	var captured services.CategoryInput
	categories := &stubCategoryService{
		create: func(_ context.Context, input services.CategoryInput) (domain.Category, error) {
			captured = input
			return domain.Category{ID: "cat-1", Name: input.Name, Slug: "books"}, nil
		},
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/api/v1/admin/categories", strings.NewReader(`{"name": "Books"}`))
	adminRouter(categories, &stubSupportService{}).ServeHTTP(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	if captured.Name != "Books" {
		t.Errorf("input = %+v", captured)
	}
}

func TestAdminCreateCategorySlugConflict(t *testing.T) {
	categories := &stubCategoryService{
		create: func(context.Context, services.CategoryInput) (domain.Category, error) {
			return domain.Category{}, services.ErrCategorySlugTaken
		},
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/api/v1/admin/categories", strings.NewReader(`{"name": "Books"}`))
	adminRouter(categories, &stubSupportService{}).ServeHTTP(recorder, request)

	if recorder.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", recorder.Code)
	}
}

func TestAdminDeleteCategoryInUse(t *testing.T) {
	categories := &stubCategoryService{
		remove: func(context.Context, string) error {
			return services.ErrCategoryInUse
		},
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/categories/cat-1", nil)
	adminRouter(categories, &stubSupportService{}).ServeHTTP(recorder, request)

	if recorder.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", recorder.Code)
	}
}

func TestAdminDeleteCategory(t *testing.T) {
	var deleted string
	categories := &stubCategoryService{
		remove: func(_ context.Context, categoryID string) error {
			deleted = categoryID
			return nil
		},
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/categories/cat-1", nil)
	adminRouter(categories, &stubSupportService{}).ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", recorder.Code)
	}
	if deleted != "cat-1" {
		t.Errorf("deleted = %q", deleted)
	}
}

func TestAdminSupportInboxFilters(t *testing.T) {
	var captured repositories.SupportThreadFilter
	support := &stubSupportService{
		inbox: func(_ context.Context, filter repositories.SupportThreadFilter, page domain.Pagination) (domain.Page[domain.SupportThread], error) {
			captured = filter
			return domain.Page[domain.SupportThread]{
				Items: []domain.SupportThread{{UserID: "usr-1", UnreadCount: 2}},
				Total: 1, Page: page.Page, PageSize: page.PageSize,
			}, nil
		},
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/v1/admin/support/inbox?unread=true", nil)
	adminRouter(&stubCategoryService{}, support).ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	if !captured.UnreadOnly {
		t.Errorf("unread filter not forwarded")
	}
	var payload struct {
		Items []domain.SupportThread `json:"items"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].UnreadCount != 2 {
		t.Errorf("items = %+v", payload.Items)
	}
}

func TestAdminSupportReplySendsAsAgent(t *testing.T) {
	var captured services.SendMessageCommand
	support := &stubSupportService{
		send: func(_ context.Context, cmd services.SendMessageCommand) (domain.SupportMessage, error) {
			captured = cmd
			return domain.SupportMessage{ID: "msg-1"}, nil
		},
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/api/v1/admin/support/threads/usr-1", strings.NewReader(`{"body": "on its way"}`))
	adminRouter(&stubCategoryService{}, support).ServeHTTP(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	if captured.UserID != "usr-1" || captured.Sender != domain.SupportSenderAgent {
		t.Errorf("command = %+v", captured)
	}
}
