package services

import (
	"context"
	"errors"
	"testing"

	"github.com/clickbazaar/api/internal/domain"
)

func newCategoryFixture(t *testing.T, categories ...domain.Category) (CategoryService, *fakeCategories) {
	t.Helper()
	repo := newFakeCategories(categories...)
	svc, err := NewCategoryService(CategoryServiceDeps{
		Categories:  repo,
		Clock:       fixedClock,
		IDGenerator: sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("NewCategoryService: %v", err)
	}
	return svc, repo
}

func TestCategoryCreateDerivesSlug(t *testing.T) {
	svc, _ := newCategoryFixture(t)

	category, err := svc.Create(context.Background(), CategoryInput{Name: "Home & Kitchen"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if category.Slug != "home-kitchen" {
		t.Errorf("slug = %q, want home-kitchen", category.Slug)
	}
	if category.ID != "cat_id-1" {
		t.Errorf("id = %q", category.ID)
	}
	if !category.CreatedAt.Equal(fixedNow) {
		t.Errorf("createdAt = %s", category.CreatedAt)
	}
}

func TestCategoryCreateRejectsDuplicateSlug(t *testing.T) {
	svc, _ := newCategoryFixture(t, domain.Category{ID: "cat-1", Name: "Books", Slug: "books"})

	_, err := svc.Create(context.Background(), CategoryInput{Name: "Books"})
	if !errors.Is(err, ErrCategorySlugTaken) {
		t.Fatalf("err = %v, want ErrCategorySlugTaken", err)
	}
}

func TestCategoryCreateRequiresName(t *testing.T) {
	svc, _ := newCategoryFixture(t)

	_, err := svc.Create(context.Background(), CategoryInput{Name: "   "})
	if !errors.Is(err, ErrCategoryInvalidInput) {
		t.Fatalf("err = %v, want ErrCategoryInvalidInput", err)
	}
}

func TestCategoryUpdateKeepsSlugWhenOmitted(t *testing.T) {
	svc, repo := newCategoryFixture(t, domain.Category{ID: "cat-1", Name: "Books", Slug: "books"})

	updated, err := svc.Update(context.Background(), "cat-1", CategoryInput{Name: "Printed Books"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Slug != "books" {
		t.Errorf("slug = %q, want books", updated.Slug)
	}
	if repo.byID["cat-1"].Name != "Printed Books" {
		t.Errorf("name not persisted: %+v", repo.byID["cat-1"])
	}
}

func TestCategoryUpdateRejectsSelfParent(t *testing.T) {
	svc, _ := newCategoryFixture(t, domain.Category{ID: "cat-1", Name: "Books", Slug: "books"})

	self := "cat-1"
	_, err := svc.Update(context.Background(), "cat-1", CategoryInput{Name: "Books", ParentID: &self})
	if !errors.Is(err, ErrCategoryInvalidInput) {
		t.Fatalf("err = %v, want ErrCategoryInvalidInput", err)
	}
}

func TestCategoryUpdateRejectsTakenSlug(t *testing.T) {
	svc, _ := newCategoryFixture(t,
		domain.Category{ID: "cat-1", Name: "Books", Slug: "books"},
		domain.Category{ID: "cat-2", Name: "Music", Slug: "music"},
	)

	_, err := svc.Update(context.Background(), "cat-1", CategoryInput{Name: "Books", Slug: "music"})
	if !errors.Is(err, ErrCategorySlugTaken) {
		t.Fatalf("err = %v, want ErrCategorySlugTaken", err)
	}
}

func TestCategoryDeleteBlockedWhileInUse(t *testing.T) {
	svc, repo := newCategoryFixture(t, domain.Category{ID: "cat-1", Name: "Books", Slug: "books"})
	repo.productCounts["cat-1"] = 3

	err := svc.Delete(context.Background(), "cat-1")
	if !errors.Is(err, ErrCategoryInUse) {
		t.Fatalf("err = %v, want ErrCategoryInUse", err)
	}
	if len(repo.deleted) != 0 {
		t.Errorf("category must not be deleted while products reference it")
	}
}

func TestCategoryDeleteEmptyCategory(t *testing.T) {
	svc, repo := newCategoryFixture(t, domain.Category{ID: "cat-1", Name: "Books", Slug: "books"})

	if err := svc.Delete(context.Background(), "cat-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "cat-1" {
		t.Errorf("deleted = %v", repo.deleted)
	}
}

func TestCategoryGetUnknown(t *testing.T) {
	svc, _ := newCategoryFixture(t)

	if _, err := svc.Get(context.Background(), "cat-x"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("err = %v, want ErrCategoryNotFound", err)
	}
}
