package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/migcontrol/website/internal/model"
)

// --- モック定義 ---

// mockPageFinder はPageFinderのモック実装。
type mockPageFinder struct {
	findByIDFn    func(ctx context.Context, id string) (*model.Page, error)
	getChildrenFn func(ctx context.Context, parentID string) ([]*model.Page, error)
	listLiveFn    func(ctx context.Context, pageType model.PageType, limit, offset int) ([]*model.Page, error)
}

func (m *mockPageFinder) FindByID(ctx context.Context, id string) (*model.Page, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockPageFinder) GetChildren(ctx context.Context, parentID string) ([]*model.Page, error) {
	if m.getChildrenFn != nil {
		return m.getChildrenFn(ctx, parentID)
	}
	return nil, nil
}

func (m *mockPageFinder) ListLive(ctx context.Context, pageType model.PageType, limit, offset int) ([]*model.Page, error) {
	if m.listLiveFn != nil {
		return m.listLiveFn(ctx, pageType, limit, offset)
	}
	return nil, nil
}

// newPageRouter はページハンドラーだけをマウントしたルーターを返す。
func newPageRouter(finder PageFinder) http.Handler {
	r := chi.NewRouter()
	h := NewPageHandler(finder)
	r.Get("/api/pages", h.ListPages)
	r.Get("/api/pages/{id}", h.GetPage)
	return r
}

// --- GET /api/pages テスト ---

func TestPageHandler_ListPages_Success(t *testing.T) {
	finder := &mockPageFinder{
		listLiveFn: func(ctx context.Context, pageType model.PageType, limit, offset int) ([]*model.Page, error) {
			if pageType != model.PageTypeBlogPage {
				t.Errorf("pageType = %q, want %q", pageType, model.PageTypeBlogPage)
			}
			if limit != 10 {
				t.Errorf("limit = %d, want 10", limit)
			}
			if offset != 5 {
				t.Errorf("offset = %d, want 5", offset)
			}
			return []*model.Page{
				{ID: "page-1", PageType: model.PageTypeBlogPage, Slug: "erster-beitrag", Title: "Erster Beitrag", Locale: "de", Live: true},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/pages?type=blog_page&limit=10&offset=5", nil)
	w := httptest.NewRecorder()
	newPageRouter(finder).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Pages []pageResponse `json:"pages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.Pages) != 1 {
		t.Fatalf("len(pages) = %d, want 1", len(body.Pages))
	}
	if body.Pages[0].Slug != "erster-beitrag" {
		t.Errorf("slug = %q, want %q", body.Pages[0].Slug, "erster-beitrag")
	}
	if body.Pages[0].Body != "" {
		t.Error("一覧レスポンスに本文が含まれている")
	}
}

func TestPageHandler_ListPages_LimitCapped(t *testing.T) {
	var gotLimit int
	finder := &mockPageFinder{
		listLiveFn: func(ctx context.Context, pageType model.PageType, limit, offset int) ([]*model.Page, error) {
			gotLimit = limit
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/pages?limit=9999", nil)
	w := httptest.NewRecorder()
	newPageRouter(finder).ServeHTTP(w, req)

	if gotLimit != maxPageLimit {
		t.Errorf("limit = %d, want %d", gotLimit, maxPageLimit)
	}
}

func TestPageHandler_ListPages_Error(t *testing.T) {
	finder := &mockPageFinder{
		listLiveFn: func(ctx context.Context, pageType model.PageType, limit, offset int) ([]*model.Page, error) {
			return nil, errors.New("db down")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/pages", nil)
	w := httptest.NewRecorder()
	newPageRouter(finder).ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// --- GET /api/pages/{id} テスト ---

func TestPageHandler_GetPage_Success(t *testing.T) {
	finder := &mockPageFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Page, error) {
			if id != "page-1" {
				t.Errorf("id = %q, want %q", id, "page-1")
			}
			return &model.Page{ID: "page-1", PageType: model.PageTypeBlogPage, Slug: "beitrag", Title: "Beitrag", Body: "<p>Inhalt</p>", Live: true}, nil
		},
		getChildrenFn: func(ctx context.Context, parentID string) ([]*model.Page, error) {
			return []*model.Page{
				{ID: "child-1", Slug: "kind", Live: true},
				{ID: "child-2", Slug: "entwurf", Live: false},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/pages/page-1", nil)
	w := httptest.NewRecorder()
	newPageRouter(finder).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Page     pageResponse   `json:"page"`
		Children []pageResponse `json:"children"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Page.Body != "<p>Inhalt</p>" {
		t.Errorf("body = %q, want %q", body.Page.Body, "<p>Inhalt</p>")
	}
	if len(body.Children) != 1 {
		t.Fatalf("len(children) = %d, want 1（非公開の子は除外される）", len(body.Children))
	}
	if body.Children[0].ID != "child-1" {
		t.Errorf("child id = %q, want %q", body.Children[0].ID, "child-1")
	}
}

func TestPageHandler_GetPage_NotFound(t *testing.T) {
	finder := &mockPageFinder{}

	req := httptest.NewRequest(http.MethodGet, "/api/pages/missing", nil)
	w := httptest.NewRecorder()
	newPageRouter(finder).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
