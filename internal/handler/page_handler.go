// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/migcontrol/website/internal/model"
)

// defaultPageLimit は一覧APIの既定の件数。
const defaultPageLimit = 20

// maxPageLimit は一覧APIの件数上限。
const maxPageLimit = 100

// PageFinder はページ参照APIが必要とする読み取り操作のインターフェース。
// repository.PageRepositoryが実装する。
type PageFinder interface {
	FindByID(ctx context.Context, id string) (*model.Page, error)
	GetChildren(ctx context.Context, parentID string) ([]*model.Page, error)
	ListLive(ctx context.Context, pageType model.PageType, limit, offset int) ([]*model.Page, error)
}

// pageResponse はページのJSON表現。
type pageResponse struct {
	ID                string     `json:"id"`
	PageType          string     `json:"pageType"`
	Slug              string     `json:"slug"`
	Title             string     `json:"title"`
	Locale            string     `json:"locale"`
	Body              string     `json:"body,omitempty"`
	SearchDescription string     `json:"searchDescription,omitempty"`
	ShortDescription  string     `json:"shortDescription,omitempty"`
	Authors           string     `json:"authors,omitempty"`
	OrganizationType  string     `json:"organizationType,omitempty"`
	CountryCodes      []string   `json:"countryCodes,omitempty"`
	Date              *time.Time `json:"date,omitempty"`
}

func toPageResponse(p *model.Page, includeBody bool) pageResponse {
	resp := pageResponse{
		ID:                p.ID,
		PageType:          string(p.PageType),
		Slug:              p.Slug,
		Title:             p.Title,
		Locale:            p.Locale,
		SearchDescription: p.SearchDescription,
		ShortDescription:  p.ShortDescription,
		Authors:           p.Authors,
		OrganizationType:  p.OrganizationType,
		CountryCodes:      p.CountryCodes,
		Date:              p.Date,
	}
	if includeBody {
		resp.Body = p.Body
	}
	return resp
}

// PageHandler はページ参照APIのハンドラー。
type PageHandler struct {
	pages PageFinder
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(pages PageFinder) *PageHandler {
	return &PageHandler{pages: pages}
}

// ListPages はGET /api/pagesを処理する。
// クエリパラメータ: type（ページ種別）、limit、offset。
func (h *PageHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := queryInt(r, "offset", 0)
	pageType := model.PageType(r.URL.Query().Get("type"))

	pages, err := h.pages.ListLive(r.Context(), pageType, limit, offset)
	if err != nil {
		slog.Error("ページ一覧の取得に失敗しました", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	items := make([]pageResponse, 0, len(pages))
	for _, p := range pages {
		items = append(items, toPageResponse(p, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": items})
}

// GetPage はGET /api/pages/{id}を処理する。本文と直下の子を含めて返す。
func (h *PageHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	page, err := h.pages.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("ページの取得に失敗しました", "pageId", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if page == nil {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}

	children, err := h.pages.GetChildren(r.Context(), page.ID)
	if err != nil {
		slog.Error("子ページの取得に失敗しました", "pageId", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	childItems := make([]pageResponse, 0, len(children))
	for _, c := range children {
		if c.Live {
			childItems = append(childItems, toPageResponse(c, false))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":     toPageResponse(page, true),
		"children": childItems,
	})
}

// queryInt はクエリパラメータを整数として読み取る。不正値は既定値を返す。
func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("レスポンスの書き込みに失敗しました", "error", err)
	}
}

// writeError はエラーレスポンスを書き込む。
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
