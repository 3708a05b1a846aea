package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/migcontrol/website/internal/model"
)

// MappingFinder は旧URLリダイレクトが必要とするマッピング検索のインターフェース。
// repository.MappingRepositoryが実装する。
type MappingFinder interface {
	FindByURL(ctx context.Context, wpURL string) (*model.WordpressMapping, error)
	FindByPostID(ctx context.Context, wpPostID int) (*model.WordpressMapping, error)
}

// RedirectHandler は旧WordPress URLからの恒久リダイレクトを処理する。
// インポート時に記録されたマッピングを使い、/?p=17 形式と
// 旧パス形式の両方をインポート先エンティティに解決する。
type RedirectHandler struct {
	mappings MappingFinder
}

// NewRedirectHandler はRedirectHandlerを生成する。
func NewRedirectHandler(mappings MappingFinder) *RedirectHandler {
	return &RedirectHandler{mappings: mappings}
}

// Redirect は旧URLを解決して301を返す。解決できない場合は404。
func (h *RedirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	mapping, err := h.lookup(r)
	if err != nil {
		slog.Error("旧URLマッピングの検索に失敗しました", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if mapping == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	target := mapping.Destination()
	if target == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	http.Redirect(w, r, destinationPath(target), http.StatusMovedPermanently)
}

// lookup はリクエストを投稿IDまたはURLパスでマッピングに解決する。
func (h *RedirectHandler) lookup(r *http.Request) (*model.WordpressMapping, error) {
	if p := r.URL.Query().Get("p"); p != "" {
		postID, err := strconv.Atoi(p)
		if err == nil {
			return h.mappings.FindByPostID(r.Context(), postID)
		}
	}
	return h.mappings.FindByURL(r.Context(), r.URL.Path)
}

// destinationPath は解決先エンティティのAPIパスを返す。
func destinationPath(target *model.LinkTarget) string {
	switch target.Kind {
	case model.LinkKindImage:
		return "/api/images/" + target.ID
	case model.LinkKindDocument:
		return "/api/documents/" + target.ID
	default:
		return "/api/pages/" + target.ID
	}
}
