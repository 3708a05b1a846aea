package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/migcontrol/website/internal/model"
)

// AssetFinder はメディア配信が必要とするアセット検索のインターフェース。
// repository.AssetRepositoryが実装する。
type AssetFinder interface {
	FindImageByID(ctx context.Context, id string) (*model.Image, error)
	FindDocumentByID(ctx context.Context, id string) (*model.Document, error)
}

// AssetHandler はインポート済みメディアの配信ハンドラー。
type AssetHandler struct {
	assets AssetFinder
}

// NewAssetHandler はAssetHandlerを生成する。
func NewAssetHandler(assets AssetFinder) *AssetHandler {
	return &AssetHandler{assets: assets}
}

// GetImage はGET /api/images/{id}を処理し、画像本体を返す。
func (h *AssetHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	img, err := h.assets.FindImageByID(r.Context(), id)
	if err != nil {
		slog.Error("画像の取得に失敗しました", "imageId", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if img == nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}

	serveAsset(w, img.Mime, img.Filename, img.Data)
}

// GetDocument はGET /api/documents/{id}を処理し、ファイル本体を返す。
func (h *AssetHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.assets.FindDocumentByID(r.Context(), id)
	if err != nil {
		slog.Error("ドキュメントの取得に失敗しました", "documentId", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	serveAsset(w, doc.Mime, doc.Filename, doc.Data)
}

// serveAsset はアセット本体をレスポンスとして書き込む。
func serveAsset(w http.ResponseWriter, mime, filename string, data []byte) {
	if mime == "" {
		mime = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if filename != "" {
		w.Header().Set("Content-Disposition", `inline; filename="`+filename+`"`)
	}
	if _, err := w.Write(data); err != nil {
		slog.Error("アセットの書き込みに失敗しました", "error", err)
	}
}
