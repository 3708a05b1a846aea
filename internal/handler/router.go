package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/migcontrol/website/internal/metrics"
	"github.com/migcontrol/website/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ページ参照API
	Pages PageFinder

	// メディア配信
	Assets AssetFinder

	// 旧URLリダイレクト
	Mappings MappingFinder

	// メトリクス公開。nilの場合は/metricsを公開しない。
	MetricsRegistry *prometheus.Registry
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → LoggingMiddleware
//
// ルートにマッチしないリクエストは旧WordPress URLとみなし、
// リダイレクトハンドラーにフォールバックする。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	pageHandler := NewPageHandler(deps.Pages)
	assetHandler := NewAssetHandler(deps.Assets)
	redirectHandler := NewRedirectHandler(deps.Mappings)

	// 稼働確認
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.SetupMetricsRoute(deps.MetricsRegistry))
	}

	// ページ参照
	r.Route("/api/pages", func(r chi.Router) {
		r.Get("/", pageHandler.ListPages)
		r.Get("/{id}", pageHandler.GetPage)
	})

	// メディア配信
	r.Get("/api/images/{id}", assetHandler.GetImage)
	r.Get("/api/documents/{id}", assetHandler.GetDocument)

	// 旧WordPress URLのリダイレクト
	r.NotFound(redirectHandler.Redirect)

	return r
}
