package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/migcontrol/website/internal/model"
)

func newTestRouter() http.Handler {
	return NewRouter(&RouterDeps{
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Pages:  &mockPageFinder{},
		Assets: &mockAssetFinder{},
		Mappings: &mockMappingFinder{
			findByURLFn: func(ctx context.Context, wpURL string) (*model.WordpressMapping, error) {
				if wpURL == "/2019/05/alter-beitrag" {
					return &model.WordpressMapping{ID: "m-1", PageID: "page-1"}, nil
				}
				return nil, nil
			},
		},
		MetricsRegistry: prometheus.NewRegistry(),
	})
}

func TestRouter_Healthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("body = %q, want to contain %q", w.Body.String(), "ok")
	}
}

func TestRouter_Metrics(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestRouter_LegacyURLFallback はルートにマッチしないパスが
// 旧URLリダイレクトにフォールバックすることを検証する。
func TestRouter_LegacyURLFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/2019/05/alter-beitrag", nil)
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusMovedPermanently)
	}
	if loc := w.Header().Get("Location"); loc != "/api/pages/page-1" {
		t.Errorf("Location = %q, want %q", loc, "/api/pages/page-1")
	}
}

func TestRouter_UnknownPathReturns404(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/gibt-es-nicht", nil)
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
