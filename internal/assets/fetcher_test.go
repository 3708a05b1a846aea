package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/migcontrol/website/internal/model"
)

// mockGuard はテスト用のFetchGuard。httptestのローカルサーバーに
// 接続できるよう、検証なしの素のHTTPクライアントを返す。
type mockGuard struct {
	validateErr error
}

func (g *mockGuard) NewSafeClient(timeout time.Duration, _ int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (g *mockGuard) ValidateURL(_ string) error {
	return g.validateErr
}

// pngBytes はテスト用の1x1 PNG画像を生成する。
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("PNG生成に失敗: %v", err)
	}
	return buf.Bytes()
}

func newTestFetcher(guard FetchGuard, maxSize int64) *Fetcher {
	return NewFetcher(guard, 1000, 5*time.Second, maxSize, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// TestFetchImage_Success は画像取得とデコード検証を検証する。
func TestFetchImage_Success(t *testing.T) {
	data := pngBytes(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer server.Close()

	fetcher := newTestFetcher(&mockGuard{}, 1024*1024)
	img, err := fetcher.FetchImage(context.Background(), server.URL+"/uploads/photo.png")
	if err != nil {
		t.Fatalf("FetchImage error = %v", err)
	}
	if img.Width != 1 || img.Height != 1 {
		t.Errorf("サイズ = %dx%d, want 1x1", img.Width, img.Height)
	}
	if img.Mime != "image/png" {
		t.Errorf("Mime = %q, want image/png", img.Mime)
	}
	if img.Filename != "photo.png" {
		t.Errorf("Filename = %q, want photo.png", img.Filename)
	}
	if img.Title != "photo" {
		t.Errorf("Title = %q, want photo", img.Title)
	}
}

// TestFetchImage_NotAnImage はHTMLレスポンスが失敗として扱われることを検証する。
// 削除済みURLが404ページをHTTP 200で返すケースに相当する。
func TestFetchImage_NotAnImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>Not Found</body></html>"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(&mockGuard{}, 1024*1024)
	_, err := fetcher.FetchImage(context.Background(), server.URL+"/gone.jpg")

	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("FetchErrorが返るべき: %v", err)
	}
}

// TestFetchImage_HTTPError はHTTPエラーステータスの扱いを検証する。
func TestFetchImage_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newTestFetcher(&mockGuard{}, 1024*1024)
	_, err := fetcher.FetchImage(context.Background(), server.URL+"/missing.jpg")

	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("FetchErrorが返るべき: %v", err)
	}
}

// TestFetch_SizeLimit はサイズ上限超過の扱いを検証する。
func TestFetch_SizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("a"), 2048))
	}))
	defer server.Close()

	fetcher := newTestFetcher(&mockGuard{}, 1024)
	_, err := fetcher.FetchDocument(context.Background(), server.URL+"/big.pdf")

	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("FetchErrorが返るべき: %v", err)
	}
}

// TestFetch_SSRFBlocked はURL検証失敗時にリクエストが送信されないことを検証する。
func TestFetch_SSRFBlocked(t *testing.T) {
	requested := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer server.Close()

	fetcher := newTestFetcher(&mockGuard{validateErr: errors.New("blocked")}, 1024)
	_, err := fetcher.FetchImage(context.Background(), server.URL+"/a.jpg")

	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("FetchErrorが返るべき: %v", err)
	}
	if requested {
		t.Error("ブロック対象URLへのリクエストが送信された")
	}
}

// TestFetchDocument はドキュメント取得を検証する。
func TestFetchDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 dummy"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(&mockGuard{}, 1024*1024)
	doc, err := fetcher.FetchDocument(context.Background(), server.URL+"/uploads/report.pdf")
	if err != nil {
		t.Fatalf("FetchDocument error = %v", err)
	}
	if doc.Filename != "report.pdf" {
		t.Errorf("Filename = %q, want report.pdf", doc.Filename)
	}
	if doc.Mime != "application/pdf" {
		t.Errorf("Mime = %q, want application/pdf", doc.Mime)
	}
}

// TestFetchJSON はJSON取得とデコードを検証する。
func TestFetchJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"featured_media": 42}`))
	}))
	defer server.Close()

	fetcher := newTestFetcher(&mockGuard{}, 1024*1024)
	var payload struct {
		FeaturedMedia int `json:"featured_media"`
	}
	if err := fetcher.FetchJSON(context.Background(), server.URL+"/wp-json/wp/v2/posts/1", &payload); err != nil {
		t.Fatalf("FetchJSON error = %v", err)
	}
	if payload.FeaturedMedia != 42 {
		t.Errorf("FeaturedMedia = %d, want 42", payload.FeaturedMedia)
	}
}
