package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	// 画像フォーマットのデコーダ登録
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/time/rate"

	"github.com/migcontrol/website/internal/model"
)

// userAgent はアセット取得リクエストのUser-Agentヘッダー。
const userAgent = "migcontrol-importer/1.0"

// FetchGuard はSSRF防止付きHTTPクライアントの提供インターフェース。
// security.FetchGuardServiceが実装する。
type FetchGuard interface {
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
	ValidateURL(rawURL string) error
}

// FetcherService はリモートアセット取得のインターフェース。
// 全ての失敗は*model.FetchErrorとして返され、呼び出し側は該当参照を
// スキップして処理を継続する。
type FetcherService interface {
	// FetchImage は指定URLから画像を取得してデコード検証する。
	// デコードできないレスポンス（HTMLエラーページ等）は失敗として扱う。
	FetchImage(ctx context.Context, imageURL string) (*model.Image, error)

	// FetchDocument は指定URLからドキュメント（PDF等）を取得する。
	FetchDocument(ctx context.Context, docURL string) (*model.Document, error)

	// FetchJSON は指定URLからJSONを取得してtargetにデコードする。
	// WordPress REST API（featured media解決）で使用する。
	FetchJSON(ctx context.Context, jsonURL string, target any) error
}

// Fetcher はFetcherServiceの実装。
// 元サイトへの負荷を抑えるため、全リクエストはレートリミッタを通過する。
type Fetcher struct {
	guard   FetchGuard
	limiter *rate.Limiter
	timeout time.Duration
	maxSize int64
	logger  *slog.Logger
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
// requestsPerSecondは元サイトへの毎秒リクエスト数の上限。
func NewFetcher(guard FetchGuard, requestsPerSecond float64, timeout time.Duration, maxSize int64, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		guard:   guard,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		timeout: timeout,
		maxSize: maxSize,
		logger:  logger,
	}
}

// FetchImage は指定URLから画像を取得してデコード検証する。
func (f *Fetcher) FetchImage(ctx context.Context, imageURL string) (*model.Image, error) {
	body, contentType, err := f.fetch(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	// レスポンスが実際に画像としてデコード可能かを検証する。
	// 削除済みURLがHTMLの404ページを返すケースを弾く。
	cfg, format, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return nil, &model.FetchError{URL: imageURL, Reason: "画像としてデコードできません", Err: err}
	}

	mime := extractMimeType(contentType)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/" + format
	}

	filename := FilenameFromURL(imageURL)
	return &model.Image{
		Title:    TitleFromFilename(filename),
		Filename: filename,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Mime:     mime,
		Data:     body,
	}, nil
}

// FetchDocument は指定URLからドキュメントを取得する。
func (f *Fetcher) FetchDocument(ctx context.Context, docURL string) (*model.Document, error) {
	body, contentType, err := f.fetch(ctx, docURL)
	if err != nil {
		return nil, err
	}

	filename := FilenameFromURL(docURL)
	return &model.Document{
		Title:    TitleFromFilename(filename),
		Filename: filename,
		Mime:     extractMimeType(contentType),
		Data:     body,
	}, nil
}

// FetchJSON は指定URLからJSONを取得してtargetにデコードする。
func (f *Fetcher) FetchJSON(ctx context.Context, jsonURL string, target any) error {
	body, _, err := f.fetch(ctx, jsonURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &model.FetchError{URL: jsonURL, Reason: "JSONとして解釈できません", Err: err}
	}
	return nil
}

// fetch はレートリミッタとSSRF防止を経由してURLを取得する。
func (f *Fetcher) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if rawURL == "" {
		return nil, "", &model.FetchError{URL: rawURL, Reason: "URLが空です"}
	}

	if err := f.guard.ValidateURL(rawURL); err != nil {
		return nil, "", &model.FetchError{URL: rawURL, Reason: "URL検証に失敗", Err: err}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", &model.FetchError{URL: rawURL, Reason: "レート制限待機が中断されました", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", &model.FetchError{URL: rawURL, Reason: "リクエスト作成に失敗", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	client := f.guard.NewSafeClient(f.timeout, f.maxSize)
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", &model.FetchError{URL: rawURL, Reason: "HTTPリクエストに失敗", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &model.FetchError{URL: rawURL, Reason: fmt.Sprintf("HTTPステータス異常: %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, "", &model.FetchError{URL: rawURL, Reason: "レスポンス読み取りに失敗", Err: err}
	}
	if int64(len(body)) > f.maxSize {
		return nil, "", &model.FetchError{URL: rawURL, Reason: fmt.Sprintf("サイズ超過: %dバイトを超えました", f.maxSize)}
	}

	f.logger.Debug("アセットを取得しました", "url", rawURL, "size", len(body))
	return body, resp.Header.Get("Content-Type"), nil
}

// extractMimeType はContent-Typeヘッダーからメディアタイプを抽出する。
func extractMimeType(contentType string) string {
	if contentType == "" {
		return ""
	}
	parts := strings.SplitN(contentType, ";", 2)
	return strings.TrimSpace(strings.ToLower(parts[0]))
}
