package assets

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/migcontrol/website/internal/model"
	"github.com/migcontrol/website/internal/repository"
)

// MapperService はアセット参照の解決とWordPressマッピング管理のインターフェース。
//
// 同一の元URLに対する2回目以降の呼び出しは再取得せず、マッピング経由で
// 保存済みアセットを返す。これによりインポートの再実行が冪等になる。
type MapperService interface {
	// FindOrFetchImage は元サイトの画像URLを保存済み画像に解決する。
	// 未取得の場合はダウンロードして保存し、マッピングを記録する。
	// wpPostIDが非nilの場合（添付ファイル投稿由来）はマッピングに投稿IDも記録する。
	FindOrFetchImage(ctx context.Context, rawURL string, wpPostID *int) (*model.Image, error)

	// FindOrFetchDocument は元サイトのドキュメントURLを保存済みドキュメントに解決する。
	FindOrFetchDocument(ctx context.Context, rawURL string, wpPostID *int) (*model.Document, error)

	// ResolveInternalLink は本文中のリンクhrefを内部エンティティに解決する。
	// /?p=17 形式は投稿IDで、それ以外はURLでマッピングを検索する。
	// 解決できない場合は(nil, nil)を返し、呼び出し側は元のhrefを保持する。
	ResolveInternalLink(ctx context.Context, href string) (*model.LinkTarget, error)

	// RecordPageMapping はページとWordPress識別子の対応を冪等に記録する。
	// URLキーと投稿IDキーが別々の行に分かれている場合は1行に統合する。
	RecordPageMapping(ctx context.Context, wpURL string, wpPostID *int, pageID string) error

	// FindImageByPostID は添付ファイル投稿IDから保存済み画像を検索する。
	// 見つからない場合はnilを返す。
	FindImageByPostID(ctx context.Context, wpPostID int) (*model.Image, error)

	// SetImageCaption は画像のキャプションを更新する。
	// captionショートコードの解決時に使用する。
	SetImageCaption(ctx context.Context, imageID, caption string) error
}

// Mapper はMapperServiceの実装。
type Mapper struct {
	fetcher  FetcherService
	mappings repository.MappingRepository
	assets   repository.AssetRepository
	// baseURL は元サイトのURL（末尾スラッシュなし）。ルート相対URLの解決に使用する。
	baseURL string
	logger  *slog.Logger
}

// NewMapper はMapperの新しいインスタンスを生成する。
func NewMapper(fetcher FetcherService, mappings repository.MappingRepository, assets repository.AssetRepository, baseURL string, logger *slog.Logger) *Mapper {
	return &Mapper{
		fetcher:  fetcher,
		mappings: mappings,
		assets:   assets,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
}

// FindOrFetchImage は元サイトの画像URLを保存済み画像に解決する。
func (m *Mapper) FindOrFetchImage(ctx context.Context, rawURL string, wpPostID *int) (*model.Image, error) {
	fetchURL := PrepareURL(rawURL, m.baseURL)
	if fetchURL == "" {
		return nil, &model.FetchError{URL: rawURL, Reason: "URLが空です"}
	}

	mapping, err := m.mappings.FindByURL(ctx, fetchURL)
	if err != nil {
		return nil, err
	}
	if mapping != nil && mapping.ImageID != "" {
		img, err := m.assets.FindImageByID(ctx, mapping.ImageID)
		if err != nil {
			return nil, err
		}
		if img != nil {
			return img, nil
		}
		// マッピングはあるが実体が消えている場合は再取得する
		m.logger.Warn("マッピング先の画像が存在しないため再取得します", "url", fetchURL, "imageId", mapping.ImageID)
	}

	img, err := m.fetcher.FetchImage(ctx, fetchURL)
	if err != nil {
		return nil, err
	}
	img.ID = uuid.NewString()
	if err := m.assets.CreateImage(ctx, img); err != nil {
		return nil, err
	}

	if err := m.upsertAssetMapping(ctx, mapping, fetchURL, wpPostID, img.ID, ""); err != nil {
		return nil, err
	}

	m.logger.Info("画像をインポートしました", "url", fetchURL, "imageId", img.ID, "width", img.Width, "height", img.Height)
	return img, nil
}

// FindOrFetchDocument は元サイトのドキュメントURLを保存済みドキュメントに解決する。
func (m *Mapper) FindOrFetchDocument(ctx context.Context, rawURL string, wpPostID *int) (*model.Document, error) {
	fetchURL := PrepareURL(rawURL, m.baseURL)
	if fetchURL == "" {
		return nil, &model.FetchError{URL: rawURL, Reason: "URLが空です"}
	}

	mapping, err := m.mappings.FindByURL(ctx, fetchURL)
	if err != nil {
		return nil, err
	}
	if mapping != nil && mapping.DocumentID != "" {
		doc, err := m.assets.FindDocumentByID(ctx, mapping.DocumentID)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			return doc, nil
		}
		m.logger.Warn("マッピング先のドキュメントが存在しないため再取得します", "url", fetchURL, "documentId", mapping.DocumentID)
	}

	doc, err := m.fetcher.FetchDocument(ctx, fetchURL)
	if err != nil {
		return nil, err
	}
	doc.ID = uuid.NewString()
	if err := m.assets.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	if err := m.upsertAssetMapping(ctx, mapping, fetchURL, wpPostID, "", doc.ID); err != nil {
		return nil, err
	}

	m.logger.Info("ドキュメントをインポートしました", "url", fetchURL, "documentId", doc.ID)
	return doc, nil
}

// ResolveInternalLink は本文中のリンクhrefを内部エンティティに解決する。
func (m *Mapper) ResolveInternalLink(ctx context.Context, href string) (*model.LinkTarget, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil, nil
	}

	// /?p=17 形式（元サイトの恒久リンク）は投稿IDで解決する
	if postID, ok := m.extractPostID(href); ok {
		mapping, err := m.mappings.FindByPostID(ctx, postID)
		if err != nil {
			return nil, err
		}
		if mapping == nil {
			return nil, nil
		}
		return mapping.Destination(), nil
	}

	// 元サイトを指すURLのみ解決対象とする。外部サイトへのリンクはそのまま残す。
	if !m.pointsToSource(href) {
		return nil, nil
	}

	mapping, err := m.mappings.FindByURL(ctx, PrepareURL(href, m.baseURL))
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, nil
	}
	return mapping.Destination(), nil
}

// RecordPageMapping はページとWordPress識別子の対応を冪等に記録する。
func (m *Mapper) RecordPageMapping(ctx context.Context, wpURL string, wpPostID *int, pageID string) error {
	var byPostID, byURL *model.WordpressMapping
	var err error

	if wpPostID != nil {
		byPostID, err = m.mappings.FindByPostID(ctx, *wpPostID)
		if err != nil {
			return err
		}
	}
	if wpURL != "" {
		byURL, err = m.mappings.FindByURL(ctx, wpURL)
		if err != nil {
			return err
		}
	}

	switch {
	case byPostID == nil && byURL == nil:
		return m.mappings.Create(ctx, &model.WordpressMapping{
			ID:       uuid.NewString(),
			WpURL:    wpURL,
			WpPostID: wpPostID,
			PageID:   pageID,
		})

	case byPostID != nil && byURL != nil && byPostID.ID != byURL.ID:
		// 過去の実行でURLキーと投稿IDキーが別行に分かれた場合は統合する
		byPostID.WpURL = wpURL
		byPostID.PageID = pageID
		if err := m.mappings.Update(ctx, byPostID); err != nil {
			return err
		}
		m.logger.Info("重複したマッピング行を統合しました", "kept", byPostID.ID, "removed", byURL.ID)
		return m.mappings.Delete(ctx, byURL.ID)

	default:
		mapping := byPostID
		if mapping == nil {
			mapping = byURL
		}
		if wpURL != "" {
			mapping.WpURL = wpURL
		}
		if wpPostID != nil {
			mapping.WpPostID = wpPostID
		}
		mapping.PageID = pageID
		return m.mappings.Update(ctx, mapping)
	}
}

// FindImageByPostID は添付ファイル投稿IDから保存済み画像を検索する。
func (m *Mapper) FindImageByPostID(ctx context.Context, wpPostID int) (*model.Image, error) {
	mapping, err := m.mappings.FindByPostID(ctx, wpPostID)
	if err != nil {
		return nil, err
	}
	if mapping == nil || mapping.ImageID == "" {
		return nil, nil
	}
	return m.assets.FindImageByID(ctx, mapping.ImageID)
}

// SetImageCaption は画像のキャプションを更新する。
func (m *Mapper) SetImageCaption(ctx context.Context, imageID, caption string) error {
	return m.assets.UpdateImageCaption(ctx, imageID, caption)
}

// upsertAssetMapping はアセット取得後のマッピング行を作成または更新する。
func (m *Mapper) upsertAssetMapping(ctx context.Context, existing *model.WordpressMapping, fetchURL string, wpPostID *int, imageID, documentID string) error {
	if existing != nil {
		existing.ImageID = imageID
		existing.DocumentID = documentID
		if wpPostID != nil {
			existing.WpPostID = wpPostID
		}
		return m.mappings.Update(ctx, existing)
	}
	return m.mappings.Create(ctx, &model.WordpressMapping{
		ID:         uuid.NewString(),
		WpURL:      fetchURL,
		WpPostID:   wpPostID,
		ImageID:    imageID,
		DocumentID: documentID,
	})
}

// extractPostID は /?p=17 形式のhrefから投稿IDを取り出す。
// 元サイトの絶対URL（https://example.org/?p=17）にも対応する。
func (m *Mapper) extractPostID(href string) (int, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return 0, false
	}
	if u.Host != "" && !m.pointsToSource(href) {
		return 0, false
	}
	if u.Path != "" && u.Path != "/" {
		return 0, false
	}
	p := u.Query().Get("p")
	if p == "" {
		return 0, false
	}
	id, err := strconv.Atoi(p)
	if err != nil {
		return 0, false
	}
	return id, true
}

// pointsToSource はhrefが元サイトを指すかを判定する。
// ルート相対パスと、baseURLをプレフィックスに持つ絶対URLが対象。
func (m *Mapper) pointsToSource(href string) bool {
	if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
		return true
	}
	if m.baseURL == "" {
		return false
	}
	base, err := url.Parse(m.baseURL)
	if err != nil {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return u.Host != "" && strings.EqualFold(u.Host, base.Host)
}
