package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/migcontrol/website/internal/assets"
	"github.com/migcontrol/website/internal/metrics"
	"github.com/migcontrol/website/internal/model"
	"github.com/migcontrol/website/internal/repository"
	"github.com/migcontrol/website/internal/rewrite"
	"github.com/migcontrol/website/internal/taxonomy"
)

// RunOptions は1回のインポート実行のオプション。CLIフラグから組み立てられる。
type RunOptions struct {
	// IndexSlug はインポート先インデックスページのslug。
	IndexSlug string
	// PageType は作成するコンテンツページの種別。
	PageType model.PageType
	// UseLocale はカテゴリからのロケール決定と翻訳キーの割り当てを有効にする。
	UseLocale bool
	// LocaleOverride は決定規則を使わず固定ロケールでインポートする。
	LocaleOverride string
	// CreateOtherLocales は他ロケールのインデックス配下に対応ページを作成する。
	CreateOtherLocales bool
}

// RunStats は1回のインポート実行の結果集計。
type RunStats struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

// Importer はインポート実行のオーケストレータ。
// 投稿単位のエラーはログに記録してスキップし、バッチ全体は継続する。
type Importer struct {
	pages         repository.PageRepository
	users         repository.UserRepository
	reconciler    taxonomy.ReconcilerService
	mapper        assets.MapperService
	fetcher       assets.FetcherService
	rewriter      rewrite.RewriterService
	collector     metrics.MetricsCollector
	localeRules   []LocaleRule
	locales       []string
	defaultLocale string
	baseURL       string
	logger        *slog.Logger
}

// NewImporter はImporterの新しいインスタンスを生成する。
// baseURLは元サイトのURL。featured画像のREST解決に使用し、空の場合は解決しない。
func NewImporter(
	pages repository.PageRepository,
	users repository.UserRepository,
	reconciler taxonomy.ReconcilerService,
	mapper assets.MapperService,
	fetcher assets.FetcherService,
	rewriter rewrite.RewriterService,
	collector metrics.MetricsCollector,
	locales []string,
	defaultLocale string,
	baseURL string,
	logger *slog.Logger,
) *Importer {
	return &Importer{
		pages:         pages,
		users:         users,
		reconciler:    reconciler,
		mapper:        mapper,
		fetcher:       fetcher,
		rewriter:      rewriter,
		collector:     collector,
		localeRules:   DefaultLocaleRules,
		locales:       locales,
		defaultLocale: defaultLocale,
		baseURL:       baseURL,
		logger:        logger,
	}
}

// Run はパース済みの投稿列をインポートする。
// インデックスページが見つからない場合は実行全体を中断する。
// 個々の投稿のエラーはログに記録し、次の投稿の処理を継続する。
func (imp *Importer) Run(ctx context.Context, records []model.PostRecord, opts RunOptions) (*RunStats, error) {
	stats := &RunStats{}
	indexCache := make(map[string]*model.Page)

	for _, rec := range records {
		if rec.IsAttachment() {
			stats.Skipped++
			imp.collector.RecordPostSkipped("attachment")
			continue
		}
		if rec.PostType != "post" && rec.PostType != "page" {
			stats.Skipped++
			imp.collector.RecordPostSkipped("post_type")
			continue
		}
		if rec.Status == model.PostStatusOther {
			stats.Skipped++
			imp.collector.RecordPostSkipped("status")
			continue
		}

		locale := imp.localeFor(rec, opts)
		index, err := imp.findIndex(ctx, indexCache, opts, locale)
		if err != nil {
			return stats, err
		}

		created, err := imp.importPost(ctx, rec, index, locale, opts)
		if err != nil {
			stats.Failed++
			imp.recordFailure(rec, err)
			continue
		}
		if created {
			stats.Created++
			imp.collector.RecordPageCreated(string(opts.PageType))
		} else {
			stats.Updated++
			imp.collector.RecordPageUpdated(string(opts.PageType))
		}
	}

	imp.logger.Info("インポートが完了しました",
		"created", stats.Created, "updated", stats.Updated,
		"skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}

// localeFor は投稿のインポート先ロケールを決定する。
func (imp *Importer) localeFor(rec model.PostRecord, opts RunOptions) string {
	if opts.LocaleOverride != "" {
		return opts.LocaleOverride
	}
	if opts.UseLocale {
		return DetermineLocale(imp.localeRules, rec.Terms, imp.defaultLocale)
	}
	return imp.defaultLocale
}

// findIndex はロケールごとのインデックスページを取得する。
// 見つからない場合は実行全体を中断する致命的エラーを返す。
func (imp *Importer) findIndex(ctx context.Context, cache map[string]*model.Page, opts RunOptions, locale string) (*model.Page, error) {
	if index, ok := cache[locale]; ok {
		return index, nil
	}

	indexType := model.IndexTypeFor(opts.PageType)
	index, err := imp.pages.FindIndex(ctx, opts.IndexSlug, indexType, locale)
	if err != nil {
		return nil, err
	}
	if index == nil {
		return nil, fmt.Errorf("%w: slug=%s type=%s locale=%s",
			model.ErrIndexPageNotFound, opts.IndexSlug, indexType, locale)
	}
	cache[locale] = index
	return index, nil
}

// importPost は1つの投稿をインポートする。戻り値は新規作成されたかどうか。
func (imp *Importer) importPost(ctx context.Context, rec model.PostRecord, index *model.Page, locale string, opts RunOptions) (bool, error) {
	owner, err := imp.ensureUser(ctx, rec.Creator)
	if err != nil {
		return false, err
	}

	body, err := imp.rewriter.RewriteBody(ctx, rec.Content)
	if err != nil {
		return false, err
	}

	existing, err := imp.pages.FindChild(ctx, index.ID, rec.Slug, opts.PageType)
	if err != nil {
		return false, err
	}

	created := existing == nil
	page := existing
	if created {
		page = &model.Page{
			ID:       uuid.NewString(),
			PageType: opts.PageType,
			Slug:     rec.Slug,
			Locale:   locale,
		}
		if opts.UseLocale || opts.CreateOtherLocales {
			page.TranslationKey = uuid.NewString()
		}
	}

	// タイトルと本文はインポータが常に上書きする
	page.Title = NormalizeTitle(rec.Title)
	page.Body = body
	page.Date = rec.Date
	page.Live = rec.Status == model.PostStatusPublish
	if owner != nil {
		page.OwnerID = owner.ID
	}

	// 手動編集を保護するため、説明と著者は空の場合のみ設定する
	if page.SearchDescription == "" {
		page.SearchDescription = rec.Excerpt
	}
	if page.Authors == "" && owner != nil {
		page.Authors = owner.DisplayName()
	}

	if err := applyMetaRules(page, rec.Meta); err != nil {
		return false, err
	}

	if page.HeaderImageID == "" {
		imp.resolveFeaturedImage(ctx, rec, page)
	}

	if created {
		if err := imp.pages.CreateChild(ctx, index.ID, page); err != nil {
			return false, err
		}
	} else {
		if err := imp.pages.Update(ctx, page); err != nil {
			return false, err
		}
	}

	// 脚注はページに紐づくため、ページ保存後に抽出する
	withFootnotes, err := imp.rewriter.ExtractFootnotes(ctx, page.ID, page.Body)
	if err != nil {
		return created, err
	}
	if withFootnotes != page.Body {
		page.Body = withFootnotes
		if err := imp.pages.Update(ctx, page); err != nil {
			return created, err
		}
	}

	if err := imp.applyTaxonomy(ctx, rec, page); err != nil {
		return created, err
	}

	if err := imp.applyLocations(ctx, rec, page, index); err != nil {
		return created, err
	}

	if err := imp.mapper.RecordPageMapping(ctx, rec.OriginURL, &rec.ID, page.ID); err != nil {
		return created, err
	}

	if opts.CreateOtherLocales {
		if err := imp.createOtherLocales(ctx, rec, page, opts); err != nil {
			return created, err
		}
	}

	imp.logger.Info("投稿をインポートしました",
		"title", page.Title, "slug", page.Slug, "locale", locale, "created", created)
	return created, nil
}

// ensureUser は投稿の作成者ユーザーを取得または作成する。
// 作成者情報がない投稿はnilを返す。
func (imp *Importer) ensureUser(ctx context.Context, creator model.Creator) (*model.User, error) {
	if creator.Username == "" {
		return nil, nil
	}

	existing, err := imp.users.FindByUsername(ctx, creator.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	u := &model.User{
		ID:        uuid.NewString(),
		Username:  creator.Username,
		FirstName: creator.FirstName,
		LastName:  creator.LastName,
	}
	if err := imp.users.Create(ctx, u); err != nil {
		return nil, err
	}
	imp.logger.Info("ユーザーを作成しました", "username", u.Username)
	return u, nil
}

// applyTaxonomy は投稿のカテゴリ/タグを照合してページに関連付ける。
// ロケール決定のマーカーカテゴリはタクソノミーとしては扱わない。
func (imp *Importer) applyTaxonomy(ctx context.Context, rec model.PostRecord, page *model.Page) error {
	var categories []*model.Category
	for _, term := range rec.Categories() {
		if isLocaleMarker(imp.localeRules, term.Slug) {
			continue
		}
		c, err := imp.reconciler.ReconcileCategory(ctx, term)
		if err != nil {
			return err
		}
		categories = append(categories, c)
	}

	var tags []*model.Tag
	for _, term := range rec.Tags() {
		t, err := imp.reconciler.ReconcileTag(ctx, term)
		if err != nil {
			return err
		}
		tags = append(tags, t)
	}

	return imp.reconciler.Associate(ctx, page.ID, categories, tags)
}

// applyLocations は拠点カスタムフィールドを拠点ページに解決して関連付ける。
// 各要素の国コードは「Berlin (de)」の括弧付きコードから取り、
// 拠点ページはインデックス配下にslug「名前-国コード」で作成される。
// 国コードを持たない要素を含むリストは不完全として全体をスキップする。
func (imp *Importer) applyLocations(ctx context.Context, rec model.PostRecord, page *model.Page, index *model.Page) error {
	value, ok := rec.Meta[locationsMetaKey]
	if !ok {
		return nil
	}

	locations := ParseLocations(value)
	if locations == nil {
		if strings.TrimSpace(value) != "" {
			imp.logger.Warn("国コードのない拠点を含むためリスト全体をスキップします",
				"postId", rec.ID, "value", value)
		}
		return nil
	}

	var locationIDs []string
	for _, loc := range locations {
		slug := model.Slugify(loc.Name) + "-" + loc.CountryCode

		location, err := imp.pages.FindChild(ctx, index.ID, slug, model.PageTypeLocation)
		if err != nil {
			return err
		}
		if location == nil {
			location = &model.Page{
				ID:           uuid.NewString(),
				PageType:     model.PageTypeLocation,
				Slug:         slug,
				Title:        loc.Name,
				Locale:       page.Locale,
				LocationName: loc.Name,
				CountryCodes: []string{loc.CountryCode},
				Live:         true,
			}
			if err := imp.pages.CreateChild(ctx, index.ID, location); err != nil {
				return err
			}
			imp.logger.Info("拠点ページを作成しました", "name", loc.Name, "slug", slug)
		}
		locationIDs = append(locationIDs, location.ID)
	}

	return imp.reconciler.AssociateLocations(ctx, page.ID, locationIDs)
}

// resolveFeaturedImage は投稿のfeatured画像をページのヘッダー画像に設定する。
// 失敗はログに記録するのみで、ページのインポートは継続する。
func (imp *Importer) resolveFeaturedImage(ctx context.Context, rec model.PostRecord, page *model.Page) {
	// エクスポートに含まれるサムネイルIDを優先する
	if idStr, ok := rec.Meta["_thumbnail_id"]; ok {
		if id, err := strconv.Atoi(idStr); err == nil {
			img, err := imp.mapper.FindImageByPostID(ctx, id)
			if err != nil {
				imp.logger.Warn("サムネイルIDの解決に失敗しました", "postId", rec.ID, "error", err)
			} else if img != nil {
				page.HeaderImageID = img.ID
				return
			}
		}
	}

	if imp.baseURL == "" {
		return
	}

	var payload struct {
		FeaturedMedia int `json:"featured_media"`
		Embedded      struct {
			FeaturedMedia []struct {
				SourceURL string `json:"source_url"`
			} `json:"wp:featuredmedia"`
		} `json:"_embedded"`
	}
	endpoint := fmt.Sprintf("%s/wp-json/wp/v2/posts/%d?_embed", imp.baseURL, rec.ID)
	if err := imp.fetcher.FetchJSON(ctx, endpoint, &payload); err != nil {
		imp.logger.Warn("featured画像の問い合わせに失敗しました", "postId", rec.ID, "error", err)
		return
	}

	if payload.FeaturedMedia != 0 {
		img, err := imp.mapper.FindImageByPostID(ctx, payload.FeaturedMedia)
		if err != nil {
			imp.logger.Warn("featured画像の解決に失敗しました", "postId", rec.ID, "error", err)
			return
		}
		if img != nil {
			page.HeaderImageID = img.ID
			return
		}
	}

	if len(payload.Embedded.FeaturedMedia) > 0 && payload.Embedded.FeaturedMedia[0].SourceURL != "" {
		img, err := imp.mapper.FindOrFetchImage(ctx, payload.Embedded.FeaturedMedia[0].SourceURL, nil)
		if err != nil {
			imp.logger.Warn("featured画像の取得に失敗しました", "postId", rec.ID, "error", err)
			return
		}
		page.HeaderImageID = img.ID
	}
}

// createOtherLocales は他ロケールのインデックス配下に対応ページを作成する。
// 対応ページは同じ翻訳キーを持つ非公開の複製として作成され、
// 既に存在するロケールには何もしない。インデックスのないロケールはスキップする。
func (imp *Importer) createOtherLocales(ctx context.Context, rec model.PostRecord, page *model.Page, opts RunOptions) error {
	indexType := model.IndexTypeFor(opts.PageType)

	for _, locale := range imp.locales {
		if locale == page.Locale {
			continue
		}

		index, err := imp.pages.FindIndex(ctx, opts.IndexSlug, indexType, locale)
		if err != nil {
			return err
		}
		if index == nil {
			continue
		}

		existing, err := imp.pages.FindChild(ctx, index.ID, page.Slug, opts.PageType)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		counterpart := &model.Page{
			ID:                uuid.NewString(),
			PageType:          page.PageType,
			Slug:              page.Slug,
			Title:             page.Title,
			Locale:            locale,
			TranslationKey:    page.TranslationKey,
			Body:              page.Body,
			SearchDescription: page.SearchDescription,
			ShortDescription:  page.ShortDescription,
			Authors:           page.Authors,
			OwnerID:           page.OwnerID,
			OrganizationType:  page.OrganizationType,
			CountryCodes:      page.CountryCodes,
			HeaderImageID:     page.HeaderImageID,
			Date:              page.Date,
			// 翻訳前の複製のため非公開で作成する
			Live: false,
		}
		if err := imp.pages.CreateChild(ctx, index.ID, counterpart); err != nil {
			return err
		}
		imp.logger.Info("他ロケールの対応ページを作成しました", "slug", page.Slug, "locale", locale)
	}
	return nil
}

// recordFailure は投稿単位の失敗をログとメトリクスに記録する。
func (imp *Importer) recordFailure(rec model.PostRecord, err error) {
	reason := "error"
	var residual *model.ResidualShortcodeError
	if errors.As(err, &residual) {
		reason = "residual_shortcode"
		imp.collector.RecordResidualShortcode()
	}
	imp.collector.RecordPostFailed(reason)
	imp.logger.Error("投稿のインポートに失敗しました",
		"postId", rec.ID, "title", rec.Title, "error", err)
}
