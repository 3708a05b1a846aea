package model

import "time"

// PageType はページツリー上のノード種別を表す。
// インデックスページ（コンテナ）とコンテンツページのペアで構成される。
type PageType string

const (
	// PageTypeBlogIndex はブログ記事のコンテナページ。
	PageTypeBlogIndex PageType = "blog_index"
	// PageTypeBlogPage はブログ記事ページ。
	PageTypeBlogPage PageType = "blog_page"
	// PageTypeArchiveIndex はアーカイブ（組織資料）のコンテナページ。
	PageTypeArchiveIndex PageType = "archive_index"
	// PageTypeArchivePage はアーカイブページ。
	PageTypeArchivePage PageType = "archive_page"
	// PageTypeWikiIndex はWikiのコンテナページ。
	PageTypeWikiIndex PageType = "wiki_index"
	// PageTypeWikiPage はWikiページ。
	PageTypeWikiPage PageType = "wiki_page"
	// PageTypeLocation は拠点・所在地ページ。アーカイブページから参照される。
	PageTypeLocation PageType = "location_page"
)

// IndexTypeFor はコンテンツページ種別に対応するインデックス種別を返す。
// 対応が定義されていない場合は空文字列を返す。
func IndexTypeFor(pt PageType) PageType {
	switch pt {
	case PageTypeBlogPage:
		return PageTypeBlogIndex
	case PageTypeArchivePage:
		return PageTypeArchiveIndex
	case PageTypeWikiPage:
		return PageTypeWikiIndex
	case PageTypeLocation:
		return PageTypeArchiveIndex
	}
	return ""
}

// Page はページツリー上の1ノードを表す。
// 親子関係はParentIDの隣接リストで保持し、パス/深さのエンコードは持たない。
type Page struct {
	ID       string
	ParentID string
	PageType PageType
	Slug     string
	Title    string
	// Locale は言語コード（"en", "de" 等）。
	Locale string
	// TranslationKey は同一コンテンツの多言語ページを束ねるキー。
	// ロケール対応インポートの場合のみ設定される。
	TranslationKey string
	// Body はリライト済みのリッチテキストHTML。
	Body              string
	SearchDescription string
	ShortDescription  string
	// Authors は表示用の著者名（カンマ区切りの自由テキスト）。
	Authors string
	OwnerID string
	// OrganizationType はアーカイブページの組織種別。
	OrganizationType string
	// CountryCodes はISO 3166-1 alpha-2の国コード集合。
	CountryCodes []string
	// LocationName は拠点ページの表示名。
	LocationName  string
	HeaderImageID string
	Date          *time.Time
	Live          bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LinkKind は内部リンクの解決先種別を表す。
type LinkKind string

const (
	// LinkKindPage はページへの内部リンク。
	LinkKindPage LinkKind = "page"
	// LinkKindImage は画像への内部リンク。
	LinkKindImage LinkKind = "image"
	// LinkKindDocument はドキュメントへの内部リンク。
	LinkKindDocument LinkKind = "document"
)

// LinkTarget は内部リンクの解決結果を表す。
type LinkTarget struct {
	Kind LinkKind
	ID   string
}
