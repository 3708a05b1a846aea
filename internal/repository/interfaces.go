// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/migcontrol/website/internal/model"
)

// PageRepository はページツリーの永続化インターフェース。
// 階層は親子の隣接関係としてのみ公開し、パス/深さのエンコードは実装の内部に隠す。
type PageRepository interface {
	// FindByID は指定IDのページを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Page, error)

	// FindIndex はslugとページ種別でインデックスページを検索する。
	// localeが空でない場合はロケールも一致条件に含める。見つからない場合はnilを返す。
	FindIndex(ctx context.Context, slug string, pageType model.PageType, locale string) (*model.Page, error)

	// FindChild は指定親の直下からslugとページ種別が一致する子を検索する。
	// 見つからない場合はnilを返す。
	FindChild(ctx context.Context, parentID, slug string, pageType model.PageType) (*model.Page, error)

	// CreateChild はページを指定親の子として作成する。
	// page.ParentIDは呼び出し時に設定されている必要はなく、parentIDで上書きされる。
	CreateChild(ctx context.Context, parentID string, page *model.Page) error

	// Update はページの全フィールドを更新する。
	Update(ctx context.Context, page *model.Page) error

	// GetChildren は指定ページの直下の子を返す。
	GetChildren(ctx context.Context, parentID string) ([]*model.Page, error)

	// GetDescendants は指定ページ配下の全子孫を返す（再帰CTE）。
	GetDescendants(ctx context.Context, rootID string) ([]*model.Page, error)

	// ListLive は公開中のコンテンツページを返す。pageTypeが空の場合は全種別。
	ListLive(ctx context.Context, pageType model.PageType, limit, offset int) ([]*model.Page, error)
}

// MappingRepository はWordPressマッピングテーブルの永続化インターフェース。
type MappingRepository interface {
	// FindByURL はwp_urlでマッピングを検索する。見つからない場合はnilを返す。
	FindByURL(ctx context.Context, wpURL string) (*model.WordpressMapping, error)

	// FindByPostID はwp_post_idでマッピングを検索する。見つからない場合はnilを返す。
	FindByPostID(ctx context.Context, wpPostID int) (*model.WordpressMapping, error)

	// Create はマッピングを作成する。
	Create(ctx context.Context, m *model.WordpressMapping) error

	// Update はマッピングを更新する。
	Update(ctx context.Context, m *model.WordpressMapping) error

	// Delete は指定IDのマッピングを削除する。マージ時の余剰行の掃除に使用する。
	Delete(ctx context.Context, id string) error
}

// AssetRepository は画像・ドキュメントアセットの永続化インターフェース。
// ファイル本体はbyteaカラムとして保持する。
type AssetRepository interface {
	// CreateImage は画像を作成する。
	CreateImage(ctx context.Context, img *model.Image) error

	// FindImageByID は指定IDの画像を取得する。見つからない場合はnilを返す。
	FindImageByID(ctx context.Context, id string) (*model.Image, error)

	// UpdateImageCaption は画像のキャプションを更新する。
	UpdateImageCaption(ctx context.Context, id, caption string) error

	// CreateDocument はドキュメントを作成する。
	CreateDocument(ctx context.Context, doc *model.Document) error

	// FindDocumentByID は指定IDのドキュメントを取得する。見つからない場合はnilを返す。
	FindDocumentByID(ctx context.Context, id string) (*model.Document, error)
}

// TaxonomyRepository はカテゴリ/タグとページの関連の永続化インターフェース。
type TaxonomyRepository interface {
	// FindCategoryByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindCategoryByID(ctx context.Context, id string) (*model.Category, error)

	// FindCategoryBySlug はslugでカテゴリを検索する。見つからない場合はnilを返す。
	FindCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)

	// CreateCategory はカテゴリを作成する。
	CreateCategory(ctx context.Context, c *model.Category) error

	// UpdateCategory はカテゴリの名前と親参照を更新する。
	UpdateCategory(ctx context.Context, c *model.Category) error

	// FindTagByName は名前でタグを検索する。見つからない場合はnilを返す。
	FindTagByName(ctx context.Context, name string) (*model.Tag, error)

	// CreateTag はタグを作成する。
	CreateTag(ctx context.Context, t *model.Tag) error

	// AssociateCategory はページとカテゴリの関連を冪等に作成する。
	// 過去の実行で生じた重複関連は1つに集約する。
	AssociateCategory(ctx context.Context, pageID, categoryID string) error

	// AssociateTag はページとタグの関連を冪等に作成する。
	AssociateTag(ctx context.Context, pageID, tagID string) error

	// AssociateLocation はページと拠点ページの関連を冪等に作成する。
	AssociateLocation(ctx context.Context, pageID, locationPageID string) error
}

// FootnoteRepository は脚注の永続化インターフェース。
type FootnoteRepository interface {
	// FindByPageAndText は同一ページ内の同一テキストの脚注を検索する。
	// 見つからない場合はnilを返す。
	FindByPageAndText(ctx context.Context, pageID, text string) (*model.Footnote, error)

	// Create は脚注を作成する。
	Create(ctx context.Context, f *model.Footnote) error
}

// UserRepository はユーザーの永続化インターフェース。
type UserRepository interface {
	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, u *model.User) error
}
