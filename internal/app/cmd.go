package app

import (
	"flag"
	"fmt"

	"github.com/migcontrol/website/internal/model"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandImport はWXRファイルからコンテンツをインポートする。
	CommandImport Command = "import"
	// CommandImportMedia はWXRファイルから添付メディアをインポートする。
	CommandImportMedia Command = "import-media"
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "import":
		return CommandImport
	case "import-media":
		return CommandImportMedia
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// ImportOptions はimportサブコマンドのオプション。
type ImportOptions struct {
	// XMLPath はWXRエクスポートファイルのパス。
	XMLPath string
	// IndexSlug はインポート先インデックスページのslug。
	IndexSlug string
	// PageType は作成するコンテンツページの種別。
	PageType model.PageType
	// UseLocale はカテゴリからのロケール決定を有効にする。
	UseLocale bool
	// Locale は決定規則を使わず固定ロケールでインポートする。
	Locale string
	// WpBaseURL は元WordPressサイトのベースURL。
	WpBaseURL string
	// CreateOtherLocales は他ロケールのインデックス配下に対応ページを作成する。
	CreateOtherLocales bool
	// Atomic は実行全体を1つのトランザクションで行う。
	Atomic bool
}

// ParseImportOptions はimportサブコマンドの引数を解析する。
// フラグの後に位置引数としてXMLパスとインデックスslugを取る。
func ParseImportOptions(args []string) (*ImportOptions, error) {
	opts := &ImportOptions{}
	var pageType string

	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.StringVar(&pageType, "page-type", string(model.PageTypeBlogPage), "作成するページ種別 (blog_page, archive_page, wiki_page)")
	fs.BoolVar(&opts.UseLocale, "use-locale", false, "カテゴリからロケールを決定する")
	fs.StringVar(&opts.Locale, "locale", "", "固定ロケールでインポートする")
	fs.StringVar(&opts.WpBaseURL, "wp-base-url", "", "元WordPressサイトのベースURL")
	fs.BoolVar(&opts.CreateOtherLocales, "create-other-locales", false, "他ロケールに対応ページを作成する")
	fs.BoolVar(&opts.Atomic, "atomic", false, "実行全体を1トランザクションで行う")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 2 {
		return nil, fmt.Errorf("usage: import [flags] <xml-path> <index-slug>")
	}
	opts.XMLPath = fs.Arg(0)
	opts.IndexSlug = fs.Arg(1)

	switch model.PageType(pageType) {
	case model.PageTypeBlogPage, model.PageTypeArchivePage, model.PageTypeWikiPage:
		opts.PageType = model.PageType(pageType)
	default:
		return nil, fmt.Errorf("unsupported page type: %q", pageType)
	}

	if opts.WpBaseURL == "" {
		return nil, fmt.Errorf("--wp-base-url is required")
	}

	return opts, nil
}

// MediaOptions はimport-mediaサブコマンドのオプション。
type MediaOptions struct {
	// XMLPath はWXRエクスポートファイルのパス。
	XMLPath string
	// WpBaseURL は元WordPressサイトのベースURL。
	WpBaseURL string
}

// ParseMediaOptions はimport-mediaサブコマンドの引数を解析する。
func ParseMediaOptions(args []string) (*MediaOptions, error) {
	opts := &MediaOptions{}

	fs := flag.NewFlagSet("import-media", flag.ContinueOnError)
	fs.StringVar(&opts.WpBaseURL, "wp-base-url", "", "元WordPressサイトのベースURL")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		return nil, fmt.Errorf("usage: import-media [flags] <xml-path>")
	}
	opts.XMLPath = fs.Arg(0)

	if opts.WpBaseURL == "" {
		return nil, fmt.Errorf("--wp-base-url is required")
	}

	return opts, nil
}
