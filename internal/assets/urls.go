// Package assets はリモートアセットの取得とWordPressマッピングの管理を提供する。
//
// 元サイトのXMLに現れる画像・ドキュメント参照を取得済みアセットに解決し、
// WordPress側の識別子（URL、投稿ID）との対応をマッピングテーブルに記録する。
// マッピングは実行をまたいで永続化され、再インポート時の冪等性を保証する。
package assets

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// resizeSuffixPattern はWordPressのリサイズ版ファイル名のサフィックス
// （photo-300x200.jpg 等）にマッチする。
var resizeSuffixPattern = regexp.MustCompile(`-\d+x\d+(\.[a-zA-Z0-9]+)$`)

// PrepareURL は元サイトのアセットURLを取得可能な絶対URLに正規化する。
//   - プロトコル相対URL（//host/path）には http: を補う
//   - ルート相対URL（/wp-content/...）にはbaseURLを前置する
//   - リサイズ版サフィックス（-300x200等）を除去して原寸ファイルを指す
//
// baseURLは末尾スラッシュなしの元サイトURL（https://example.org 等）。
func PrepareURL(rawURL, baseURL string) string {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return ""
	}

	if strings.HasPrefix(u, "//") {
		u = "http:" + u
	} else if strings.HasPrefix(u, "/") {
		u = strings.TrimRight(baseURL, "/") + u
	}

	return StripResizeSuffix(u)
}

// StripResizeSuffix はリサイズ版ファイル名のサフィックスを除去する。
// photo-300x200.jpg は photo.jpg になる。サフィックスがない場合はそのまま返す。
func StripResizeSuffix(u string) string {
	return resizeSuffixPattern.ReplaceAllString(u, "$1")
}

// FilenameFromURL はURLのパス末尾からファイル名を取り出す。
// クエリ文字列とフラグメントは無視する。パスにファイル名が含まれない場合
// （ルートURL等）は空文字列を返す。
func FilenameFromURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// TitleFromFilename はファイル名から拡張子を除いたタイトルを返す。
func TitleFromFilename(filename string) string {
	ext := path.Ext(filename)
	return strings.TrimSuffix(filename, ext)
}

// IsUploadsPath はURLまたはパスがWordPressのアップロード領域を指すかを判定する。
func IsUploadsPath(u string) bool {
	return strings.Contains(u, "/wp-content/uploads/")
}
