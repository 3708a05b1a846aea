package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// インポート対象の本文をリライトパイプラインに通す前の段階で使用される。
type ContentSanitizerService interface {
	// Sanitize は投稿本文をサニタイズして安全なHTMLを返す。
	// 許可リストに含まれるタグのみを通過させ、script, iframe, style タグ
	// および on* イベント属性を除去する。
	// 内部リンク（/?p=17 等の相対URL）はリンク解決で必要なため通過させる。
	// imgタグのclass属性は配置指定（alignleft等）の判定で必要なため保持する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string

	// SanitizeFootnote は脚注テキストをサニタイズする。
	// 脚注はインラインの限定的なマークアップ（a, em, strong）のみ許可する。
	SanitizeFootnote(rawHTML string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy         *bluemonday.Policy
	footnotePolicy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのカスタムポリシーを構築する。
// ポリシーの内容:
//   - 許可タグ: p, br, a, h1〜h5, ul, ol, li, blockquote, pre, code,
//     strong, em, b, i, img, caption
//   - 禁止タグ: script, iframe, style および全ての on* イベント属性
//   - aタグ: href属性を許可（相対URLを含む。内部リンク解決で使用）
//   - imgタグ: src, alt, class属性を許可
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"h1", "h2", "h3", "h4", "h5",
		"blockquote", "pre", "code",
		"strong", "em", "b", "i",
		"caption",
	)

	// 内部リンク（/?p=17, /wp-content/uploads/... 等）は後段のリンク解決で
	// マッピングテーブルと照合するため、相対URLを含めて保持する。
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")

	// class属性は画像の配置指定（alignleft, alignright）の判定に使用する。
	p.AllowAttrs("src", "alt", "class").OnElements("img")

	fp := bluemonday.NewPolicy()
	fp.AllowElements("em", "strong")
	fp.AllowAttrs("href").OnElements("a")
	fp.AllowURLSchemes("http", "https")

	return &contentSanitizer{
		policy:         p,
		footnotePolicy: fp,
	}
}

// Sanitize は投稿本文をサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// SanitizeFootnote は脚注テキストをサニタイズする。
func (s *contentSanitizer) SanitizeFootnote(rawHTML string) string {
	return s.footnotePolicy.Sanitize(rawHTML)
}
