// Package rewrite はWordPress本文HTMLのリライトパイプラインを提供する。
//
// 段落正規化、サニタイズ、captionショートコードの解決、画像の埋め込み
// マーカーへの変換、内部リンクの解決、脚注の抽出を順に適用し、
// インポート先のリッチテキスト形式に変換する。
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/migcontrol/website/internal/model"
	"github.com/migcontrol/website/internal/repository"
)

// AssetResolver はリライト中のアセット・リンク解決インターフェース。
// assets.MapperServiceが実装する。
type AssetResolver interface {
	FindOrFetchImage(ctx context.Context, rawURL string, wpPostID *int) (*model.Image, error)
	ResolveInternalLink(ctx context.Context, href string) (*model.LinkTarget, error)
	FindImageByPostID(ctx context.Context, wpPostID int) (*model.Image, error)
	SetImageCaption(ctx context.Context, imageID, caption string) error
}

// Sanitizer はHTMLサニタイズのインターフェース。
// security.ContentSanitizerServiceが実装する。
type Sanitizer interface {
	Sanitize(rawHTML string) string
	SanitizeFootnote(rawHTML string) string
}

// RewriterService は本文リライトのインターフェース。
type RewriterService interface {
	// RewriteBody は投稿本文をリッチテキスト形式に変換する。
	// 画像取得の失敗は該当参照を未解決のまま残して継続する。
	// 処理後にcaptionショートコードが残存する場合は
	// *model.ResidualShortcodeErrorを返す。
	RewriteBody(ctx context.Context, raw string) (string, error)

	// ExtractFootnotes は ((本文)) 形式の脚注をfootnoteタグに置き換える。
	// ページ内の同一テキストの脚注は1つに集約される。
	// ページ作成後に呼び出す必要がある（脚注はページに紐づくため）。
	// 対になっていないマーカーが残存する場合は
	// *model.ResidualShortcodeErrorを返す。
	ExtractFootnotes(ctx context.Context, pageID, body string) (string, error)
}

var (
	captionPattern  = regexp.MustCompile(`(?s)\[caption([^\]]*)\](.*?)\[/caption\]`)
	attachmentIDPat = regexp.MustCompile(`id="attachment_(\d+)"`)
	imgTagPattern   = regexp.MustCompile(`(?s)<img[^>]*>`)
	anyTagPattern   = regexp.MustCompile(`(?s)<[^>]+>`)
	footnotePattern = regexp.MustCompile(`(?s)\(\((.+?)\)\)`)
)

// blockLevelPrefixes は段落ラップの対象外となるブロック要素の開始タグ。
var blockLevelPrefixes = []string{
	"<p", "<h1", "<h2", "<h3", "<h4", "<h5",
	"<ul", "<ol", "<li", "<blockquote", "<pre", "[caption",
}

// Rewriter はRewriterServiceの実装。
type Rewriter struct {
	resolver  AssetResolver
	sanitizer Sanitizer
	footnotes repository.FootnoteRepository
	logger    *slog.Logger
}

// NewRewriter はRewriterの新しいインスタンスを生成する。
func NewRewriter(resolver AssetResolver, sanitizer Sanitizer, footnotes repository.FootnoteRepository, logger *slog.Logger) *Rewriter {
	return &Rewriter{
		resolver:  resolver,
		sanitizer: sanitizer,
		footnotes: footnotes,
		logger:    logger,
	}
}

// RewriteBody は投稿本文をリッチテキスト形式に変換する。
func (r *Rewriter) RewriteBody(ctx context.Context, raw string) (string, error) {
	s := NormalizeParagraphs(raw)

	// captionショートコードはサニタイズで属性の引用符がエスケープされる前に
	// 解決する必要がある
	s, err := r.resolveCaptions(ctx, s)
	if err != nil {
		return "", err
	}

	s = r.sanitizer.Sanitize(s)

	s, err = r.rewriteTree(ctx, s)
	if err != nil {
		return "", err
	}

	// 未処理のショートコードが残存する場合は未対応パターンとして中断する
	if idx := strings.Index(strings.ToLower(s), "[caption"); idx >= 0 {
		return "", &model.ResidualShortcodeError{Marker: "[caption"}
	}

	return s, nil
}

// NormalizeParagraphs は生のWordPress本文を段落タグで構造化する。
// WordPressは段落区切りを空行で保持するため、pタグを含まない本文は
// 空行区切りのブロックをpタグでラップし、ブロック内の改行はbrに変換する。
// 既にpタグを含む本文はそのまま返す。
func NormalizeParagraphs(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	if strings.Contains(s, "<p") {
		return s
	}

	blocks := strings.Split(s, "\n\n")
	var out []string
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		block = strings.ReplaceAll(block, "\n", "<br/>")
		if isBlockLevel(block) {
			out = append(out, block)
		} else {
			out = append(out, "<p>"+block+"</p>")
		}
	}
	return strings.Join(out, "\n")
}

// isBlockLevel はブロックが既にブロック要素で始まるかを判定する。
func isBlockLevel(block string) bool {
	lower := strings.ToLower(block)
	for _, prefix := range blockLevelPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// resolveCaptions はcaptionショートコードを解決する。
// ショートコードのラッパーを剥がして中のimgタグだけを残し、
// キャプションテキストは添付ファイル投稿IDで解決した画像に保存する。
func (r *Rewriter) resolveCaptions(ctx context.Context, s string) (string, error) {
	var resolveErr error
	result := captionPattern.ReplaceAllStringFunc(s, func(match string) string {
		if resolveErr != nil {
			return match
		}
		groups := captionPattern.FindStringSubmatch(match)
		attrs, inner := groups[1], groups[2]

		imgTags := imgTagPattern.FindAllString(inner, -1)
		captionText := strings.TrimSpace(anyTagPattern.ReplaceAllString(imgTagPattern.ReplaceAllString(inner, ""), ""))

		if idMatch := attachmentIDPat.FindStringSubmatch(attrs); idMatch != nil && captionText != "" {
			postID, _ := strconv.Atoi(idMatch[1])
			img, err := r.resolver.FindImageByPostID(ctx, postID)
			if err != nil {
				resolveErr = err
				return match
			}
			if img != nil {
				if err := r.resolver.SetImageCaption(ctx, img.ID, captionText); err != nil {
					resolveErr = err
					return match
				}
			} else {
				r.logger.Warn("captionショートコードの添付ファイルが未インポートです", "wpPostId", postID)
			}
		}

		if len(imgTags) == 0 {
			return strings.TrimSpace(inner)
		}
		return strings.Join(imgTags, "")
	})
	return result, resolveErr
}

// rewriteTree はHTMLをツリーとして解析し、画像と内部リンクを変換する。
// 解析により閉じ忘れ等の軽微な構文エラーも修復される。
func (r *Rewriter) rewriteTree(ctx context.Context, s string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return "", fmt.Errorf("本文HTMLの解析に失敗しました: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	if err := r.walkTree(ctx, body); err != nil {
		return "", err
	}

	var sb strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", fmt.Errorf("本文HTMLの出力に失敗しました: %w", err)
		}
	}
	return sb.String(), nil
}

// walkTree はツリーを深さ優先で走査し、imgとaを変換する。
func (r *Rewriter) walkTree(ctx context.Context, n *html.Node) error {
	// 変換で兄弟リンクが変わるため、子を先に収集してから処理する
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}

	for _, c := range children {
		if c.Type == html.ElementNode {
			switch c.Data {
			case "img":
				if err := r.convertImage(ctx, n, c); err != nil {
					return err
				}
				continue
			case "a":
				if err := r.convertLink(ctx, c); err != nil {
					return err
				}
			}
		}
		if err := r.walkTree(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// convertImage はimgノードを埋め込みマーカーに置き換える。
// 取得に失敗した参照は未解決のまま本文に残し、処理を継続する。
func (r *Rewriter) convertImage(ctx context.Context, parent, img *html.Node) error {
	src := attrValue(img, "src")
	if src == "" {
		parent.RemoveChild(img)
		return nil
	}

	asset, err := r.resolver.FindOrFetchImage(ctx, src, nil)
	if err != nil {
		var fetchErr *model.FetchError
		if errors.As(err, &fetchErr) {
			r.logger.Warn("本文中の画像を取得できないため参照を未解決のまま残します", "src", src, "error", err)
			return nil
		}
		return err
	}

	format := "fullwidth"
	class := attrValue(img, "class")
	switch {
	case strings.Contains(class, "alignleft"):
		format = "left"
	case strings.Contains(class, "alignright"):
		format = "right"
	}

	alt := attrValue(img, "alt")
	if alt == "" {
		alt = asset.Filename
	}

	embed := &html.Node{
		Type:     html.ElementNode,
		Data:     "embed",
		DataAtom: atom.Embed,
		Attr: []html.Attribute{
			{Key: "embedtype", Val: "image"},
			{Key: "id", Val: asset.ID},
			{Key: "format", Val: format},
			{Key: "alt", Val: alt},
		},
	}
	parent.InsertBefore(embed, img)
	parent.RemoveChild(img)
	return nil
}

// convertLink はaノードのhrefを内部リンク形式に変換する。
// 解決できないリンクは元のhrefのまま残す。
func (r *Rewriter) convertLink(ctx context.Context, a *html.Node) error {
	href := attrValue(a, "href")
	if href == "" {
		return nil
	}

	target, err := r.resolver.ResolveInternalLink(ctx, href)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}

	a.Attr = []html.Attribute{
		{Key: "linktype", Val: string(target.Kind)},
		{Key: "id", Val: target.ID},
	}
	return nil
}

// ExtractFootnotes は ((本文)) 形式の脚注をfootnoteタグに置き換える。
func (r *Rewriter) ExtractFootnotes(ctx context.Context, pageID, body string) (string, error) {
	var extractErr error
	result := footnotePattern.ReplaceAllStringFunc(body, func(match string) string {
		if extractErr != nil {
			return match
		}
		inner := footnotePattern.FindStringSubmatch(match)[1]
		text := r.sanitizer.SanitizeFootnote(strings.TrimSpace(inner))

		existing, err := r.footnotes.FindByPageAndText(ctx, pageID, text)
		if err != nil {
			extractErr = err
			return match
		}

		key := ""
		if existing != nil {
			key = existing.Key
		} else {
			// 本文中の参照を短く保つため、キーはUUIDの先頭ブロックのみ使用する
			key = uuid.NewString()[:8]
			err := r.footnotes.Create(ctx, &model.Footnote{
				ID:     uuid.NewString(),
				PageID: pageID,
				Key:    key,
				Text:   text,
			})
			if err != nil {
				extractErr = err
				return match
			}
		}
		return fmt.Sprintf(`<footnote id="%s"></footnote>`, key)
	})
	if extractErr != nil {
		return "", extractErr
	}

	// 対になっていない脚注マーカーは未対応パターンとして中断する
	if strings.Contains(result, "((") {
		return "", &model.ResidualShortcodeError{Marker: "(("}
	}
	return result, nil
}

// attrValue はノードの属性値を返す。属性がない場合は空文字列。
func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
