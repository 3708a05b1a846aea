package wxr

import (
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log/slog"
	"time"

	"github.com/migcontrol/website/internal/model"
)

// Options はパーサの動作オプション。
type Options struct {
	// OnlyAttachments がtrueの場合、post_typeがattachmentのitemのみを返す。
	// メディアインポートで使用する。
	OnlyAttachments bool
}

// Parser はWXRドキュメントをPostRecordの列に変換する。
// 不正なXMLは致命的エラー、個別投稿の欠損フィールドは警告ログに留める。
type Parser struct {
	opts   Options
	logger *slog.Logger
}

// NewParser はParserの新しいインスタンスを生成する。
func NewParser(opts Options, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{opts: opts, logger: logger}
}

// wpDateFormat はwp:post_date_gmtの日時形式。
const wpDateFormat = "2006-01-02 15:04:05"

// Parse はWXRドキュメント全体を読み込み、PostRecordのスライスを返す。
// XMLとして不正な入力はエラーを返し、実行を中断させる。
func (p *Parser) Parse(r io.Reader) ([]model.PostRecord, error) {
	var doc rss
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("WXRドキュメントのパースに失敗: %w", err)
	}

	authors := make(map[string]wpAuthor, len(doc.Channel.Authors))
	for _, a := range doc.Channel.Authors {
		authors[a.Login] = a
	}

	// 親子関係はチャンネルレベルのカテゴリ定義にのみ現れる
	catDefs := make(map[string]wpCategory, len(doc.Channel.Categories))
	for _, c := range doc.Channel.Categories {
		catDefs[c.NiceName] = c
	}

	var posts []model.PostRecord
	for _, it := range doc.Channel.Items {
		if p.opts.OnlyAttachments && it.PostType != "attachment" {
			continue
		}
		posts = append(posts, p.toRecord(it, authors, catDefs))
	}

	return posts, nil
}

// toRecord は1つのitemをPostRecordに正規化する。
// 欠損した任意フィールドは空値で補い、警告ログを出す。
func (p *Parser) toRecord(it item, authors map[string]wpAuthor, catDefs map[string]wpCategory) model.PostRecord {
	rec := model.PostRecord{
		ID:            it.PostID,
		Title:         html.UnescapeString(it.Title),
		Slug:          it.PostName,
		Content:       it.Content,
		Excerpt:       it.Excerpt,
		Status:        model.ParsePostStatus(it.Status),
		OriginURL:     it.Link,
		PostType:      it.PostType,
		AttachmentURL: it.AttachmentURL,
		Meta:          make(map[string]string, len(it.PostMeta)),
	}

	if rec.Slug == "" {
		rec.Slug = model.Slugify(rec.Title)
		p.logger.Warn("slugが未設定のためタイトルから生成しました",
			slog.Int("post_id", it.PostID),
			slog.String("slug", rec.Slug),
		)
	}
	if rec.Excerpt == "" && it.PostType == "post" {
		p.logger.Warn("excerptが未設定です", slog.Int("post_id", it.PostID))
	}

	if t, err := time.Parse(wpDateFormat, it.PostDateGMT); err == nil {
		rec.Date = &t
	} else if it.PostDateGMT != "" && it.PostDateGMT != "0000-00-00 00:00:00" {
		p.logger.Warn("投稿日時を解釈できません",
			slog.Int("post_id", it.PostID),
			slog.String("post_date_gmt", it.PostDateGMT),
		)
	}

	rec.Creator = model.Creator{Username: it.Creator}
	if a, ok := authors[it.Creator]; ok {
		rec.Creator.FirstName = a.FirstName
		rec.Creator.LastName = a.LastName
	}

	for _, c := range it.Categories {
		term := model.Term{
			Taxonomy: c.Domain,
			Name:     html.UnescapeString(c.Name),
			Slug:     c.NiceName,
		}
		if def, ok := catDefs[c.NiceName]; ok && def.Parent != "" {
			if parentDef, ok := catDefs[def.Parent]; ok {
				term.Parent = &model.TermRef{Name: parentDef.Name, Slug: parentDef.NiceName}
			} else {
				term.Parent = &model.TermRef{Name: def.Parent, Slug: def.Parent}
			}
		}
		rec.Terms = append(rec.Terms, term)
	}

	for _, m := range it.PostMeta {
		rec.Meta[m.Key] = m.Value
	}

	return rec
}
