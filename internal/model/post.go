// Package model はドメインモデルを定義する。
package model

import "time"

// PostStatus はWordPress投稿の公開状態を表す。
type PostStatus string

const (
	// PostStatusPublish は公開済みの投稿。
	PostStatusPublish PostStatus = "publish"
	// PostStatusDraft は下書きの投稿。
	PostStatusDraft PostStatus = "draft"
	// PostStatusOther はその他の状態（inherit, trash等）。
	PostStatusOther PostStatus = "other"
)

// ParsePostStatus はWXRのstatus文字列をPostStatusに変換する。
func ParsePostStatus(s string) PostStatus {
	switch s {
	case "publish":
		return PostStatusPublish
	case "draft":
		return PostStatusDraft
	default:
		return PostStatusOther
	}
}

// Creator はWordPress投稿の作成者を表す。
type Creator struct {
	Username  string
	FirstName string
	LastName  string
}

// TermRef は親カテゴリへの参照を表す。
type TermRef struct {
	Name string
	Slug string
}

// Term はWordPressのカテゴリまたはタグを表す。
type Term struct {
	// Taxonomy は "category" または "post_tag"。
	Taxonomy string
	Name     string
	Slug     string
	Parent   *TermRef
}

// PostRecord はWXRエクスポートの1つの<item>をパースした結果を表す。
// パース後は変更されない。寿命は1回のインポート実行に限られる。
type PostRecord struct {
	// ID はWordPress側で割り当てられた投稿ID。エクスポート内で一意。
	ID      int
	Title   string
	Slug    string
	Content string
	Excerpt string
	Status  PostStatus
	Date    *time.Time
	Creator Creator
	Terms   []Term
	// Meta はwp:postmetaのキー/値。任意のカスタムフィールドを含む。
	Meta map[string]string
	// OriginURL は元サイトでの投稿URL。
	OriginURL string
	// PostType は "post"、"page"、"attachment" 等。
	PostType string
	// AttachmentURL はPostTypeがattachmentの場合のメディアURL。
	AttachmentURL string
}

// IsAttachment はこの投稿がメディア添付ファイルかどうかを返す。
func (p *PostRecord) IsAttachment() bool {
	return p.PostType == "attachment"
}

// Categories はcategoryタクソノミーのTermのみを返す。
func (p *PostRecord) Categories() []Term {
	var out []Term
	for _, t := range p.Terms {
		if t.Taxonomy == "category" {
			out = append(out, t)
		}
	}
	return out
}

// Tags はpost_tagタクソノミーのTermのみを返す。
func (p *PostRecord) Tags() []Term {
	var out []Term
	for _, t := range p.Terms {
		if t.Taxonomy == "post_tag" {
			out = append(out, t)
		}
	}
	return out
}
