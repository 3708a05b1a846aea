// Package wxr はWordPressエクスポート形式（WXR）のパースを提供する。
// WXRはRSSを拡張したXMLで、wp:名前空間に投稿ID、slug、postmeta等を持つ。
package wxr

import "encoding/xml"

// WXRの名前空間URI。エクスポートバージョン1.2を対象とする。
const (
	nsContent = "http://purl.org/rss/1.0/modules/content/"
	nsExcerpt = "http://wordpress.org/export/1.2/excerpt/"
	nsWP      = "http://wordpress.org/export/1.2/"
)

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title      string       `xml:"title"`
	Link       string       `xml:"link"`
	BaseURL    string       `xml:"http://wordpress.org/export/1.2/ base_blog_url"`
	Authors    []wpAuthor   `xml:"http://wordpress.org/export/1.2/ wp_author"`
	Categories []wpCategory `xml:"http://wordpress.org/export/1.2/ category"`
	Items      []item       `xml:"item"`
}

// wpAuthor はチャンネルレベルの著者定義。
// itemのdc:creatorはauthor_loginでここに紐づく。
type wpAuthor struct {
	Login       string `xml:"author_login"`
	Email       string `xml:"author_email"`
	DisplayName string `xml:"author_display_name"`
	FirstName   string `xml:"author_first_name"`
	LastName    string `xml:"author_last_name"`
}

// wpCategory はチャンネルレベルのカテゴリ定義。
// 親子関係はここにのみ現れる（category_parentは親のnicename）。
type wpCategory struct {
	TermID   int    `xml:"term_id"`
	NiceName string `xml:"category_nicename"`
	Parent   string `xml:"category_parent"`
	Name     string `xml:"cat_name"`
}

// item は投稿・固定ページ・添付ファイルの共通表現。
type item struct {
	Title         string         `xml:"title"`
	Link          string         `xml:"link"`
	Creator       string         `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Content       string         `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	Excerpt       string         `xml:"http://wordpress.org/export/1.2/excerpt/ encoded"`
	PostID        int            `xml:"http://wordpress.org/export/1.2/ post_id"`
	PostDateGMT   string         `xml:"http://wordpress.org/export/1.2/ post_date_gmt"`
	PostName      string         `xml:"http://wordpress.org/export/1.2/ post_name"`
	Status        string         `xml:"http://wordpress.org/export/1.2/ status"`
	PostType      string         `xml:"http://wordpress.org/export/1.2/ post_type"`
	AttachmentURL string         `xml:"http://wordpress.org/export/1.2/ attachment_url"`
	Categories    []itemCategory `xml:"category"`
	PostMeta      []postMeta     `xml:"http://wordpress.org/export/1.2/ postmeta"`
}

// itemCategory は投稿に付与されたカテゴリ/タグ。
// Domainは "category" または "post_tag"。
type itemCategory struct {
	Domain   string `xml:"domain,attr"`
	NiceName string `xml:"nicename,attr"`
	Name     string `xml:",cdata"`
}

type postMeta struct {
	Key   string `xml:"meta_key"`
	Value string `xml:"meta_value"`
}
