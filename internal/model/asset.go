package model

import "time"

// Image はインポート済みの画像アセットを表す。
// ファイル本体はDataとしてデータベースに保持する。
type Image struct {
	ID       string
	Title    string
	Filename string
	Width    int
	Height   int
	Mime     string
	// Caption はcaptionショートコードから抽出された説明文。
	Caption   string
	Data      []byte
	CreatedAt time.Time
}

// Document は画像以外のインポート済みファイル（PDF等）を表す。
type Document struct {
	ID        string
	Title     string
	Filename  string
	Mime      string
	Data      []byte
	CreatedAt time.Time
}

// WordpressMapping はWordPress側の識別子とインポート先エンティティの対応を表す。
// 再インポート時の冪等性を保証する仕組みであり、実行をまたいで永続化される。
// 旧WordPress URL（/wp-content/uploads/... 等）からのリダイレクトにも使用する。
type WordpressMapping struct {
	ID string
	// WpURL は元サイトでのURLパス。空の場合は未設定。
	WpURL string
	// WpPostID は元サイトでの投稿ID。nilの場合は未設定。
	// WpURLとWpPostIDの少なくとも一方は設定される。
	WpPostID *int
	// 以下のうち設定されるのは高々1つ。
	PageID     string
	ImageID    string
	DocumentID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Destination はマッピングの解決先をLinkTargetとして返す。
// 解決先が未設定の場合はnilを返す。
func (m *WordpressMapping) Destination() *LinkTarget {
	switch {
	case m.PageID != "":
		return &LinkTarget{Kind: LinkKindPage, ID: m.PageID}
	case m.ImageID != "":
		return &LinkTarget{Kind: LinkKindImage, ID: m.ImageID}
	case m.DocumentID != "":
		return &LinkTarget{Kind: LinkKindDocument, ID: m.DocumentID}
	}
	return nil
}
