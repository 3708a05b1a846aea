package model

// Category はブログカテゴリを表す。親子関係によるツリーを構成できる。
// slugはnameから導出され、衝突時は数値サフィックスで一意化される。
type Category struct {
	ID   string
	Name string
	Slug string
	// ParentID は親カテゴリのID。ルートカテゴリの場合は空。
	// 自身を祖先にすることはできない（循環禁止）。
	ParentID string
}

// Tag はフラットな名前空間のタグを表す。nameが一意キー。
type Tag struct {
	ID   string
	Name string
}

// Footnote はページ本文から抽出された脚注を表す。
// 同一ページ内で同一テキストの脚注は1つに集約される。
type Footnote struct {
	ID     string
	PageID string
	// Key は本文中の<footnote id="...">参照と対応する短縮UUID。
	Key  string
	Text string
}

// User はインポートされた投稿の所有者となるユーザーを表す。
type User struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
}

// DisplayName は表示用の氏名を返す。氏名が未設定の場合はユーザー名を返す。
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	}
	return "pseudonym"
}
