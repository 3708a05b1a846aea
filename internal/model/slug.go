package model

import "strings"

// replacer は代表的なラテン拡張文字をASCIIに変換する。
// 元サイトのコンテンツはドイツ語・フランス語が中心のため、その範囲をカバーする。
var replacer = strings.NewReplacer(
	"ä", "a", "ö", "o", "ü", "u", "ß", "ss",
	"é", "e", "è", "e", "ê", "e", "à", "a", "ç", "c",
	"î", "i", "ô", "o", "û", "u",
)

// Slugify はテキストをURL安全なslugに変換する。
// 小文字化し、英数字以外の連続をハイフン1つに置き換える。
func Slugify(s string) string {
	s = replacer.Replace(strings.ToLower(strings.TrimSpace(s)))

	var b strings.Builder
	lastHyphen := true // 先頭のハイフンを抑制する
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
