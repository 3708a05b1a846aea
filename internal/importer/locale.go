package importer

import (
	"strings"
	"unicode"

	"github.com/migcontrol/website/internal/model"
)

// LocaleRule はカテゴリslugとロケールの対応規則を表す。
// 元サイトは投稿の言語をカテゴリで表現しているため、カテゴリslugから
// インポート先ロケールを決定する。
type LocaleRule struct {
	CategorySlug string
	Locale       string
}

// DefaultLocaleRules は既定のロケール決定規則。先頭から順に評価される。
var DefaultLocaleRules = []LocaleRule{
	{CategorySlug: "de", Locale: "de"},
	{CategorySlug: "fr", Locale: "fr"},
	{CategorySlug: "ar", Locale: "ar"},
}

// DetermineLocale は投稿のカテゴリからロケールを決定する。
// どの規則にも一致しない場合はfallbackを返す。
func DetermineLocale(rules []LocaleRule, terms []model.Term, fallback string) string {
	for _, rule := range rules {
		for _, term := range terms {
			if term.Taxonomy == "category" && term.Slug == rule.CategorySlug {
				return rule.Locale
			}
		}
	}
	return fallback
}

// isLocaleMarker はカテゴリslugがロケール決定規則のマーカーかを判定する。
// マーカーカテゴリはタクソノミーとしてはインポートしない。
func isLocaleMarker(rules []LocaleRule, slug string) bool {
	for _, rule := range rules {
		if rule.CategorySlug == slug {
			return true
		}
	}
	return false
}

// NormalizeTitle は全て大文字のタイトルを単語ごとの先頭大文字に整える。
// 元サイトの古い記事は見出しを全て大文字で保存しているため、
// インポート時に読みやすい形に揃える。
func NormalizeTitle(title string) string {
	if title == "" || title != strings.ToUpper(title) {
		return title
	}
	hasLetter := false
	for _, r := range title {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return title
	}

	words := strings.Fields(strings.ToLower(title))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
