// Package importer はWordPressエクスポートのインポート実行ロジックを提供する。
//
// パース済みのPostRecord列を受け取り、タクソノミー照合、本文リライト、
// ページのアップサート、マッピング記録を投稿ごとに順に適用する。
package importer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/migcontrol/website/internal/model"
)

// countryTable は元サイトのカスタムフィールドに現れる国名表記と
// ISO 3166-1 alpha-2コードの対応表。表記は小文字で引く。
var countryTable = map[string][]string{
	"de":                    {"de"},
	"deutschland":           {"de"},
	"österreich":            {"at"},
	"türkei":                {"tr"},
	"frankreich":            {"fr"},
	"uk":                    {"gb"},
	"china":                 {"cn"},
	"spanien":               {"es"},
	"kroatien":              {"hr"},
	"italien":               {"it"},
	"belgien":               {"be"},
	"niederlande":           {"nl"},
	"polen":                 {"pl"},
	"israel":                {"il"},
	"portugal":              {"pt"},
	"usa":                   {"us"},
	"australien":            {"au"},
	"schweiz":               {"ch"},
	"irland":                {"ie"},
	"deutschland/frankreich": {"de", "fr"},
	"italien/uk":             {"it", "gb"},
	"deutschland / usa":      {"de", "us"},
}

// parenCodePattern は「Name (de)」形式の括弧付き国コードにマッチする。
var parenCodePattern = regexp.MustCompile(`\(([a-zA-Z]{2})\)`)

// GetCountry は自由記述の国名テキストを国コードの集合に正規化する。
// 空文字列は空集合になる。対応表にない表記は括弧付きコードを探し、
// それもない場合はErrUnknownCountryを返す。
func GetCountry(value string) ([]string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return []string{}, nil
	}

	if codes, ok := countryTable[v]; ok {
		out := make([]string, len(codes))
		copy(out, codes)
		return out, nil
	}

	if m := parenCodePattern.FindStringSubmatch(v); m != nil {
		code := strings.ToLower(m[1])
		// 元サイトは英国をukと表記するがISOコードはgb
		if code == "uk" {
			code = "gb"
		}
		return []string{code}, nil
	}

	return nil, fmt.Errorf("%w: %q", model.ErrUnknownCountry, value)
}

// Location は拠点カスタムフィールドの1要素。
type Location struct {
	Name        string
	CountryCode string
}

// ParseLocations はカンマ区切りの拠点リストを名前と国コードに分解する。
// 各要素は「Berlin (de)」のように括弧付きの国コードを持つ。
// コードのない要素が1つでもある場合はリスト全体を不完全とみなし、nilを返す。
func ParseLocations(value string) []Location {
	var out []Location
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		m := parenCodePattern.FindStringSubmatch(part)
		if m == nil {
			return nil
		}
		code := strings.ToLower(m[1])
		if code == "uk" {
			code = "gb"
		}

		name := strings.TrimSpace(parenCodePattern.ReplaceAllString(part, ""))
		out = append(out, Location{Name: name, CountryCode: code})
	}
	return out
}
