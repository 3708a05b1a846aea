package importer

import "github.com/migcontrol/website/internal/model"

// MetaRule はカスタムフィールドのキーとページフィールドへの変換の対応を表す。
// Applyは値をページに反映する純粋な変換で、対応表にない値などの
// 変換エラーは投稿単位のエラーとして呼び出し元に伝播する。
type MetaRule struct {
	SourceKey string
	Apply     func(page *model.Page, value string) error
}

// locationsMetaKey は拠点リストのカスタムフィールドキー。
// 拠点はページの作成を伴うため、MetaRuleではなくインポータ本体が処理する。
const locationsMetaKey = "standorte"

// metaRuleTable はページ種別ごとのカスタムフィールド変換規則。
// 規則が定義されていない種別のカスタムフィールドは無視される。
var metaRuleTable = map[model.PageType][]MetaRule{
	model.PageTypeArchivePage: {
		{
			SourceKey: "branche",
			Apply: func(page *model.Page, value string) error {
				page.OrganizationType = value
				return nil
			},
		},
		{
			SourceKey: "land",
			Apply: func(page *model.Page, value string) error {
				codes, err := GetCountry(value)
				if err != nil {
					return err
				}
				page.CountryCodes = codes
				return nil
			},
		},
		{
			SourceKey: "kurztext",
			Apply: func(page *model.Page, value string) error {
				if page.ShortDescription == "" {
					page.ShortDescription = value
				}
				return nil
			},
		},
	},
}

// applyMetaRules は投稿のカスタムフィールドをページ種別の規則で反映する。
func applyMetaRules(page *model.Page, meta map[string]string) error {
	for _, rule := range metaRuleTable[page.PageType] {
		value, ok := meta[rule.SourceKey]
		if !ok {
			continue
		}
		if err := rule.Apply(page, value); err != nil {
			return err
		}
	}
	return nil
}
