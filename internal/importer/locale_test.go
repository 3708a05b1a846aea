package importer

import (
	"testing"

	"github.com/migcontrol/website/internal/model"
)

// TestDetermineLocale はカテゴリからのロケール決定を検証する。
func TestDetermineLocale(t *testing.T) {
	tests := []struct {
		name  string
		terms []model.Term
		want  string
	}{
		{
			name: "カテゴリslug deはロケールdeになる",
			terms: []model.Term{
				{Taxonomy: "category", Slug: "field-reports"},
				{Taxonomy: "category", Slug: "de"},
			},
			want: "de",
		},
		{
			name: "マーカーがなければフォールバック",
			terms: []model.Term{
				{Taxonomy: "category", Slug: "field-reports"},
			},
			want: "en",
		},
		{
			name: "タグのslugはロケール決定に使われない",
			terms: []model.Term{
				{Taxonomy: "post_tag", Slug: "fr"},
			},
			want: "en",
		},
		{
			name:  "カテゴリなしはフォールバック",
			terms: nil,
			want:  "en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineLocale(DefaultLocaleRules, tt.terms, "en"); got != tt.want {
				t.Errorf("DetermineLocale = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestNormalizeTitle はタイトルの大文字正規化を検証する。
func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "全て大文字のタイトルは先頭大文字に整えられる",
			in:   "LAGER IN LIBYEN",
			want: "Lager In Libyen",
		},
		{
			name: "通常のタイトルはそのまま",
			in:   "Lager in Libyen",
			want: "Lager in Libyen",
		},
		{
			name: "数字だけのタイトルはそのまま",
			in:   "2019",
			want: "2019",
		},
		{
			name: "空文字列はそのまま",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.in); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
