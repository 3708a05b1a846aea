package model

import "testing"

// TestSlugify は各種テキストのslug変換を検証する。
func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "英語タイトル",
			input: "Hello World",
			want:  "hello-world",
		},
		{
			name:  "大文字と記号",
			input: "Über uns: Kontakt!",
			want:  "uber-uns-kontakt",
		},
		{
			name:  "ドイツ語ウムラウト",
			input: "Türkei",
			want:  "turkei",
		},
		{
			name:  "前後の空白",
			input: "  trimmed  ",
			want:  "trimmed",
		},
		{
			name:  "連続する記号",
			input: "a -- b",
			want:  "a-b",
		},
		{
			name:  "空文字列",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
