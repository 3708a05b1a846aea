package model

import (
	"errors"
	"fmt"
)

// ErrIndexPageNotFound は指定slug/ロケールのインデックスページが存在しない場合のエラー。
// 実行全体を中断する致命的エラーとして扱う。
var ErrIndexPageNotFound = errors.New("インデックスページが見つかりません")

// ErrUnknownCountry は国名テキストを国コードに変換できない場合のエラー。
var ErrUnknownCountry = errors.New("国名を解釈できません")

// FetchError はリモートアセットの取得・デコード失敗を表す。
// 呼び出し側は回復可能なエラーとして扱い、該当参照をスキップして処理を継続する。
// インポート全体を中断してはならない。
type FetchError struct {
	URL    string
	Reason string
	Err    error
}

// Error はerrorインターフェースを実装する。
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("アセット取得に失敗: %s (%s): %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("アセット取得に失敗: %s (%s)", e.URL, e.Reason)
}

// Unwrap はラップされたエラーを返す。
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ResidualShortcodeError はリライトパイプライン後に未処理のWordPress
// ショートコードが残存していることを表す。未対応のパターンの存在を示す
// ため、該当投稿のインポートを中断する（バッチ全体は継続する）。
type ResidualShortcodeError struct {
	Marker string
}

// Error はerrorインターフェースを実装する。
func (e *ResidualShortcodeError) Error() string {
	return fmt.Sprintf("未処理のショートコードが残存しています: %s", e.Marker)
}
