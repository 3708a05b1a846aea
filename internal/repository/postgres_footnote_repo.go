package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/migcontrol/website/internal/model"
)

// PostgresFootnoteRepo はPostgreSQLを使用した脚注リポジトリ。
type PostgresFootnoteRepo struct {
	db DBTX
}

// NewPostgresFootnoteRepo はPostgresFootnoteRepoを生成する。
func NewPostgresFootnoteRepo(db DBTX) *PostgresFootnoteRepo {
	return &PostgresFootnoteRepo{db: db}
}

// FindByPageAndText は同一ページ内の同一テキストの脚注を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresFootnoteRepo) FindByPageAndText(ctx context.Context, pageID, text string) (*model.Footnote, error) {
	f := &model.Footnote{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, page_id, key, text FROM footnotes WHERE page_id = $1 AND text = $2`,
		pageID, text,
	).Scan(&f.ID, &f.PageID, &f.Key, &f.Text)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("脚注の取得に失敗しました: %w", err)
	}
	return f, nil
}

// Create は脚注を作成する。
func (r *PostgresFootnoteRepo) Create(ctx context.Context, f *model.Footnote) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO footnotes (id, page_id, key, text) VALUES ($1, $2, $3, $4)`,
		f.ID, f.PageID, f.Key, f.Text)
	if err != nil {
		return fmt.Errorf("脚注の作成に失敗しました: %w", err)
	}
	return nil
}
