package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/migcontrol/website/internal/model"
)

// PostgresTaxonomyRepo はPostgreSQLを使用したタクソノミーリポジトリ。
type PostgresTaxonomyRepo struct {
	db DBTX
}

// NewPostgresTaxonomyRepo はPostgresTaxonomyRepoを生成する。
func NewPostgresTaxonomyRepo(db DBTX) *PostgresTaxonomyRepo {
	return &PostgresTaxonomyRepo{db: db}
}

func (r *PostgresTaxonomyRepo) scanCategory(row interface{ Scan(...any) error }) (*model.Category, error) {
	c := &model.Category{}
	var parentID sql.NullString

	err := row.Scan(&c.ID, &c.Name, &c.Slug, &parentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	c.ParentID = nullStringValue(parentID)
	return c, nil
}

// FindCategoryByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
func (r *PostgresTaxonomyRepo) FindCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, parent_id FROM categories WHERE id = $1`, id)
	return r.scanCategory(row)
}

// FindCategoryBySlug はslugでカテゴリを検索する。見つからない場合はnilを返す。
func (r *PostgresTaxonomyRepo) FindCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, parent_id FROM categories WHERE slug = $1`, slug)
	return r.scanCategory(row)
}

// CreateCategory はカテゴリを作成する。
func (r *PostgresTaxonomyRepo) CreateCategory(ctx context.Context, c *model.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, slug, parent_id) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Slug, nullString(c.ParentID),
	)
	if err != nil {
		return fmt.Errorf("カテゴリの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateCategory はカテゴリの名前と親参照を更新する。
func (r *PostgresTaxonomyRepo) UpdateCategory(ctx context.Context, c *model.Category) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = $2, parent_id = $3 WHERE id = $1`,
		c.ID, c.Name, nullString(c.ParentID),
	)
	if err != nil {
		return fmt.Errorf("カテゴリの更新に失敗しました: %w", err)
	}
	return nil
}

// FindTagByName は名前でタグを検索する。見つからない場合はnilを返す。
func (r *PostgresTaxonomyRepo) FindTagByName(ctx context.Context, name string) (*model.Tag, error) {
	t := &model.Tag{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM tags WHERE name = $1`, name,
	).Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タグの取得に失敗しました: %w", err)
	}
	return t, nil
}

// CreateTag はタグを作成する。
func (r *PostgresTaxonomyRepo) CreateTag(ctx context.Context, t *model.Tag) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (id, name) VALUES ($1, $2)`, t.ID, t.Name)
	if err != nil {
		return fmt.Errorf("タグの作成に失敗しました: %w", err)
	}
	return nil
}

// AssociateCategory はページとカテゴリの関連を冪等に作成する。
// 過去の実行で重複した関連行が存在する場合は1行に集約する。
func (r *PostgresTaxonomyRepo) AssociateCategory(ctx context.Context, pageID, categoryID string) error {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM page_categories WHERE page_id = $1 AND category_id = $2`,
		pageID, categoryID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("カテゴリ関連の確認に失敗しました: %w", err)
	}

	switch {
	case count == 0:
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO page_categories (page_id, category_id) VALUES ($1, $2)`,
			pageID, categoryID)
	case count > 1:
		// 重複行を掃除して1行に戻す
		_, err = r.db.ExecContext(ctx,
			`DELETE FROM page_categories WHERE page_id = $1 AND category_id = $2`,
			pageID, categoryID)
		if err == nil {
			_, err = r.db.ExecContext(ctx,
				`INSERT INTO page_categories (page_id, category_id) VALUES ($1, $2)`,
				pageID, categoryID)
		}
	}
	if err != nil {
		return fmt.Errorf("カテゴリ関連の作成に失敗しました: %w", err)
	}
	return nil
}

// AssociateTag はページとタグの関連を冪等に作成する。
func (r *PostgresTaxonomyRepo) AssociateTag(ctx context.Context, pageID, tagID string) error {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM page_tags WHERE page_id = $1 AND tag_id = $2`,
		pageID, tagID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("タグ関連の確認に失敗しました: %w", err)
	}

	switch {
	case count == 0:
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO page_tags (page_id, tag_id) VALUES ($1, $2)`, pageID, tagID)
	case count > 1:
		_, err = r.db.ExecContext(ctx,
			`DELETE FROM page_tags WHERE page_id = $1 AND tag_id = $2`, pageID, tagID)
		if err == nil {
			_, err = r.db.ExecContext(ctx,
				`INSERT INTO page_tags (page_id, tag_id) VALUES ($1, $2)`, pageID, tagID)
		}
	}
	if err != nil {
		return fmt.Errorf("タグ関連の作成に失敗しました: %w", err)
	}
	return nil
}

// AssociateLocation はページと拠点ページの関連を冪等に作成する。
func (r *PostgresTaxonomyRepo) AssociateLocation(ctx context.Context, pageID, locationPageID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO page_locations (page_id, location_page_id)
		 VALUES ($1, $2)
		 ON CONFLICT (page_id, location_page_id) DO NOTHING`,
		pageID, locationPageID)
	if err != nil {
		return fmt.Errorf("拠点関連の作成に失敗しました: %w", err)
	}
	return nil
}
