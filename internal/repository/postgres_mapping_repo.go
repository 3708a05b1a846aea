package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/migcontrol/website/internal/model"
)

// PostgresMappingRepo はPostgreSQLを使用したWordPressマッピングリポジトリ。
type PostgresMappingRepo struct {
	db DBTX
}

// NewPostgresMappingRepo はPostgresMappingRepoを生成する。
func NewPostgresMappingRepo(db DBTX) *PostgresMappingRepo {
	return &PostgresMappingRepo{db: db}
}

const mappingColumns = `id, wp_url, wp_post_id, page_id, image_id, document_id, created_at, updated_at`

func (r *PostgresMappingRepo) scanMapping(row interface{ Scan(...any) error }) (*model.WordpressMapping, error) {
	m := &model.WordpressMapping{}
	var wpURL, pageID, imageID, documentID sql.NullString
	var wpPostID sql.NullInt64

	err := row.Scan(&m.ID, &wpURL, &wpPostID, &pageID, &imageID, &documentID,
		&m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("マッピングの取得に失敗しました: %w", err)
	}

	m.WpURL = nullStringValue(wpURL)
	m.WpPostID = nullIntValue(wpPostID)
	m.PageID = nullStringValue(pageID)
	m.ImageID = nullStringValue(imageID)
	m.DocumentID = nullStringValue(documentID)

	return m, nil
}

// FindByURL はwp_urlでマッピングを検索する。見つからない場合はnilを返す。
func (r *PostgresMappingRepo) FindByURL(ctx context.Context, wpURL string) (*model.WordpressMapping, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+mappingColumns+` FROM wordpress_mappings WHERE wp_url = $1`, wpURL)
	return r.scanMapping(row)
}

// FindByPostID はwp_post_idでマッピングを検索する。見つからない場合はnilを返す。
func (r *PostgresMappingRepo) FindByPostID(ctx context.Context, wpPostID int) (*model.WordpressMapping, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+mappingColumns+` FROM wordpress_mappings WHERE wp_post_id = $1`, wpPostID)
	return r.scanMapping(row)
}

// Create はマッピングを作成する。
func (r *PostgresMappingRepo) Create(ctx context.Context, m *model.WordpressMapping) error {
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wordpress_mappings (id, wp_url, wp_post_id, page_id, image_id, document_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, nullString(m.WpURL), nullInt(m.WpPostID),
		nullString(m.PageID), nullString(m.ImageID), nullString(m.DocumentID),
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("マッピングの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はマッピングを更新する。
func (r *PostgresMappingRepo) Update(ctx context.Context, m *model.WordpressMapping) error {
	m.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx,
		`UPDATE wordpress_mappings SET
		    wp_url = $2, wp_post_id = $3, page_id = $4, image_id = $5,
		    document_id = $6, updated_at = $7
		 WHERE id = $1`,
		m.ID, nullString(m.WpURL), nullInt(m.WpPostID),
		nullString(m.PageID), nullString(m.ImageID), nullString(m.DocumentID),
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("マッピングの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのマッピングを削除する。
func (r *PostgresMappingRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM wordpress_mappings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("マッピングの削除に失敗しました: %w", err)
	}
	return nil
}
