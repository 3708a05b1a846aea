package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/migcontrol/website/internal/model"
)

// PostgresPageRepo はPostgreSQLを使用したページリポジトリ。
type PostgresPageRepo struct {
	db DBTX
}

// NewPostgresPageRepo はPostgresPageRepoを生成する。
func NewPostgresPageRepo(db DBTX) *PostgresPageRepo {
	return &PostgresPageRepo{db: db}
}

const pageColumns = `id, parent_id, page_type, slug, title, locale, translation_key,
	       body, search_description, short_description, authors, owner_id,
	       organization_type, country_codes, location_name, header_image_id,
	       date, live, created_at, updated_at`

func (r *PostgresPageRepo) scanPage(row interface{ Scan(...any) error }) (*model.Page, error) {
	page := &model.Page{}
	var parentID, translationKey, ownerID, headerImageID sql.NullString
	var date sql.NullTime
	var countryCodes pq.StringArray

	err := row.Scan(
		&page.ID, &parentID, &page.PageType, &page.Slug, &page.Title,
		&page.Locale, &translationKey,
		&page.Body, &page.SearchDescription, &page.ShortDescription,
		&page.Authors, &ownerID,
		&page.OrganizationType, &countryCodes, &page.LocationName, &headerImageID,
		&date, &page.Live, &page.CreatedAt, &page.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ページの取得に失敗しました: %w", err)
	}

	page.ParentID = nullStringValue(parentID)
	page.TranslationKey = nullStringValue(translationKey)
	page.OwnerID = nullStringValue(ownerID)
	page.HeaderImageID = nullStringValue(headerImageID)
	page.CountryCodes = countryCodes
	if date.Valid {
		d := date.Time
		page.Date = &d
	}

	return page, nil
}

// FindByID は指定IDのページを取得する。見つからない場合はnilを返す。
func (r *PostgresPageRepo) FindByID(ctx context.Context, id string) (*model.Page, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE id = $1`, id)
	return r.scanPage(row)
}

// FindIndex はslugとページ種別でインデックスページを検索する。
// localeが空でない場合はロケールも一致条件に含める。見つからない場合はnilを返す。
func (r *PostgresPageRepo) FindIndex(ctx context.Context, slug string, pageType model.PageType, locale string) (*model.Page, error) {
	if locale != "" {
		row := r.db.QueryRowContext(ctx,
			`SELECT `+pageColumns+` FROM pages
			 WHERE lower(slug) = lower($1) AND page_type = $2 AND locale = $3`,
			slug, pageType, locale)
		return r.scanPage(row)
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages
		 WHERE lower(slug) = lower($1) AND page_type = $2
		 ORDER BY created_at LIMIT 1`,
		slug, pageType)
	return r.scanPage(row)
}

// FindChild は指定親の直下からslugとページ種別が一致する子を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresPageRepo) FindChild(ctx context.Context, parentID, slug string, pageType model.PageType) (*model.Page, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages
		 WHERE parent_id = $1 AND slug = $2 AND page_type = $3`,
		parentID, slug, pageType)
	return r.scanPage(row)
}

// CreateChild はページを指定親の子として作成する。
func (r *PostgresPageRepo) CreateChild(ctx context.Context, parentID string, page *model.Page) error {
	page.ParentID = parentID
	if page.CreatedAt.IsZero() {
		page.CreatedAt = time.Now()
	}
	if page.UpdatedAt.IsZero() {
		page.UpdatedAt = page.CreatedAt
	}
	var date sql.NullTime
	if page.Date != nil {
		date = sql.NullTime{Time: *page.Date, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pages (id, parent_id, page_type, slug, title, locale, translation_key,
		                    body, search_description, short_description, authors, owner_id,
		                    organization_type, country_codes, location_name, header_image_id,
		                    date, live, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		page.ID, nullString(page.ParentID), page.PageType, page.Slug, page.Title,
		page.Locale, nullString(page.TranslationKey),
		page.Body, page.SearchDescription, page.ShortDescription,
		page.Authors, nullString(page.OwnerID),
		page.OrganizationType, pq.Array(page.CountryCodes), page.LocationName,
		nullString(page.HeaderImageID),
		date, page.Live, page.CreatedAt, page.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ページの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はページの全フィールドを更新する。
func (r *PostgresPageRepo) Update(ctx context.Context, page *model.Page) error {
	var date sql.NullTime
	if page.Date != nil {
		date = sql.NullTime{Time: *page.Date, Valid: true}
	}
	page.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx,
		`UPDATE pages SET
		    slug = $2, title = $3, locale = $4, translation_key = $5,
		    body = $6, search_description = $7, short_description = $8,
		    authors = $9, owner_id = $10, organization_type = $11,
		    country_codes = $12, location_name = $13, header_image_id = $14,
		    date = $15, live = $16, updated_at = $17
		 WHERE id = $1`,
		page.ID, page.Slug, page.Title, page.Locale, nullString(page.TranslationKey),
		page.Body, page.SearchDescription, page.ShortDescription,
		page.Authors, nullString(page.OwnerID), page.OrganizationType,
		pq.Array(page.CountryCodes), page.LocationName, nullString(page.HeaderImageID),
		date, page.Live, page.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ページの更新に失敗しました: %w", err)
	}
	return nil
}

// GetChildren は指定ページの直下の子を返す。
func (r *PostgresPageRepo) GetChildren(ctx context.Context, parentID string) ([]*model.Page, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE parent_id = $1 ORDER BY created_at`,
		parentID)
	if err != nil {
		return nil, fmt.Errorf("子ページの取得に失敗しました: %w", err)
	}
	defer rows.Close()
	return r.collectPages(rows)
}

// GetDescendants は指定ページ配下の全子孫を再帰CTEで返す。
func (r *PostgresPageRepo) GetDescendants(ctx context.Context, rootID string) ([]*model.Page, error) {
	rows, err := r.db.QueryContext(ctx,
		`WITH RECURSIVE descendants AS (
		    SELECT * FROM pages WHERE parent_id = $1
		    UNION ALL
		    SELECT p.* FROM pages p
		    JOIN descendants d ON p.parent_id = d.id
		 )
		 SELECT `+pageColumns+` FROM descendants ORDER BY created_at`,
		rootID)
	if err != nil {
		return nil, fmt.Errorf("子孫ページの取得に失敗しました: %w", err)
	}
	defer rows.Close()
	return r.collectPages(rows)
}

// ListLive は公開中のコンテンツページを返す。pageTypeが空の場合は全種別。
func (r *PostgresPageRepo) ListLive(ctx context.Context, pageType model.PageType, limit, offset int) ([]*model.Page, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var err error
	if pageType != "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+pageColumns+` FROM pages
			 WHERE live AND page_type = $1
			 ORDER BY date DESC NULLS LAST LIMIT $2 OFFSET $3`,
			pageType, limit, offset)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+pageColumns+` FROM pages
			 WHERE live
			 ORDER BY date DESC NULLS LAST LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("公開ページの一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()
	return r.collectPages(rows)
}

func (r *PostgresPageRepo) collectPages(rows *sql.Rows) ([]*model.Page, error) {
	var pages []*model.Page
	for rows.Next() {
		page, err := r.scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ページ行の走査に失敗しました: %w", err)
	}
	return pages, nil
}
