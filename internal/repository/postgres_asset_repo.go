package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/migcontrol/website/internal/model"
)

// PostgresAssetRepo はPostgreSQLを使用した画像・ドキュメントリポジトリ。
// ファイル本体はbyteaカラムとして保持する。
type PostgresAssetRepo struct {
	db DBTX
}

// NewPostgresAssetRepo はPostgresAssetRepoを生成する。
func NewPostgresAssetRepo(db DBTX) *PostgresAssetRepo {
	return &PostgresAssetRepo{db: db}
}

// CreateImage は画像を作成する。
func (r *PostgresAssetRepo) CreateImage(ctx context.Context, img *model.Image) error {
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO images (id, title, filename, width, height, mime, caption, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		img.ID, img.Title, img.Filename, img.Width, img.Height,
		img.Mime, img.Caption, img.Data, img.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("画像の作成に失敗しました: %w", err)
	}
	return nil
}

// FindImageByID は指定IDの画像を取得する。見つからない場合はnilを返す。
func (r *PostgresAssetRepo) FindImageByID(ctx context.Context, id string) (*model.Image, error) {
	img := &model.Image{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, filename, width, height, mime, caption, data, created_at
		 FROM images WHERE id = $1`, id,
	).Scan(&img.ID, &img.Title, &img.Filename, &img.Width, &img.Height,
		&img.Mime, &img.Caption, &img.Data, &img.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("画像の取得に失敗しました: %w", err)
	}
	return img, nil
}

// UpdateImageCaption は画像のキャプションを更新する。
func (r *PostgresAssetRepo) UpdateImageCaption(ctx context.Context, id, caption string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE images SET caption = $2 WHERE id = $1`, id, caption)
	if err != nil {
		return fmt.Errorf("画像キャプションの更新に失敗しました: %w", err)
	}
	return nil
}

// CreateDocument はドキュメントを作成する。
func (r *PostgresAssetRepo) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, filename, mime, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, doc.Title, doc.Filename, doc.Mime, doc.Data, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ドキュメントの作成に失敗しました: %w", err)
	}
	return nil
}

// FindDocumentByID は指定IDのドキュメントを取得する。見つからない場合はnilを返す。
func (r *PostgresAssetRepo) FindDocumentByID(ctx context.Context, id string) (*model.Document, error) {
	doc := &model.Document{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, filename, mime, data, created_at
		 FROM documents WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.Title, &doc.Filename, &doc.Mime, &doc.Data, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ドキュメントの取得に失敗しました: %w", err)
	}
	return doc, nil
}
