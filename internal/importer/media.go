package importer

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/migcontrol/website/internal/model"
)

// imageExtensions は画像としてインポートする拡張子の集合。
// それ以外の添付ファイルはドキュメントとしてインポートする。
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// RunMedia は添付ファイル投稿をメディアライブラリにインポートする。
// 個々の取得失敗はログとメトリクスに記録して継続する。
func (imp *Importer) RunMedia(ctx context.Context, records []model.PostRecord) (*RunStats, error) {
	stats := &RunStats{}

	for _, rec := range records {
		if !rec.IsAttachment() || rec.AttachmentURL == "" {
			stats.Skipped++
			imp.collector.RecordPostSkipped("not_attachment")
			continue
		}

		postID := rec.ID
		kind := "document"
		start := time.Now()
		var err error
		if isImageURL(rec.AttachmentURL) {
			kind = "image"
			_, err = imp.mapper.FindOrFetchImage(ctx, rec.AttachmentURL, &postID)
		} else {
			_, err = imp.mapper.FindOrFetchDocument(ctx, rec.AttachmentURL, &postID)
		}
		imp.collector.RecordFetchLatency(time.Since(start))

		if err != nil {
			var fetchErr *model.FetchError
			if errors.As(err, &fetchErr) {
				stats.Failed++
				imp.collector.RecordAssetFetchFailure(kind)
				imp.logger.Warn("添付ファイルの取得に失敗しました",
					"postId", rec.ID, "url", rec.AttachmentURL, "error", err)
				continue
			}
			return stats, err
		}

		stats.Created++
		imp.collector.RecordAssetFetched(kind)
	}

	imp.logger.Info("メディアインポートが完了しました",
		"created", stats.Created, "skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}

// isImageURL はURLの拡張子から画像かどうかを判定する。
func isImageURL(u string) bool {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return imageExtensions[strings.ToLower(path.Ext(u))]
}
