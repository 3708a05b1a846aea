// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/migcontrol/website/internal/assets"
	"github.com/migcontrol/website/internal/config"
	"github.com/migcontrol/website/internal/database"
	"github.com/migcontrol/website/internal/handler"
	"github.com/migcontrol/website/internal/importer"
	"github.com/migcontrol/website/internal/logger"
	"github.com/migcontrol/website/internal/metrics"
	"github.com/migcontrol/website/internal/model"
	"github.com/migcontrol/website/internal/repository"
	"github.com/migcontrol/website/internal/rewrite"
	"github.com/migcontrol/website/internal/security"
	"github.com/migcontrol/website/internal/taxonomy"
	"github.com/migcontrol/website/internal/wxr"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
	)

	switch cmd {
	case CommandImport:
		return runImport(cfg, args[1:])
	case CommandImportMedia:
		return runImportMedia(cfg, args[1:])
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runImport はWXRファイルからコンテンツページをインポートする。
// --atomic指定時は実行全体を1つのトランザクションで行い、
// 実行中断エラー（インデックス不在等）の場合は全変更をロールバックする。
func runImport(cfg *config.Config, args []string) error {
	opts, err := ParseImportOptions(args)
	if err != nil {
		return err
	}

	records, err := parseExportFile(opts.XMLPath, wxr.Options{})
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runOpts := importer.RunOptions{
		IndexSlug:          opts.IndexSlug,
		PageType:           opts.PageType,
		UseLocale:          opts.UseLocale,
		LocaleOverride:     opts.Locale,
		CreateOtherLocales: opts.CreateOtherLocales,
	}

	slog.Info("インポートを開始します",
		slog.String("xml", opts.XMLPath),
		slog.String("index", opts.IndexSlug),
		slog.String("page_type", string(opts.PageType)),
		slog.Int("records", len(records)),
		slog.Bool("atomic", opts.Atomic),
	)

	var stats *importer.RunStats
	if opts.Atomic {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		imp := newImporter(tx, cfg, opts.WpBaseURL)
		stats, err = imp.Run(ctx, records, runOpts)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("ロールバックに失敗しました", slog.String("error", rbErr.Error()))
			}
			return fmt.Errorf("import failed, all changes rolled back: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
	} else {
		imp := newImporter(db, cfg, opts.WpBaseURL)
		stats, err = imp.Run(ctx, records, runOpts)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
	}

	slog.Info("インポートが完了しました",
		slog.Int("created", stats.Created),
		slog.Int("updated", stats.Updated),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed),
	)
	return nil
}

// runImportMedia はWXRファイルの添付ファイルをメディアライブラリにインポートする。
func runImportMedia(cfg *config.Config, args []string) error {
	opts, err := ParseMediaOptions(args)
	if err != nil {
		return err
	}

	records, err := parseExportFile(opts.XMLPath, wxr.Options{OnlyAttachments: true})
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("メディアインポートを開始します",
		slog.String("xml", opts.XMLPath),
		slog.Int("records", len(records)),
	)

	imp := newImporter(db, cfg, opts.WpBaseURL)
	stats, err := imp.RunMedia(ctx, records)
	if err != nil {
		return fmt.Errorf("media import failed: %w", err)
	}

	slog.Info("メディアインポートが完了しました",
		slog.Int("created", stats.Created),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed),
	)
	return nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、参照系の依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	pageRepo := repository.NewPostgresPageRepo(db)
	assetRepo := repository.NewPostgresAssetRepo(db)
	mappingRepo := repository.NewPostgresMappingRepo(db)

	deps := &handler.RouterDeps{
		Logger:          slog.Default(),
		Pages:           pageRepo,
		Assets:          assetRepo,
		Mappings:        mappingRepo,
		MetricsRegistry: prometheus.NewRegistry(),
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// newImporter はインポートに必要な全依存関係をワイヤリングする。
// dbtxに*sql.Txを渡すと全リポジトリが同一トランザクション上で動作する。
func newImporter(dbtx repository.DBTX, cfg *config.Config, wpBaseURL string) *importer.Importer {
	pageRepo := repository.NewPostgresPageRepo(dbtx)
	userRepo := repository.NewPostgresUserRepo(dbtx)
	assetRepo := repository.NewPostgresAssetRepo(dbtx)
	mappingRepo := repository.NewPostgresMappingRepo(dbtx)
	taxonomyRepo := repository.NewPostgresTaxonomyRepo(dbtx)
	footnoteRepo := repository.NewPostgresFootnoteRepo(dbtx)

	guard := security.NewFetchGuard()
	sanitizer := security.NewContentSanitizer()

	fetcher := assets.NewFetcher(guard, cfg.FetchRateLimit, cfg.FetchTimeout, cfg.FetchMaxSize, slog.Default())
	mapper := assets.NewMapper(fetcher, mappingRepo, assetRepo, wpBaseURL, slog.Default())
	rewriter := rewrite.NewRewriter(mapper, sanitizer, footnoteRepo, slog.Default())
	reconciler := taxonomy.NewService(taxonomyRepo, slog.Default())
	collector := metrics.NewCollector(prometheus.NewRegistry())

	return importer.NewImporter(
		pageRepo, userRepo, reconciler, mapper, fetcher, rewriter, collector,
		cfg.Locales, cfg.DefaultLocale, wpBaseURL, slog.Default(),
	)
}

// parseExportFile はWXRエクスポートファイルを読み込み、投稿レコード列に変換する。
func parseExportFile(path string, opts wxr.Options) ([]model.PostRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	defer f.Close()

	parser := wxr.NewParser(opts, slog.Default())
	records, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse export file: %w", err)
	}
	return records, nil
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")
	return db, nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
