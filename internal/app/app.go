package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/recipebox/internal/auth"
	"github.com/hitoshi/recipebox/internal/config"
	"github.com/hitoshi/recipebox/internal/database"
	"github.com/hitoshi/recipebox/internal/grocery"
	"github.com/hitoshi/recipebox/internal/handler"
	"github.com/hitoshi/recipebox/internal/logger"
	"github.com/hitoshi/recipebox/internal/metrics"
	"github.com/hitoshi/recipebox/internal/middleware"
	"github.com/hitoshi/recipebox/internal/recipe"
	"github.com/hitoshi/recipebox/internal/repository"
	"github.com/hitoshi/recipebox/internal/seed"
	"github.com/hitoshi/recipebox/internal/worker/cleanup"
)

const (
	defaultHealthcheckPort = "3001"
	dbPingTimeout          = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
)

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// LOG_LEVELを.envから拾えるように、ログより先に読み込む
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	logger.SetupDefault(w)

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
			port = defaultHealthcheckPort
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		var rest []string
		if len(args) > 1 {
			rest = args[1:]
		}
		return runMigrate(cfg, rest)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runServe(cfg)
	}
}

// openDB はDB接続を開き、疎通を確認する。
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.Ping(context.Background(), db, dbPingTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)
	return db, nil
}

// buildProviders は設定に応じて有効なOAuthプロバイダーを構築する。
// GitHubは常に有効、GoogleはクライアントIDが設定されている場合のみ有効。
func buildProviders(ctx context.Context, cfg *config.Config) ([]auth.OAuthProvider, error) {
	providers := []auth.OAuthProvider{
		auth.NewGitHubOAuthProvider(auth.GitHubOAuthConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.CallbackURL(auth.ProviderGitHub),
		}),
	}

	if cfg.GoogleEnabled() {
		google, err := auth.NewGoogleOIDCProvider(ctx, auth.GoogleOIDCConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.CallbackURL(auth.ProviderGoogle),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize google provider: %w", err)
		}
		providers = append(providers, google)
	}

	return providers, nil
}

// buildSessionRepo はセッションリポジトリを構築する。
// REDIS_URLが設定されている場合はRedisキャッシュを前段に挟む。
// 返されるclose関数は呼び出し側が終了時に呼ぶ。
func buildSessionRepo(ctx context.Context, db *sql.DB, cfg *config.Config) (repository.SessionRepository, func(), error) {
	var sessions repository.SessionRepository = repository.NewPostgresSessionRepo(db)
	if cfg.RedisURL == "" {
		return sessions, func() {}, nil
	}

	rdb, err := repository.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Info("session cache enabled", slog.Duration("ttl", cfg.SessionCacheTTL))

	cached := repository.NewCachedSessionRepo(sessions, repository.NewRedisCacheStore(rdb), cfg.SessionCacheTTL)
	return cached, func() { rdb.Close() }, nil
}

// newRouter はサーバーの全依存関係をワイヤリングしてルーターを構築する。
func newRouter(ctx context.Context, db *sql.DB, cfg *config.Config) (http.Handler, func(), error) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	accountRepo := repository.NewPostgresAccountRepo(db)
	recipeRepo := repository.NewPostgresRecipeRepo(db)
	groceryRepo := repository.NewPostgresGroceryRepo(db)
	sessionRepo, closeSessions, err := buildSessionRepo(ctx, db, cfg)
	if err != nil {
		return nil, nil, err
	}

	// 2. 認証サービスの初期化
	providers, err := buildProviders(ctx, cfg)
	if err != nil {
		closeSessions()
		return nil, nil, err
	}
	authService := auth.NewService(
		providers, userRepo, accountRepo, sessionRepo,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	resolver := auth.NewResolver(sessionRepo, userRepo)

	// 3. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 4. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitCreate),
	)

	deps := &handler.RouterDeps{
		Logger:             slog.Default(),
		Metrics:            collector,
		MetricsHandler:     metrics.Handler(registry),
		SessionResolver:    resolver,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        rateLimiter,
		CSRF: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		CSRFEnabled: cfg.CSRFProtection,

		HealthChecker: db,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			FrontendURL:   cfg.FrontendURL,
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		RecipeService:  recipe.NewService(recipeRepo),
		GroceryService: grocery.NewService(groceryRepo),
	}

	cleanupFn := func() {
		rateLimiter.Stop()
		closeSessions()
	}
	return handler.NewRouter(deps), cleanupFn, nil
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	router, closeRouter, err := newRouter(context.Background(), db, cfg)
	if err != nil {
		return err
	}
	defer closeRouter()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れセッション・検証トークンのクリーンアップを定期実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("worker starting", slog.Duration("cleanup_interval", cfg.CleanupInterval))

	job := cleanup.NewCleanupJob(db, slog.Default(), metrics.NopCollector{})
	job.Start(ctx, cfg.CleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// 引数なしまたはupで未適用分をすべて適用し、downで直近の1つを取り消し、versionで現在のバージョンを表示する。
func runMigrate(cfg *config.Config, args []string) error {
	action, err := ParseMigrateAction(args)
	if err != nil {
		return err
	}

	slog.Info("running database migrations",
		slog.String("action", string(action)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch action {
	case MigrateDown:
		if err := database.RollbackMigration(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration rollback failed: %w", err)
		}
		slog.Info("database migration rolled back")
	case MigrateVersion:
		version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		slog.Info("current migration version",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
	default:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("database migrations completed successfully")
	}

	return nil
}

// runSeed はデモユーザーにサンプルレシピを投入する。
func runSeed(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	seeder := seed.NewSeeder(
		repository.NewPostgresUserRepo(db),
		repository.NewPostgresRecipeRepo(db),
		slog.Default(),
	)

	res, err := seeder.Run(context.Background(), cfg.SeedUserEmail)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	slog.Info("database seeding completed",
		slog.String("user_id", res.UserID),
		slog.Bool("user_created", res.UserCreated),
		slog.Int64("deleted", res.Deleted),
		slog.Int("inserted", res.Inserted),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードを伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
