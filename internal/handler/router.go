package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/recipebox/internal/metrics"
	"github.com/hitoshi/recipebox/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	Metrics            metrics.MetricsCollector
	MetricsHandler     http.Handler // nilの場合 /metrics を公開しない
	SessionResolver    middleware.SessionResolver
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	CSRF               middleware.CSRFConfig
	CSRFEnabled        bool

	// ヘルスチェック
	HealthChecker HealthChecker

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// レシピ・買い物リスト
	RecipeService  RecipeServiceInterface
	GroceryService GroceryServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Recovery → SecurityHeaders → CORS → Logging → Session
//
// /api 配下にはさらにRateLimit(General)と、有効な場合はCSRFを適用する。
// レシピのルートはRequireAuthで未認証リクエストを401にする。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewLoggingMiddleware(logger, collector))
	r.Use(middleware.NewSessionMiddleware(deps.SessionResolver, collector))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, collector)
	recipeHandler := NewRecipeHandler(deps.RecipeService, collector)
	groceryHandler := NewGroceryHandler(deps.GroceryService)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 運用エンドポイント ---
	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		if deps.CSRFEnabled {
			r.Use(middleware.NewCSRFMiddleware(deps.CSRF))
		}
		createLimit := deps.RateLimiter.CreateMiddleware()

		r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF))

		// 認証ルート（OAuthフロー）
		r.Route("/auth", func(r chi.Router) {
			r.Get("/providers", authHandler.Providers)
			r.Get("/{provider}/login", authHandler.Login)
			r.Get("/sign-in/{provider}", authHandler.Login)
			r.Get("/callback/{provider}", authHandler.Callback)
			r.Post("/sign-out", authHandler.SignOut)
		})

		r.With(middleware.RequireAuth).Get("/session", authHandler.Session)

		// レシピ（所有者スコープ）
		r.Route("/recipes", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", recipeHandler.List)
			r.With(createLimit).Post("/", recipeHandler.Create)
			r.Get("/{id}", recipeHandler.Get)
			r.Put("/{id}", recipeHandler.Update)
			r.Delete("/{id}", recipeHandler.Delete)
		})

		// 買い物リスト（認証不要）
		r.Route("/grocery", func(r chi.Router) {
			r.Get("/", groceryHandler.List)
			r.With(createLimit).Post("/", groceryHandler.Create)
			r.Get("/{id}", groceryHandler.Get)
			r.Put("/{id}", groceryHandler.Update)
			r.Delete("/{id}", groceryHandler.Delete)
		})
	})

	return r
}
