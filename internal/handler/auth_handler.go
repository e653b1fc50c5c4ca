package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/recipebox/internal/auth"
	"github.com/hitoshi/recipebox/internal/metrics"
	"github.com/hitoshi/recipebox/internal/middleware"
	"github.com/hitoshi/recipebox/internal/model"
)

const oauthStateMaxAge = 600 // 10分

var (
	errStateMismatch = errors.New("oauth state mismatch")
	errMissingCode   = errors.New("missing authorization code")
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	ProviderIDs() []string
	GetLoginURL(providerID, state string) (string, error)
	HandleCallback(ctx context.Context, providerID, code string, client auth.ClientInfo) (*model.Session, *model.User, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	FrontendURL   string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge time.Duration

	// BeforeHooks はコールバック処理の前に実行される。nilの場合はリクエストログのみ。
	BeforeHooks auth.HookChain
	// AfterHooks はコールバック処理の後に実行され、判定でレスポンスを決める。
	// nilの場合は結果ログとフロントエンドへのリダイレクト。
	AfterHooks auth.HookChain
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	config    AuthHandlerConfig
	before    auth.HookChain
	after     auth.HookChain
	collector metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, collector metrics.MetricsCollector) *AuthHandler {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	before := config.BeforeHooks
	if before == nil {
		before = auth.HookChain{auth.LogRequestHook()}
	}
	after := config.AfterHooks
	if after == nil {
		after = auth.HookChain{auth.LogResultHook(), auth.RedirectAfterAuthHook(config.FrontendURL)}
	}
	return &AuthHandler{
		service:   service,
		config:    config,
		before:    before,
		after:     after,
		collector: collector,
	}
}

// Login はOAuthフローを開始する。
// GET /api/auth/{provider}/login
// GET /api/auth/sign-in/{provider}
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider")

	state, err := auth.GenerateToken()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	url, err := h.service.GetLoginURL(providerID, state)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// GET /api/auth/callback/{provider}?code=xxx&state=yyy
// beforeフック、state検証、コード交換とセッション発行、afterフックの順に実行し、
// 最初にContinue以外を返したフックの判定でレスポンスを決める。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	hc := &auth.HookContext{
		Request:    r,
		ProviderID: chi.URLParam(r, "provider"),
	}

	if d := h.before.Run(hc); d.Kind != auth.DecisionContinue {
		h.applyDecision(w, r, d)
		return
	}

	hc.Session, hc.User, hc.Err = h.exchange(w, r, hc.ProviderID)
	h.collector.RecordLogin(hc.ProviderID, hc.Session != nil)

	if hc.Session != nil {
		h.setSessionCookie(w, hc.Session.Token, int(h.config.SessionMaxAge.Seconds()))
	}

	d := h.after.Run(hc)
	if d.Kind == auth.DecisionContinue {
		d = auth.RedirectAfterAuthHook(h.config.FrontendURL)(hc)
	}
	h.applyDecision(w, r, d)
}

// exchange はstateを検証し、認可コードをセッションに交換する。
func (h *AuthHandler) exchange(w http.ResponseWriter, r *http.Request, providerID string) (*model.Session, *model.User, error) {
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(auth.StateCookieName)

	// stateクッキーは検証結果にかかわらず削除する
	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	if err != nil || state == "" || stateCookie.Value != state {
		return nil, nil, errStateMismatch
	}

	if providerErr := r.URL.Query().Get("error"); providerErr != "" {
		return nil, nil, errors.New("provider returned error: " + providerErr)
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		return nil, nil, errMissingCode
	}

	return h.service.HandleCallback(r.Context(), providerID, code, auth.ClientInfo{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
}

func (h *AuthHandler) applyDecision(w http.ResponseWriter, r *http.Request, d auth.Decision) {
	switch d.Kind {
	case auth.DecisionRedirect:
		http.Redirect(w, r, d.URL, http.StatusTemporaryRedirect)
	case auth.DecisionReject:
		status := d.Status
		if status == 0 {
			status = http.StatusForbidden
		}
		middleware.WriteErrorResponse(w, status, &model.APIError{
			Code:    model.ErrCodeAuthRejected,
			Message: d.Message,
		})
	default:
		http.Redirect(w, r, h.config.FrontendURL, http.StatusTemporaryRedirect)
	}
}

// SignOut はセッションを破棄する。
// POST /api/auth/sign-out
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromHeader(r.Header); token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			// ログアウト失敗してもCookieはクリアする
			slog.Error("failed to logout", slog.String("error", err.Error()))
		}
	}

	h.setSessionCookie(w, "", -1)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Providers は有効なプロバイダーIDの一覧を返す。
// GET /api/auth/providers
func (h *AuthHandler) Providers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": h.service.ProviderIDs()})
}

// Session は現在のセッションとユーザーを返す。
// GET /api/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": ac.Session,
		"user":    ac.User,
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clientIP はRemoteAddrからポートを除いたIPアドレスを返す。
// RealIPミドルウェアの後ではプロキシヘッダー由来のアドレスになる。
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
