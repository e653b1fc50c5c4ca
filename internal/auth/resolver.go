package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/repository"
)

// Cookie名
const (
	SessionCookieName = "session_token"
	StateCookieName   = "oauth_state"
)

// Resolver はリクエストヘッダーから認証済みの主体を解決する。
type Resolver struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	now      func() time.Time
}

// NewResolver はResolverを生成する。
func NewResolver(sessions repository.SessionRepository, users repository.UserRepository) *Resolver {
	return &Resolver{
		sessions: sessions,
		users:    users,
		now:      time.Now,
	}
}

// Resolve はヘッダーのセッショントークンから{User, Session}を解決する。
// トークンがない、不正、不明、期限切れ、またはストレージ障害の場合はnilを返し、
// エラーは返さない。期限切れのセッションはその場で削除を試みる。
func (r *Resolver) Resolve(ctx context.Context, header http.Header) *model.AuthContext {
	token := TokenFromHeader(header)
	if token == "" {
		return nil
	}

	session, err := r.sessions.FindByToken(ctx, token)
	if err != nil {
		slog.Error("failed to find session", slog.String("error", err.Error()))
		return nil
	}
	if session == nil {
		return nil
	}

	if session.IsExpired(r.now()) {
		if err := r.sessions.DeleteByToken(ctx, token); err != nil {
			slog.Warn("failed to delete expired session",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	user, err := r.users.FindByID(ctx, session.UserID)
	if err != nil {
		slog.Error("failed to find session user",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if user == nil {
		return nil
	}

	return &model.AuthContext{User: user, Session: session}
}

// TokenFromHeader はsession_token Cookie、次にAuthorization: Bearerの順でトークンを取り出す。
func TokenFromHeader(header http.Header) string {
	req := http.Request{Header: header}
	if c, err := req.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	authz := header.Get("Authorization")
	if len(authz) > len("Bearer ") && strings.EqualFold(authz[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(authz[len("Bearer "):])
	}
	return ""
}
