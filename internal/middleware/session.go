// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/recipebox/internal/metrics"
	"github.com/hitoshi/recipebox/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// authContextKey はリクエストコンテキストに認証済みの主体を格納するためのキー。
var authContextKey = contextKey("auth")

// SessionResolver はリクエストヘッダーから認証済みの主体を解決する。
// auth.Resolverが満たす。
type SessionResolver interface {
	Resolve(ctx context.Context, header http.Header) *model.AuthContext
}

// NewSessionMiddleware はセッションを解決し、結果をリクエストコンテキストに添付するミドルウェアを返す。
// 解決できない場合もリクエストは拒否せず、そのまま後続に渡す。
// 認証必須のルートではRequireAuthを併用すること。
func NewSessionMiddleware(resolver SessionResolver, collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac := resolver.Resolve(r.Context(), r.Header)
			collector.RecordSessionResolution(ac != nil)
			if ac == nil || ac.User == nil {
				next.ServeHTTP(w, r)
				return
			}
			recordAuthForLogging(r.Context(), ac.User.ID)
			next.ServeHTTP(w, r.WithContext(ContextWithAuth(r.Context(), ac)))
		})
	}
}

// RequireAuth は認証済みの主体がないリクエストを401で拒否する。
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := AuthFromContext(r.Context()); !ok {
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthFromContext はリクエストコンテキストから認証済みの主体を取得する。
func AuthFromContext(ctx context.Context) (*model.AuthContext, bool) {
	ac, ok := ctx.Value(authContextKey).(*model.AuthContext)
	if !ok || ac == nil || ac.User == nil {
		return nil, false
	}
	return ac, true
}

// ContextWithAuth はコンテキストに認証済みの主体を注入する。
func ContextWithAuth(ctx context.Context, ac *model.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションが解決されたリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	ac, ok := AuthFromContext(ctx)
	if !ok || ac.User.ID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return ac.User.ID, nil
}
