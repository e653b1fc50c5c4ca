package auth

import (
	"context"
	"time"
)

// プロバイダーID
const (
	ProviderGitHub = "github"
	ProviderGoogle = "google"
)

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報とトークンを表す。
type OAuthUserInfo struct {
	ProviderID    string // "github", "google"
	AccountID     string // プロバイダー側のユーザーID
	Email         string
	EmailVerified bool
	Name          string
	Image         string

	AccessToken          string
	RefreshToken         string
	IDToken              string
	AccessTokenExpiresAt time.Time
	Scope                string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// ID はプロバイダーIDを返す。
	ID() string
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}
