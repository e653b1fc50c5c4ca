package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const googleIssuerURL = "https://accounts.google.com"

// GoogleOIDCConfig はGoogle OpenID Connectプロバイダーの設定。
type GoogleOIDCConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能な発行者URL
	IssuerURL string
}

// GoogleOIDCProvider はGoogleのOpenID Connectによる認証を提供する。
// ユーザー情報はIDトークンのクレームから取得する。
type GoogleOIDCProvider struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogleOIDCProvider はディスカバリーでエンドポイントを取得してGoogleOIDCProviderを生成する。
func NewGoogleOIDCProvider(ctx context.Context, config GoogleOIDCConfig) (*GoogleOIDCProvider, error) {
	issuer := config.IssuerURL
	if issuer == "" {
		issuer = googleIssuerURL
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: config.ClientID})
	return newGoogleOIDCProvider(config, provider.Endpoint(), verifier), nil
}

func newGoogleOIDCProvider(config GoogleOIDCConfig, endpoint oauth2.Endpoint, verifier *oidc.IDTokenVerifier) *GoogleOIDCProvider {
	return &GoogleOIDCProvider{
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: verifier,
	}
}

// ID はプロバイダーIDを返す。
func (p *GoogleOIDCProvider) ID() string { return ProviderGoogle }

// GetLoginURL はGoogleの認可URLを生成する。
func (p *GoogleOIDCProvider) GetLoginURL(state string) string {
	return p.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// googleClaims はIDトークンから取り出すクレーム。
type googleClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// ExchangeCode は認可コードをトークンに交換し、IDトークンを検証してユーザー情報を返す。
func (p *GoogleOIDCProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("no id_token in token response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id_token: %w", err)
	}

	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse id_token claims: %w", err)
	}
	if claims.Sub == "" || claims.Email == "" {
		return nil, fmt.Errorf("id_token is missing sub or email")
	}

	info := &OAuthUserInfo{
		ProviderID:           ProviderGoogle,
		AccountID:            claims.Sub,
		Email:                claims.Email,
		EmailVerified:        claims.EmailVerified,
		Name:                 claims.Name,
		Image:                claims.Picture,
		AccessToken:          token.AccessToken,
		RefreshToken:         token.RefreshToken,
		IDToken:              rawIDToken,
		AccessTokenExpiresAt: token.Expiry,
	}
	if scope, ok := token.Extra("scope").(string); ok {
		info.Scope = scope
	}
	if info.Name == "" {
		info.Name = claims.Email
	}

	return info, nil
}

// compile-time interface check
var _ OAuthProvider = (*GoogleOIDCProvider)(nil)
