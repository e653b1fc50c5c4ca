package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const defaultGitHubAPIBaseURL = "https://api.github.com"

// GitHubOAuthConfig はGitHub OAuthプロバイダーの設定。
type GitHubOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL    string
	TokenURL   string
	APIBaseURL string
}

// GitHubOAuthProvider はGitHub OAuthによる認証を提供する。
type GitHubOAuthProvider struct {
	oauth      *oauth2.Config
	apiBaseURL string
}

// NewGitHubOAuthProvider はGitHubOAuthProviderを生成する。
func NewGitHubOAuthProvider(config GitHubOAuthConfig) *GitHubOAuthProvider {
	endpoint := github.Endpoint
	if config.AuthURL != "" {
		endpoint.AuthURL = config.AuthURL
	}
	if config.TokenURL != "" {
		endpoint.TokenURL = config.TokenURL
	}
	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultGitHubAPIBaseURL
	}

	return &GitHubOAuthProvider{
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		apiBaseURL: strings.TrimRight(apiBaseURL, "/"),
	}
}

// ID はプロバイダーIDを返す。
func (p *GitHubOAuthProvider) ID() string { return ProviderGitHub }

// GetLoginURL はGitHubの認可URLを生成する。
func (p *GitHubOAuthProvider) GetLoginURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// githubUser はGET /user のレスポンス。
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// githubEmail はGET /user/emails のレスポンス要素。
type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、ユーザー情報を取得する。
// プロフィールのメールアドレスが非公開の場合は /user/emails から
// 確認済みのプライマリアドレスを取得する。
func (p *GitHubOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	client := p.oauth.Client(ctx, token)

	var user githubUser
	if err := p.getJSON(ctx, client, "/user", &user); err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("empty id in user response")
	}

	email := user.Email
	verified := false
	var emails []githubEmail
	if err := p.getJSON(ctx, client, "/user/emails", &emails); err != nil {
		// user:emailスコープが拒否された場合でもプロフィールのメールで続行する
		if email == "" {
			return nil, fmt.Errorf("failed to fetch user emails: %w", err)
		}
	}
	for _, e := range emails {
		if email == "" && e.Primary && e.Verified {
			email = e.Email
		}
		if e.Email == email {
			verified = e.Verified
		}
	}
	if email == "" {
		return nil, fmt.Errorf("no verified primary email on github account")
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	info := &OAuthUserInfo{
		ProviderID:           ProviderGitHub,
		AccountID:            strconv.FormatInt(user.ID, 10),
		Email:                email,
		EmailVerified:        verified,
		Name:                 name,
		Image:                user.AvatarURL,
		AccessToken:          token.AccessToken,
		RefreshToken:         token.RefreshToken,
		AccessTokenExpiresAt: token.Expiry,
	}
	if scope, ok := token.Extra("scope").(string); ok {
		info.Scope = scope
	}

	return info, nil
}

func (p *GitHubOAuthProvider) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// compile-time interface check
var _ OAuthProvider = (*GitHubOAuthProvider)(nil)
