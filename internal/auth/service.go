// Package auth はOAuth認証フロー、セッションの発行と解決を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/repository"
)

// ErrUnverifiedEmailLink は未紐付けのプロバイダーアカウントが既存ユーザーと同じメールアドレスを持つが、
// どちらかのメールアドレスが確認済みでないためにログインを拒否したことを示す。
var ErrUnverifiedEmailLink = errors.New("cannot link account to existing user without verified email")

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge time.Duration // セッション有効期間
}

// ClientInfo はセッションに記録するクライアント情報。
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	providers   map[string]OAuthProvider
	userRepo    repository.UserRepository
	accountRepo repository.AccountRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	providers []OAuthProvider,
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	m := make(map[string]OAuthProvider, len(providers))
	for _, p := range providers {
		m[p.ID()] = p
	}
	return &Service{
		providers:   m,
		userRepo:    userRepo,
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		config:      config,
		now:         time.Now,
	}
}

// ProviderIDs は有効なプロバイダーIDを昇順で返す。
func (s *Service) ProviderIDs() []string {
	ids := make([]string, 0, len(s.providers))
	for id := range s.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetLoginURL は指定プロバイダーのOAuth認証URLを生成する。
func (s *Service) GetLoginURL(providerID, state string) (string, error) {
	p, ok := s.providers[providerID]
	if !ok {
		return "", model.NewProviderNotFoundError(providerID)
	}
	return p.GetLoginURL(state), nil
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// 紐付け済みのアカウントがあればそのユーザーでログインし、トークンとプロフィールを更新する。
// 紐付けがなく同じメールアドレスのユーザーが存在する場合は、双方のメールアドレスが確認済みであればアカウントを追加で紐付け、
// そうでなければErrUnverifiedEmailLinkを返す。
// どちらもない場合はユーザーとアカウントを同一トランザクションで作成する。
func (s *Service) HandleCallback(ctx context.Context, providerID, code string, client ClientInfo) (*model.Session, *model.User, error) {
	p, ok := s.providers[providerID]
	if !ok {
		return nil, nil, model.NewProviderNotFoundError(providerID)
	}

	info, err := p.ExchangeCode(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	user, err := s.upsertUser(ctx, info)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.createSession(ctx, user.ID, client)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, user, nil
}

func (s *Service) upsertUser(ctx context.Context, info *OAuthUserInfo) (*model.User, error) {
	now := s.now()

	account, err := s.accountRepo.FindByProviderAndAccountID(ctx, info.ProviderID, info.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	if account != nil {
		user, err := s.userRepo.FindByID(ctx, account.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		if user == nil {
			return nil, model.NewUserNotFoundError()
		}

		applyTokens(account, info, now)
		if err := s.accountRepo.UpdateTokens(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to update account: %w", err)
		}

		user.Name = info.Name
		user.Image = optionalString(info.Image)
		user.EmailVerified = user.EmailVerified || info.EmailVerified
		user.UpdatedAt = now
		if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}

		slog.Info("existing user logged in",
			slog.String("user_id", user.ID),
			slog.String("provider", info.ProviderID),
		)
		return user, nil
	}

	newAccount := &model.Account{
		ID:         uuid.New().String(),
		ProviderID: info.ProviderID,
		AccountID:  info.AccountID,
		CreatedAt:  now,
	}
	applyTokens(newAccount, info, now)

	existing, err := s.userRepo.FindByEmail(ctx, info.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		// 双方のメールアドレスが確認済みの場合のみ紐付ける
		if !info.EmailVerified || !existing.EmailVerified {
			slog.Warn("refused to link account to existing user",
				slog.String("user_id", existing.ID),
				slog.String("provider", info.ProviderID),
				slog.Bool("provider_email_verified", info.EmailVerified),
				slog.Bool("user_email_verified", existing.EmailVerified),
			)
			return nil, ErrUnverifiedEmailLink
		}
		newAccount.UserID = existing.ID
		if err := s.accountRepo.Create(ctx, newAccount); err != nil {
			return nil, fmt.Errorf("failed to link account: %w", err)
		}
		slog.Info("account linked to existing user",
			slog.String("user_id", existing.ID),
			slog.String("provider", info.ProviderID),
		)
		return existing, nil
	}

	user := &model.User{
		ID:            uuid.New().String(),
		Name:          info.Name,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Image:         optionalString(info.Image),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	newAccount.UserID = user.ID

	if err := s.userRepo.CreateWithAccount(ctx, user, newAccount); err != nil {
		return nil, fmt.Errorf("failed to create user and account: %w", err)
	}

	slog.Info("new user created",
		slog.String("user_id", user.ID),
		slog.String("provider", info.ProviderID),
	)
	return user, nil
}

// Logout はトークンに対応するセッションを破棄する。
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("session token is required")
	}

	if err := s.sessionRepo.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string, client ClientInfo) (*model.Session, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(s.config.SessionMaxAge),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

func applyTokens(account *model.Account, info *OAuthUserInfo, now time.Time) {
	account.AccessToken = optionalString(info.AccessToken)
	account.RefreshToken = optionalString(info.RefreshToken)
	account.IDToken = optionalString(info.IDToken)
	account.Scope = optionalString(info.Scope)
	account.AccessTokenExpiresAt = nil
	if !info.AccessTokenExpiresAt.IsZero() {
		t := info.AccessTokenExpiresAt
		account.AccessTokenExpiresAt = &t
	}
	account.UpdatedAt = now
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GenerateToken は暗号的に安全なランダムトークン（32バイトの16進文字列）を生成する。
// セッショントークンとOAuthのstateに使用する。
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
