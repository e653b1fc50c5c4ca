package auth

import (
	"context"

	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn          func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn       func(ctx context.Context, email string) (*model.User, error)
	createWithAccountFn func(ctx context.Context, user *model.User, account *model.Account) error
	updateProfileFn     func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(_ context.Context, _ *model.User) error {
	return nil
}

func (m *mockUserRepo) CreateWithAccount(ctx context.Context, user *model.User, account *model.Account) error {
	if m.createWithAccountFn != nil {
		return m.createWithAccountFn(ctx, user, account)
	}
	return nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, user)
	}
	return nil
}

type mockAccountRepo struct {
	findFn         func(ctx context.Context, providerID, accountID string) (*model.Account, error)
	createFn       func(ctx context.Context, account *model.Account) error
	updateTokensFn func(ctx context.Context, account *model.Account) error
}

func (m *mockAccountRepo) FindByProviderAndAccountID(ctx context.Context, providerID, accountID string) (*model.Account, error) {
	if m.findFn != nil {
		return m.findFn(ctx, providerID, accountID)
	}
	return nil, nil
}

func (m *mockAccountRepo) Create(ctx context.Context, account *model.Account) error {
	if m.createFn != nil {
		return m.createFn(ctx, account)
	}
	return nil
}

func (m *mockAccountRepo) UpdateTokens(ctx context.Context, account *model.Account) error {
	if m.updateTokensFn != nil {
		return m.updateTokensFn(ctx, account)
	}
	return nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, session *model.Session) error
	findByTokenFn   func(ctx context.Context, token string) (*model.Session, error)
	deleteByTokenFn func(ctx context.Context, token string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	if m.findByTokenFn != nil {
		return m.findByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByToken(ctx context.Context, token string) error {
	if m.deleteByTokenFn != nil {
		return m.deleteByTokenFn(ctx, token)
	}
	return nil
}

type mockOAuthProvider struct {
	id             string
	getLoginURLFn  func(state string) string
	exchangeCodeFn func(ctx context.Context, code string) (*OAuthUserInfo, error)
}

func (m *mockOAuthProvider) ID() string {
	if m.id == "" {
		return ProviderGitHub
	}
	return m.id
}

func (m *mockOAuthProvider) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return ""
}

func (m *mockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code)
	}
	return nil, nil
}

// --- compile-time interface checks ---
var _ repository.UserRepository = (*mockUserRepo)(nil)
var _ repository.AccountRepository = (*mockAccountRepo)(nil)
var _ repository.SessionRepository = (*mockSessionRepo)(nil)
var _ OAuthProvider = (*mockOAuthProvider)(nil)
