package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/hitoshi/recipebox/internal/auth"
	"github.com/hitoshi/recipebox/internal/middleware"
	"github.com/hitoshi/recipebox/internal/model"
)

// --- モック定義 ---

// mockRecipeService はRecipeServiceInterfaceのモック実装。
type mockRecipeService struct {
	listFn   func(ctx context.Context, userID string) ([]*model.Recipe, error)
	getFn    func(ctx context.Context, userID string, id int64) (*model.Recipe, error)
	createFn func(ctx context.Context, userID string, input model.NewRecipe) (*model.Recipe, error)
	updateFn func(ctx context.Context, userID string, id int64, patch model.RecipePatch) (*model.Recipe, error)
	deleteFn func(ctx context.Context, userID string, id int64) (*model.Recipe, error)
}

func (m *mockRecipeService) List(ctx context.Context, userID string) ([]*model.Recipe, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return []*model.Recipe{}, nil
}

func (m *mockRecipeService) Get(ctx context.Context, userID string, id int64) (*model.Recipe, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, model.NewRecipeNotFoundError()
}

func (m *mockRecipeService) Create(ctx context.Context, userID string, input model.NewRecipe) (*model.Recipe, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, input)
	}
	return nil, nil
}

func (m *mockRecipeService) Update(ctx context.Context, userID string, id int64, patch model.RecipePatch) (*model.Recipe, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, patch)
	}
	return nil, model.NewRecipeNotFoundError()
}

func (m *mockRecipeService) Delete(ctx context.Context, userID string, id int64) (*model.Recipe, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil, model.NewRecipeNotFoundError()
}

// mockGroceryService はGroceryServiceInterfaceのモック実装。
type mockGroceryService struct {
	listFn   func(ctx context.Context) ([]*model.GroceryItem, error)
	getFn    func(ctx context.Context, id int64) (*model.GroceryItem, error)
	createFn func(ctx context.Context, name string) (*model.GroceryItem, error)
	renameFn func(ctx context.Context, id int64, name string) (*model.GroceryItem, error)
	deleteFn func(ctx context.Context, id int64) (*model.GroceryItem, error)
}

func (m *mockGroceryService) List(ctx context.Context) ([]*model.GroceryItem, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []*model.GroceryItem{}, nil
}

func (m *mockGroceryService) Get(ctx context.Context, id int64) (*model.GroceryItem, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewGroceryItemNotFoundError()
}

func (m *mockGroceryService) Create(ctx context.Context, name string) (*model.GroceryItem, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name)
	}
	return &model.GroceryItem{ID: 1, Name: name}, nil
}

func (m *mockGroceryService) Rename(ctx context.Context, id int64, name string) (*model.GroceryItem, error) {
	if m.renameFn != nil {
		return m.renameFn(ctx, id, name)
	}
	return nil, model.NewGroceryItemNotFoundError()
}

func (m *mockGroceryService) Delete(ctx context.Context, id int64) (*model.GroceryItem, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil, model.NewGroceryItemNotFoundError()
}

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	providers        []string
	getLoginURLFn    func(providerID, state string) (string, error)
	handleCallbackFn func(ctx context.Context, providerID, code string, client auth.ClientInfo) (*model.Session, *model.User, error)
	logoutFn         func(ctx context.Context, token string) error
}

func (m *mockAuthService) ProviderIDs() []string {
	return m.providers
}

func (m *mockAuthService) GetLoginURL(providerID, state string) (string, error) {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(providerID, state)
	}
	return "https://github.com/login/oauth/authorize?state=" + state, nil
}

func (m *mockAuthService) HandleCallback(ctx context.Context, providerID, code string, client auth.ClientInfo) (*model.Session, *model.User, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, providerID, code, client)
	}
	return nil, nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil
}

// tokenResolver はBearerトークンとユーザーの対応表でセッションを解決する。
type tokenResolver map[string]string

func (t tokenResolver) Resolve(ctx context.Context, header http.Header) *model.AuthContext {
	userID, ok := t[auth.TokenFromHeader(header)]
	if !ok {
		return nil
	}
	return &model.AuthContext{
		User:    &model.User{ID: userID, Email: userID + "@example.com"},
		Session: &model.Session{ID: "sess-" + userID, UserID: userID},
	}
}

// --- テストヘルパー ---

func newJSONRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func withUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.ContextWithAuth(req.Context(), &model.AuthContext{
		User:    &model.User{ID: userID},
		Session: &model.Session{UserID: userID},
	}))
}
