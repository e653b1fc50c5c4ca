// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/recipebox/internal/model"
)

// RecipeRepository はレシピデータの永続化インターフェース。
// 所有者によるスコープ付けを前提とし、すべての読み書きでuserIDを条件に含める。
type RecipeRepository interface {
	// ListByUserID は指定ユーザーが所有するレシピを作成日時の降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Recipe, error)

	// FindByIDAndUserID はIDと所有者の両方が一致するレシピを取得する。
	// 存在しない場合、または他ユーザーの所有の場合はnilを返す。
	FindByIDAndUserID(ctx context.Context, id int64, userID string) (*model.Recipe, error)

	// Create は指定ユーザーを所有者としてレシピを作成し、作成された行を返す。
	Create(ctx context.Context, userID string, input model.NewRecipe) (*model.Recipe, error)

	// Update はIDと所有者が一致するレシピに部分更新を適用し、更新後の行を返す。
	// updated_atは内容の変更有無にかかわらず必ず前進させる。
	// 対象行がない場合はnilを返す。
	Update(ctx context.Context, id int64, userID string, patch model.RecipePatch) (*model.Recipe, error)

	// Delete はIDと所有者が一致するレシピを削除し、削除した行を返す。
	// 対象行がない場合はnilを返す。
	Delete(ctx context.Context, id int64, userID string) (*model.Recipe, error)

	// DeleteByUserID は指定ユーザーのレシピをすべて削除し、削除件数を返す。
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}

// GroceryRepository は買い物リスト項目の永続化インターフェース。
// 所有者を持たないため、IDのみで検索・更新する。
type GroceryRepository interface {
	// List は全項目を作成日時の昇順で返す。
	List(ctx context.Context) ([]*model.GroceryItem, error)
	// FindByID は指定IDの項目を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.GroceryItem, error)
	// Create は項目を作成し、作成された行を返す。
	Create(ctx context.Context, name string) (*model.GroceryItem, error)
	// UpdateName は項目名を更新する。対象行がない場合はnilを返す。
	UpdateName(ctx context.Context, id int64, name string) (*model.GroceryItem, error)
	// Delete は項目を削除し、削除した行を返す。対象行がない場合はnilを返す。
	Delete(ctx context.Context, id int64) (*model.GroceryItem, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを単独で作成する。
	Create(ctx context.Context, user *model.User) error

	// CreateWithAccount はユーザーと外部アカウント紐付けを同一トランザクションで作成する。
	CreateWithAccount(ctx context.Context, user *model.User, account *model.Account) error

	// UpdateProfile はプロバイダーから取得した表示名・画像・メール確認状態を反映する。
	UpdateProfile(ctx context.Context, user *model.User) error
}

// AccountRepository は外部プロバイダーとの紐付け情報の永続化インターフェース。
type AccountRepository interface {
	// FindByProviderAndAccountID はプロバイダーIDとプロバイダー側のアカウントIDで紐付けを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndAccountID(ctx context.Context, providerID, accountID string) (*model.Account, error)

	// Create は紐付けを作成する。既存ユーザーへの新規プロバイダー追加で使用する。
	Create(ctx context.Context, account *model.Account) error

	// UpdateTokens はログインのたびに取得したトークン類を上書き保存する。
	UpdateTokens(ctx context.Context, account *model.Account) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByToken はトークンでセッションを取得する。見つからない場合はnilを返す。
	// 期限切れのセッションも返すため、有効性の判定は呼び出し側で行う。
	FindByToken(ctx context.Context, token string) (*model.Session, error)
	// DeleteByToken は指定トークンのセッションを削除する。
	DeleteByToken(ctx context.Context, token string) error
}

// SessionCacheStore はセッション検索結果のキャッシュ先を抽象化する。
// 値はシリアライズ済みのバイト列として扱う。
type SessionCacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
