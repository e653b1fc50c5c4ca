package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/recipebox/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウント紐付けリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// FindByProviderAndAccountID はprovider_idとaccount_idで紐付けを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByProviderAndAccountID(ctx context.Context, providerID, accountID string) (*model.Account, error) {
	account := &model.Account{}
	var accessToken, refreshToken, idToken, scope sql.NullString
	var accessExp, refreshExp sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, provider_id, account_id,
		        access_token, refresh_token, id_token,
		        access_token_expires_at, refresh_token_expires_at, scope,
		        created_at, updated_at
		 FROM accounts
		 WHERE provider_id = $1 AND account_id = $2`,
		providerID, accountID,
	).Scan(
		&account.ID, &account.UserID, &account.ProviderID, &account.AccountID,
		&accessToken, &refreshToken, &idToken,
		&accessExp, &refreshExp, &scope,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	account.AccessToken = stringPtrFromNull(accessToken)
	account.RefreshToken = stringPtrFromNull(refreshToken)
	account.IDToken = stringPtrFromNull(idToken)
	account.AccessTokenExpiresAt = nullTimePtr(accessExp)
	account.RefreshTokenExpiresAt = nullTimePtr(refreshExp)
	account.Scope = stringPtrFromNull(scope)

	return account, nil
}

// Create は紐付けを作成する。
func (r *PostgresAccountRepo) Create(ctx context.Context, account *model.Account) error {
	return insertAccount(ctx, r.db, account)
}

// UpdateTokens はトークン類とスコープを上書きする。
func (r *PostgresAccountRepo) UpdateTokens(ctx context.Context, account *model.Account) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET access_token = $2, refresh_token = $3, id_token = $4,
		     access_token_expires_at = $5, refresh_token_expires_at = $6,
		     scope = $7, updated_at = $8
		 WHERE id = $1`,
		account.ID,
		nullStringPtr(account.AccessToken), nullStringPtr(account.RefreshToken), nullStringPtr(account.IDToken),
		account.AccessTokenExpiresAt, account.RefreshTokenExpiresAt,
		nullStringPtr(account.Scope), account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account tokens: %w", err)
	}
	return nil
}

func insertAccount(ctx context.Context, db execer, account *model.Account) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO accounts (
		     id, user_id, provider_id, account_id,
		     access_token, refresh_token, id_token,
		     access_token_expires_at, refresh_token_expires_at, scope,
		     created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		account.ID, account.UserID, account.ProviderID, account.AccountID,
		nullStringPtr(account.AccessToken), nullStringPtr(account.RefreshToken), nullStringPtr(account.IDToken),
		account.AccessTokenExpiresAt, account.RefreshTokenExpiresAt, nullStringPtr(account.Scope),
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
