package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/recipebox/internal/model"
)

// PostgresGroceryRepo はPostgreSQLを使用した買い物リストリポジトリ。
type PostgresGroceryRepo struct {
	db *sql.DB
}

// NewPostgresGroceryRepo はPostgresGroceryRepoを生成する。
func NewPostgresGroceryRepo(db *sql.DB) *PostgresGroceryRepo {
	return &PostgresGroceryRepo{db: db}
}

// List は全項目を作成日時の昇順で返す。
func (r *PostgresGroceryRepo) List(ctx context.Context) ([]*model.GroceryItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM grocery_items ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list grocery items: %w", err)
	}
	defer rows.Close()

	items := make([]*model.GroceryItem, 0)
	for rows.Next() {
		item := &model.GroceryItem{}
		if err := rows.Scan(&item.ID, &item.Name, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grocery item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate grocery items: %w", err)
	}
	return items, nil
}

// FindByID は指定IDの項目を取得する。見つからない場合はnilを返す。
func (r *PostgresGroceryRepo) FindByID(ctx context.Context, id int64) (*model.GroceryItem, error) {
	return r.queryOne(ctx, "find",
		`SELECT id, name, created_at FROM grocery_items WHERE id = $1`, id)
}

// Create は項目を作成する。
func (r *PostgresGroceryRepo) Create(ctx context.Context, name string) (*model.GroceryItem, error) {
	item := &model.GroceryItem{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO grocery_items (name) VALUES ($1) RETURNING id, name, created_at`,
		name,
	).Scan(&item.ID, &item.Name, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create grocery item: %w", err)
	}
	return item, nil
}

// UpdateName は項目名を更新する。対象行がない場合はnilを返す。
func (r *PostgresGroceryRepo) UpdateName(ctx context.Context, id int64, name string) (*model.GroceryItem, error) {
	return r.queryOne(ctx, "update",
		`UPDATE grocery_items SET name = $2 WHERE id = $1 RETURNING id, name, created_at`, id, name)
}

// Delete は項目を削除する。対象行がない場合はnilを返す。
func (r *PostgresGroceryRepo) Delete(ctx context.Context, id int64) (*model.GroceryItem, error) {
	return r.queryOne(ctx, "delete",
		`DELETE FROM grocery_items WHERE id = $1 RETURNING id, name, created_at`, id)
}

func (r *PostgresGroceryRepo) queryOne(ctx context.Context, op, query string, args ...any) (*model.GroceryItem, error) {
	item := &model.GroceryItem{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&item.ID, &item.Name, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s grocery item: %w", op, err)
	}
	return item, nil
}

// compile-time interface check
var _ GroceryRepository = (*PostgresGroceryRepo)(nil)
