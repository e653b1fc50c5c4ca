package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/recipebox/internal/model"
)

const recipeColumns = `id, title, ingredients, instructions, website_url, image_url, user_id, created_at, updated_at`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresRecipeRepo はPostgreSQLを使用したレシピリポジトリ。
type PostgresRecipeRepo struct {
	db *sql.DB
}

// NewPostgresRecipeRepo はPostgresRecipeRepoを生成する。
func NewPostgresRecipeRepo(db *sql.DB) *PostgresRecipeRepo {
	return &PostgresRecipeRepo{db: db}
}

// ListByUserID は指定ユーザーが所有するレシピを作成日時の降順で返す。
func (r *PostgresRecipeRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Recipe, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recipeColumns+`
		 FROM recipes
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := make([]*model.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}

	return recipes, nil
}

// FindByIDAndUserID はIDと所有者の両方が一致するレシピを取得する。
func (r *PostgresRecipeRepo) FindByIDAndUserID(ctx context.Context, id int64, userID string) (*model.Recipe, error) {
	recipe, err := scanRecipe(r.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+`
		 FROM recipes
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find recipe: %w", err)
	}
	return recipe, nil
}

// Create は指定ユーザーを所有者としてレシピを作成する。
func (r *PostgresRecipeRepo) Create(ctx context.Context, userID string, input model.NewRecipe) (*model.Recipe, error) {
	recipe, err := scanRecipe(r.db.QueryRowContext(ctx,
		`INSERT INTO recipes (title, ingredients, instructions, website_url, image_url, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+recipeColumns,
		input.Title, input.Ingredients, input.Instructions,
		nullStringPtr(input.WebsiteURL), nullStringPtr(input.ImageURL), userID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}
	return recipe, nil
}

// Update はIDと所有者が一致するレシピに部分更新を適用する。
// updated_atは現在時刻と「直前の値+1マイクロ秒」の大きい方に設定し、必ず前進させる。
func (r *PostgresRecipeRepo) Update(ctx context.Context, id int64, userID string, patch model.RecipePatch) (*model.Recipe, error) {
	query, args := buildRecipeUpdate(id, userID, patch)

	recipe, err := scanRecipe(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	return recipe, nil
}

// Delete はIDと所有者が一致するレシピを削除する。
func (r *PostgresRecipeRepo) Delete(ctx context.Context, id int64, userID string) (*model.Recipe, error) {
	recipe, err := scanRecipe(r.db.QueryRowContext(ctx,
		`DELETE FROM recipes
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+recipeColumns,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete recipe: %w", err)
	}
	return recipe, nil
}

// DeleteByUserID は指定ユーザーのレシピをすべて削除する。
func (r *PostgresRecipeRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM recipes WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user recipes: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// buildRecipeUpdate はパッチで指定されたフィールドだけを含むUPDATE文を組み立てる。
// 引数は $1=id, $2=user_id の後に各フィールドの値が続く。
func buildRecipeUpdate(id int64, userID string, patch model.RecipePatch) (string, []any) {
	args := []any{id, userID}
	sets := make([]string, 0, 6)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Ingredients != nil {
		add("ingredients", *patch.Ingredients)
	}
	if patch.Instructions != nil {
		add("instructions", *patch.Instructions)
	}
	if patch.WebsiteURL.Set {
		add("website_url", nullStringPtr(patch.WebsiteURL.Value))
	}
	if patch.ImageURL.Set {
		add("image_url", nullStringPtr(patch.ImageURL.Value))
	}
	sets = append(sets, "updated_at = GREATEST(now(), updated_at + interval '1 microsecond')")

	query := `UPDATE recipes SET ` + strings.Join(sets, ", ") + `
		 WHERE id = $1 AND user_id = $2
		 RETURNING ` + recipeColumns

	return query, args
}

// scanRecipe は1行分のレシピをスキャンする。
func scanRecipe(row rowScanner) (*model.Recipe, error) {
	recipe := &model.Recipe{}
	var websiteURL, imageURL sql.NullString
	if err := row.Scan(
		&recipe.ID, &recipe.Title, &recipe.Ingredients, &recipe.Instructions,
		&websiteURL, &imageURL, &recipe.UserID, &recipe.CreatedAt, &recipe.UpdatedAt,
	); err != nil {
		return nil, err
	}
	recipe.WebsiteURL = stringPtrFromNull(websiteURL)
	recipe.ImageURL = stringPtrFromNull(imageURL)
	return recipe, nil
}

// nullStringPtr は*stringをsql.NullStringに変換する。nilはNULLになる。
func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// stringPtrFromNull はsql.NullStringを*stringに変換する。NULLはnilになる。
func stringPtrFromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// nullTimePtr はsql.NullTimeを*time.Timeに変換する。NULLはnilになる。
func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// compile-time interface check
var _ RecipeRepository = (*PostgresRecipeRepo)(nil)
