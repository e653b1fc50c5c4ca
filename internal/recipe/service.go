// Package recipe はユーザーが所有するレシピのドメインロジックを提供する。
// すべての操作は呼び出し元ユーザーにスコープされ、他ユーザーのレシピは存在しないものとして扱う。
package recipe

import (
	"context"
	"fmt"

	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/repository"
)

// Service はレシピ管理のサービス層。
type Service struct {
	repo repository.RecipeRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.RecipeRepository) *Service {
	return &Service{repo: repo}
}

// List はユーザーのレシピを新しい順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Recipe, error) {
	recipes, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("レシピ一覧の取得に失敗しました: %w", err)
	}
	return recipes, nil
}

// Get はユーザーが所有するレシピを返す。
// 存在しない場合と他ユーザーの所有の場合は区別せずNotFoundを返す。
func (s *Service) Get(ctx context.Context, userID string, id int64) (*model.Recipe, error) {
	recipe, err := s.repo.FindByIDAndUserID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗しました: %w", err)
	}
	if recipe == nil {
		return nil, model.NewRecipeNotFoundError()
	}
	return recipe, nil
}

// Create はユーザーを所有者としてレシピを作成する。
func (s *Service) Create(ctx context.Context, userID string, input model.NewRecipe) (*model.Recipe, error) {
	if err := validateNewRecipe(input); err != nil {
		return nil, err
	}

	recipe, err := s.repo.Create(ctx, userID, input)
	if err != nil {
		return nil, fmt.Errorf("レシピの作成に失敗しました: %w", err)
	}
	return recipe, nil
}

// Update はユーザーが所有するレシピに部分更新を適用する。
// 更新前にIDと所有者で存在を確認し、見つからなければ更新せずNotFoundを返す。
// 更新文自体も所有者を条件に含むため、確認後に削除された場合もNotFoundになる。
func (s *Service) Update(ctx context.Context, userID string, id int64, patch model.RecipePatch) (*model.Recipe, error) {
	if patch.IsEmpty() {
		return nil, model.NewValidationError("At least one field is required")
	}

	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}

	recipe, err := s.repo.Update(ctx, id, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("レシピの更新に失敗しました: %w", err)
	}
	if recipe == nil {
		return nil, model.NewRecipeNotFoundError()
	}
	return recipe, nil
}

// Delete はユーザーが所有するレシピを削除し、削除したレシピを返す。
func (s *Service) Delete(ctx context.Context, userID string, id int64) (*model.Recipe, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}

	recipe, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("レシピの削除に失敗しました: %w", err)
	}
	if recipe == nil {
		return nil, model.NewRecipeNotFoundError()
	}
	return recipe, nil
}

func validateNewRecipe(input model.NewRecipe) error {
	fields := []struct {
		name  string
		value string
	}{
		{"title", input.Title},
		{"ingredients", input.Ingredients},
		{"instructions", input.Instructions},
	}
	for _, f := range fields {
		if f.value == "" {
			return requiredError(f.name)
		}
	}
	return nil
}
