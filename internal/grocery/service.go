// Package grocery は買い物リストのドメインロジックを提供する。
// 買い物リストは所有者を持たず、認証なしで共有される。
package grocery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/repository"
)

// Service は買い物リストのサービス層。
type Service struct {
	repo repository.GroceryRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.GroceryRepository) *Service {
	return &Service{repo: repo}
}

// List は全項目を返す。
func (s *Service) List(ctx context.Context) ([]*model.GroceryItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("買い物リストの取得に失敗しました: %w", err)
	}
	return items, nil
}

// Get は指定IDの項目を返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.GroceryItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("買い物リスト項目の取得に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewGroceryItemNotFoundError()
	}
	return item, nil
}

// Create は項目を作成する。
func (s *Service) Create(ctx context.Context, name string) (*model.GroceryItem, error) {
	if name == "" {
		return nil, nameRequiredError()
	}
	item, err := s.repo.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("買い物リスト項目の作成に失敗しました: %w", err)
	}
	return item, nil
}

// Rename は項目名を変更する。
func (s *Service) Rename(ctx context.Context, id int64, name string) (*model.GroceryItem, error) {
	if name == "" {
		return nil, nameRequiredError()
	}
	item, err := s.repo.UpdateName(ctx, id, name)
	if err != nil {
		return nil, fmt.Errorf("買い物リスト項目の更新に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewGroceryItemNotFoundError()
	}
	return item, nil
}

// Delete は項目を削除し、削除した項目を返す。
func (s *Service) Delete(ctx context.Context, id int64) (*model.GroceryItem, error) {
	item, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("買い物リスト項目の削除に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewGroceryItemNotFoundError()
	}
	return item, nil
}

// ParseName はJSONボディのフィールドからnameを取り出す。
// nameは存在し、文字列でなければならない。未知のフィールドは無視する。
func ParseName(raw map[string]json.RawMessage) (string, error) {
	msg, ok := raw["name"]
	if !ok || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
		return "", nameRequiredError()
	}
	var name string
	if err := json.Unmarshal(msg, &name); err != nil {
		return "", nameRequiredError()
	}
	if name == "" {
		return "", nameRequiredError()
	}
	return name, nil
}

func nameRequiredError() *model.APIError {
	return model.NewValidationError("Name is required and must be a string")
}
