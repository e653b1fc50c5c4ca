// Package seed はデモ用ユーザーとサンプルレシピを投入する。
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/repository"
)

//go:embed sample_recipes.json
var sampleRecipesJSON []byte

type sampleRecipe struct {
	Title        string  `json:"title"`
	Ingredients  string  `json:"ingredients"`
	Instructions string  `json:"instructions"`
	WebsiteURL   *string `json:"website_url"`
	ImageURL     *string `json:"image_url"`
}

// SampleRecipes は埋め込みのサンプルレシピを返す。
func SampleRecipes() ([]model.NewRecipe, error) {
	var raw []sampleRecipe
	if err := json.Unmarshal(sampleRecipesJSON, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse sample recipes: %w", err)
	}
	out := make([]model.NewRecipe, len(raw))
	for i, r := range raw {
		out[i] = model.NewRecipe{
			Title:        r.Title,
			Ingredients:  r.Ingredients,
			Instructions: r.Instructions,
			WebsiteURL:   r.WebsiteURL,
			ImageURL:     r.ImageURL,
		}
	}
	return out, nil
}

// Result は投入結果。
type Result struct {
	UserID      string
	UserCreated bool
	Deleted     int64
	Inserted    int
}

// Seeder はデモユーザーのレシピを初期状態に戻す。
type Seeder struct {
	users   repository.UserRepository
	recipes repository.RecipeRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewSeeder はSeederを生成する。
func NewSeeder(users repository.UserRepository, recipes repository.RecipeRepository, logger *slog.Logger) *Seeder {
	return &Seeder{users: users, recipes: recipes, logger: logger, now: time.Now}
}

// Run はemailのデモユーザーを用意し、そのユーザーの既存レシピを削除してサンプルレシピを投入する。
// 他のユーザーのレシピには触れない。繰り返し実行しても同じ状態になる。
func (s *Seeder) Run(ctx context.Context, email string) (*Result, error) {
	samples, err := SampleRecipes()
	if err != nil {
		return nil, err
	}

	user, created, err := s.ensureUser(ctx, email)
	if err != nil {
		return nil, err
	}
	result := &Result{UserID: user.ID, UserCreated: created}

	result.Deleted, err = s.recipes.DeleteByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear recipes for seed user: %w", err)
	}
	s.logger.Info("cleared existing recipes",
		slog.String("user_id", user.ID),
		slog.Int64("deleted", result.Deleted),
	)

	for _, sample := range samples {
		if _, err := s.recipes.Create(ctx, user.ID, sample); err != nil {
			return nil, fmt.Errorf("failed to insert recipe %q: %w", sample.Title, err)
		}
		result.Inserted++
		s.logger.Info("added recipe", slog.String("title", sample.Title))
	}

	return result, nil
}

func (s *Seeder) ensureUser(ctx context.Context, email string) (*model.User, bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up seed user: %w", err)
	}
	if user != nil {
		return user, false, nil
	}

	now := s.now()
	user = &model.User{
		ID:            uuid.New().String(),
		Name:          "Demo User",
		Email:         email,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create seed user: %w", err)
	}
	s.logger.Info("created seed user", slog.String("user_id", user.ID), slog.String("email", email))
	return user, true, nil
}
