package recipe

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/repository"
)

// memoryRecipeRepo はRecipeRepositoryのインメモリ実装。
type memoryRecipeRepo struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]*model.Recipe
	clock   time.Time
	failErr error

	// 事前確認と更新の間に割り込む処理（並行削除の再現用）
	beforeMutate func()
}

func newMemoryRecipeRepo() *memoryRecipeRepo {
	return &memoryRecipeRepo{
		rows:  map[int64]*model.Recipe{},
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *memoryRecipeRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memoryRecipeRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	out := make([]*model.Recipe, 0)
	for _, row := range r.rows {
		if row.UserID == userID {
			c := *row
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryRecipeRepo) FindByIDAndUserID(ctx context.Context, id int64, userID string) (*model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	row, ok := r.rows[id]
	if !ok || row.UserID != userID {
		return nil, nil
	}
	c := *row
	return &c, nil
}

func (r *memoryRecipeRepo) Create(ctx context.Context, userID string, in model.NewRecipe) (*model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	r.nextID++
	now := r.tick()
	row := &model.Recipe{
		ID: r.nextID, Title: in.Title, Ingredients: in.Ingredients, Instructions: in.Instructions,
		WebsiteURL: in.WebsiteURL, ImageURL: in.ImageURL, UserID: userID, CreatedAt: now, UpdatedAt: now,
	}
	r.rows[row.ID] = row
	c := *row
	return &c, nil
}

func (r *memoryRecipeRepo) Update(ctx context.Context, id int64, userID string, p model.RecipePatch) (*model.Recipe, error) {
	if r.beforeMutate != nil {
		r.beforeMutate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.UserID != userID {
		return nil, nil
	}
	if p.Title != nil {
		row.Title = *p.Title
	}
	if p.Ingredients != nil {
		row.Ingredients = *p.Ingredients
	}
	if p.Instructions != nil {
		row.Instructions = *p.Instructions
	}
	if p.WebsiteURL.Set {
		row.WebsiteURL = p.WebsiteURL.Value
	}
	if p.ImageURL.Set {
		row.ImageURL = p.ImageURL.Value
	}
	row.UpdatedAt = r.tick()
	c := *row
	return &c, nil
}

func (r *memoryRecipeRepo) Delete(ctx context.Context, id int64, userID string) (*model.Recipe, error) {
	if r.beforeMutate != nil {
		r.beforeMutate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.UserID != userID {
		return nil, nil
	}
	delete(r.rows, id)
	return row, nil
}

func (r *memoryRecipeRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, row := range r.rows {
		if row.UserID == userID {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

var _ repository.RecipeRepository = (*memoryRecipeRepo)(nil)
