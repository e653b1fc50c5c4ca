package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/repository"
)

// memoryRecipeRepo はルーター結合テスト用のRecipeRepositoryのインメモリ実装。
type memoryRecipeRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]model.Recipe
	clock  time.Time
}

var _ repository.RecipeRepository = (*memoryRecipeRepo)(nil)

func newMemoryRecipeRepo() *memoryRecipeRepo {
	return &memoryRecipeRepo{
		rows:  map[int64]model.Recipe{},
		clock: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (r *memoryRecipeRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Millisecond)
	return r.clock
}

func (r *memoryRecipeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *memoryRecipeRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Recipe, 0)
	for _, row := range r.rows {
		if row.UserID == userID {
			c := row
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryRecipeRepo) FindByIDAndUserID(ctx context.Context, id int64, userID string) (*model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.UserID != userID {
		return nil, nil
	}
	return &row, nil
}

func (r *memoryRecipeRepo) Create(ctx context.Context, userID string, in model.NewRecipe) (*model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := r.tick()
	row := model.Recipe{
		ID: r.nextID, Title: in.Title, Ingredients: in.Ingredients, Instructions: in.Instructions,
		WebsiteURL: in.WebsiteURL, ImageURL: in.ImageURL, UserID: userID, CreatedAt: now, UpdatedAt: now,
	}
	r.rows[row.ID] = row
	return &row, nil
}

func (r *memoryRecipeRepo) Update(ctx context.Context, id int64, userID string, p model.RecipePatch) (*model.Recipe, error) {
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
	r.rows[id] = row
	return &row, nil
}

func (r *memoryRecipeRepo) Delete(ctx context.Context, id int64, userID string) (*model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.UserID != userID {
		return nil, nil
	}
	delete(r.rows, id)
	return &row, nil
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

// memoryGroceryRepo はGroceryRepositoryのインメモリ実装。
type memoryGroceryRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]model.GroceryItem
}

var _ repository.GroceryRepository = (*memoryGroceryRepo)(nil)

func newMemoryGroceryRepo() *memoryGroceryRepo {
	return &memoryGroceryRepo{rows: map[int64]model.GroceryItem{}}
}

func (r *memoryGroceryRepo) List(ctx context.Context) ([]*model.GroceryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.GroceryItem, 0, len(r.rows))
	for _, row := range r.rows {
		c := row
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryGroceryRepo) FindByID(ctx context.Context, id int64) (*model.GroceryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *memoryGroceryRepo) Create(ctx context.Context, name string) (*model.GroceryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	row := model.GroceryItem{ID: r.nextID, Name: name, CreatedAt: time.Now().UTC()}
	r.rows[row.ID] = row
	return &row, nil
}

func (r *memoryGroceryRepo) UpdateName(ctx context.Context, id int64, name string) (*model.GroceryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	row.Name = name
	r.rows[id] = row
	return &row, nil
}

func (r *memoryGroceryRepo) Delete(ctx context.Context, id int64) (*model.GroceryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	delete(r.rows, id)
	return &row, nil
}
