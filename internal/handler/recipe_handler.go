package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/recipebox/internal/metrics"
	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/recipe"
)

// RecipeServiceInterface はレシピハンドラーが必要とするサービスインターフェース。
type RecipeServiceInterface interface {
	List(ctx context.Context, userID string) ([]*model.Recipe, error)
	Get(ctx context.Context, userID string, id int64) (*model.Recipe, error)
	Create(ctx context.Context, userID string, input model.NewRecipe) (*model.Recipe, error)
	Update(ctx context.Context, userID string, id int64, patch model.RecipePatch) (*model.Recipe, error)
	Delete(ctx context.Context, userID string, id int64) (*model.Recipe, error)
}

// RecipeHandler はレシピ管理のHTTPハンドラー。
// すべての操作は認証済みユーザーにスコープされる。
type RecipeHandler struct {
	service   RecipeServiceInterface
	collector metrics.MetricsCollector
}

// NewRecipeHandler はRecipeHandlerを生成する。
func NewRecipeHandler(service RecipeServiceInterface, collector metrics.MetricsCollector) *RecipeHandler {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &RecipeHandler{service: service, collector: collector}
}

// List はユーザーのレシピ一覧を返す。
// GET /api/recipes
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	recipes, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"recipes": recipes})
}

// Get はユーザーが所有するレシピを1件返す。
// GET /api/recipes/{id}
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	rec, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"recipe": rec})
}

// Create はレシピを作成する。
// POST /api/recipes
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fields, err := decodeFields(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	input, err := recipe.ParseCreate(fields)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	rec, err := h.service.Create(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.collector.RecordRecipeMutation("create")
	writeJSON(w, http.StatusCreated, map[string]any{"recipe": rec})
}

// Update はレシピを部分更新する。
// PUT /api/recipes/{id}
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	fields, err := decodeFields(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	patch, err := recipe.ParsePatch(fields)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	rec, err := h.service.Update(r.Context(), userID, id, patch)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.collector.RecordRecipeMutation("update")
	writeJSON(w, http.StatusOK, map[string]any{"recipe": rec})
}

// Delete はレシピを削除し、削除したレシピを返す。
// DELETE /api/recipes/{id}
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	rec, err := h.service.Delete(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.collector.RecordRecipeMutation("delete")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "recipe": rec})
}
