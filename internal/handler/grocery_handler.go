package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/recipebox/internal/grocery"
	"github.com/hitoshi/recipebox/internal/model"
)

// GroceryServiceInterface は買い物リストハンドラーが必要とするサービスインターフェース。
type GroceryServiceInterface interface {
	List(ctx context.Context) ([]*model.GroceryItem, error)
	Get(ctx context.Context, id int64) (*model.GroceryItem, error)
	Create(ctx context.Context, name string) (*model.GroceryItem, error)
	Rename(ctx context.Context, id int64, name string) (*model.GroceryItem, error)
	Delete(ctx context.Context, id int64) (*model.GroceryItem, error)
}

// GroceryHandler は買い物リストのHTTPハンドラー。認証を必要としない。
type GroceryHandler struct {
	service GroceryServiceInterface
}

// NewGroceryHandler はGroceryHandlerを生成する。
func NewGroceryHandler(service GroceryServiceInterface) *GroceryHandler {
	return &GroceryHandler{service: service}
}

// List は全項目を返す。
// GET /api/grocery
func (h *GroceryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Get は項目を1件返す。
// GET /api/grocery/{id}
func (h *GroceryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

// Create は項目を作成する。
// POST /api/grocery
func (h *GroceryHandler) Create(w http.ResponseWriter, r *http.Request) {
	name, err := decodeName(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	item, err := h.service.Create(r.Context(), name)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item": item})
}

// Update は項目名を更新する。
// PUT /api/grocery/{id}
func (h *GroceryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	name, err := decodeName(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	item, err := h.service.Rename(r.Context(), id, name)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

// Delete は項目を削除し、削除した項目を返す。
// DELETE /api/grocery/{id}
func (h *GroceryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	item, err := h.service.Delete(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "item": item})
}

func decodeName(r *http.Request) (string, error) {
	fields, err := decodeFields(r)
	if err != nil {
		return "", err
	}
	return grocery.ParseName(fields)
}
