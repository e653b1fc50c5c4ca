// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// レスポンスボディの "error" にはMessageがそのまま入る。
type APIError struct {
	Code    string // エラーコード
	Message string // ユーザー向けエラーメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeUnauthenticated = "UNAUTHENTICATED"
	ErrCodeRecipeNotFound  = "RECIPE_NOT_FOUND"
	ErrCodeGroceryNotFound = "GROCERY_ITEM_NOT_FOUND"
	ErrCodeUserNotFound    = "USER_NOT_FOUND"
	ErrCodeProviderUnknown = "PROVIDER_NOT_FOUND"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeCSRF            = "CSRF_TOKEN_INVALID"
	ErrCodeAuthRejected    = "AUTH_REJECTED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// NewInvalidIDError はパスパラメータのIDが不正な場合のエラーを生成する。
func NewInvalidIDError() *APIError {
	return NewValidationError("Invalid ID format")
}

// NewUnauthenticatedError は未認証エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthenticated,
		Message: "Unauthorized",
	}
}

// NewRecipeNotFoundError はレシピ未検出エラーを生成する。
// 存在しない場合と他ユーザー所有の場合を区別しない。
func NewRecipeNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeRecipeNotFound,
		Message: "Recipe not found",
	}
}

// NewGroceryItemNotFoundError は買い物リスト項目の未検出エラーを生成する。
func NewGroceryItemNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeGroceryNotFound,
		Message: "Grocery item not found",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeUserNotFound,
		Message: "User not found",
	}
}

// NewProviderNotFoundError は未設定の外部認証プロバイダーが指定された場合のエラーを生成する。
func NewProviderNotFoundError(provider string) *APIError {
	return &APIError{
		Code:    ErrCodeProviderUnknown,
		Message: fmt.Sprintf("Unknown auth provider: %s", provider),
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:    ErrCodeRateLimited,
		Message: "Too many requests. Please try again later.",
	}
}

// NewCSRFError はCSRFトークンの検証失敗エラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:    ErrCodeCSRF,
		Message: "CSRF token validation failed",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError(message string) *APIError {
	return &APIError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}
