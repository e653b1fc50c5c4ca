package model

import "time"

// Recipe はユーザーが所有するレシピを表す。
// Title、Ingredients、Instructionsは作成時に空であってはならない。
type Recipe struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Ingredients  string    `json:"ingredients"`
	Instructions string    `json:"instructions"`
	WebsiteURL   *string   `json:"website_url"`
	ImageURL     *string   `json:"image_url"`
	UserID       string    `json:"userId"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewRecipe はレシピ作成時の入力値を表す。
type NewRecipe struct {
	Title        string
	Ingredients  string
	Instructions string
	WebsiteURL   *string
	ImageURL     *string
}

// OptionalString はPATCH系の更新で「未指定」「null」「値あり」を区別する文字列。
// Set が false の場合はフィールドが指定されていないことを示す。
// Set が true で Value が nil の場合は null（値のクリア）を示す。
type OptionalString struct {
	Set   bool
	Value *string
}

// RecipePatch はレシピの部分更新内容を表す。
// Title、Ingredients、Instructionsはnilなら変更しない。
type RecipePatch struct {
	Title        *string
	Ingredients  *string
	Instructions *string
	WebsiteURL   OptionalString
	ImageURL     OptionalString
}

// IsEmpty は更新対象のフィールドが1つも指定されていないかを返す。
func (p RecipePatch) IsEmpty() bool {
	return p.Title == nil &&
		p.Ingredients == nil &&
		p.Instructions == nil &&
		!p.WebsiteURL.Set &&
		!p.ImageURL.Set
}
