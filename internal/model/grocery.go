package model

import "time"

// GroceryItem は買い物リストの項目を表す。
// 所有者を持たず、全ユーザーで共有される。
type GroceryItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
