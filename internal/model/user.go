package model

import "time"

// User はサービス利用ユーザーを表す。
// 外部プロバイダーでの初回ログイン時に作成される。
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	Image         *string   `json:"image"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Account は外部プロバイダーとの紐付け情報を表す。
// (ProviderID, AccountID) の組はユニーク。トークンはJSONに出力しない。
type Account struct {
	ID                    string     `json:"id"`
	UserID                string     `json:"userId"`
	ProviderID            string     `json:"providerId"`
	AccountID             string     `json:"accountId"`
	AccessToken           *string    `json:"-"`
	RefreshToken          *string    `json:"-"`
	IDToken               *string    `json:"-"`
	AccessTokenExpiresAt  *time.Time `json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`
	Scope                 *string    `json:"scope,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// Session はユーザーのログインセッションを表す。
// Tokenはsession_token Cookieの値で、JSONには出力しない。
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsExpired はセッションが指定時刻の時点で期限切れかを返す。
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Verification はメール確認などに使う検証チャレンジを表す。
// 現状どのエンドポイントからも発行されず、期限切れ分はクリーンアップジョブが削除する。
type Verification struct {
	ID         string
	Identifier string
	Value      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AuthContext はセッション解決の結果として得られる認証済みの主体を表す。
type AuthContext struct {
	User    *User
	Session *Session
}
