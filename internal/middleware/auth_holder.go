package middleware

import "context"

var authHolderKey = contextKey("auth_holder")

// authHolder はログ出力のために、内側のミドルウェアで解決されたユーザーIDを外側へ伝える。
type authHolder struct {
	userID string
}

func withAuthHolder(ctx context.Context, h *authHolder) context.Context {
	return context.WithValue(ctx, authHolderKey, h)
}

// recordAuthForLogging は外側のロギングミドルウェアにユーザーIDを伝える。
func recordAuthForLogging(ctx context.Context, userID string) {
	if h, ok := ctx.Value(authHolderKey).(*authHolder); ok {
		h.userID = userID
	}
}
