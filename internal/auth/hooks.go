package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/recipebox/internal/model"
)

// DecisionKind はフックの判定種別。
type DecisionKind int

const (
	// DecisionContinue は後続のフックまたは既定の処理へ進む。
	DecisionContinue DecisionKind = iota
	// DecisionRedirect は指定URLへリダイレクトして処理を終える。
	DecisionRedirect
	// DecisionReject は指定ステータスのエラーで処理を終える。
	DecisionReject
)

// Decision はフックが返す判定。
type Decision struct {
	Kind    DecisionKind
	URL     string
	Status  int
	Message string
}

// Continue は処理を続行する判定を返す。
func Continue() Decision {
	return Decision{Kind: DecisionContinue}
}

// RedirectTo はリダイレクトする判定を返す。
func RedirectTo(url string) Decision {
	return Decision{Kind: DecisionRedirect, URL: url}
}

// Reject はエラーで終了する判定を返す。
func Reject(status int, message string) Decision {
	return Decision{Kind: DecisionReject, Status: status, Message: message}
}

// HookContext はフックに渡される認証フローの状態。
// before フックの時点ではSession、User、Errはまだ設定されていない。
type HookContext struct {
	Request    *http.Request
	ProviderID string
	Session    *model.Session
	User       *model.User
	Err        error
}

// Hook は認証フローの前後で実行される処理。
type Hook func(hc *HookContext) Decision

// HookChain は順に実行されるフックの列。
type HookChain []Hook

// Run はフックを順に実行し、最初にContinue以外を返したフックの判定を返す。
// すべてContinueの場合はContinueを返す。
func (c HookChain) Run(hc *HookContext) Decision {
	for _, h := range c {
		if d := h(hc); d.Kind != DecisionContinue {
			return d
		}
	}
	return Continue()
}

// LogRequestHook は認証リクエストをログに記録する。
func LogRequestHook() Hook {
	return func(hc *HookContext) Decision {
		slog.Info("auth request",
			slog.String("method", hc.Request.Method),
			slog.String("path", hc.Request.URL.Path),
			slog.String("provider", hc.ProviderID),
		)
		return Continue()
	}
}

// LogResultHook は認証結果をログに記録する。
func LogResultHook() Hook {
	return func(hc *HookContext) Decision {
		if hc.Session == nil {
			attrs := []any{slog.String("provider", hc.ProviderID)}
			if hc.Err != nil {
				attrs = append(attrs, slog.String("error", hc.Err.Error()))
			}
			slog.Warn("auth failed", attrs...)
			return Continue()
		}
		slog.Info("auth succeeded",
			slog.String("provider", hc.ProviderID),
			slog.String("user_id", hc.Session.UserID),
		)
		return Continue()
	}
}

// RedirectAfterAuthHook はセッションが作成されていればフロントエンドへ、
// されていなければフロントエンドのエラーページへリダイレクトする。
func RedirectAfterAuthHook(frontendURL string) Hook {
	base := strings.TrimRight(frontendURL, "/")
	return func(hc *HookContext) Decision {
		if hc.Session != nil {
			return RedirectTo(frontendURL)
		}
		return RedirectTo(base + "/auth-error")
	}
}
