package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/haierkeys/fast-note-web/internal/guard"
	"github.com/haierkeys/fast-note-web/internal/session"
	"github.com/haierkeys/fast-note-web/pkg/app"
	"github.com/haierkeys/fast-note-web/pkg/code"

	"github.com/gin-gonic/gin"
)

// SessionStateKey gin.Context 中存储会话快照的键
const SessionStateKey = "session_state"

// RequireAuth guards a route group with the given variant.
// Wrapper waits up to wait for the session store to resolve and redirects if it is still loading;
// Nested answers a placeholder while loading.
// RequireAuth 使用指定方式保护路由组
// Wrapper 最多等待 wait 让会话加载完成，超时仍在加载则跳转登录；Nested 在加载中时返回占位响应
func RequireAuth(v guard.Variant, wait time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, ok := GetWorkspace(c)
		if !ok {
			app.NewResponse(c).ToResponse(code.ErrorWorkspaceMissing)
			c.Abort()
			return
		}

		st := ws.Session().State()
		if v == guard.Wrapper && st.Loading {
			ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
			st, _ = ws.Session().Wait(ctx)
			cancel()
		}

		d := guard.Decide(v, st, c.Request.URL.RequestURI())
		switch d.Outcome {
		case guard.Render:
			c.Set(SessionStateKey, st)
			c.Next()
		case guard.Placeholder:
			app.NewResponse(c).ToResponse(code.SuccessView.WithData(gin.H{"loading": true}))
			c.Abort()
		default:
			if app.WantsJSON(c) {
				app.NewResponse(c).ToResponse(code.ErrorNotAuthenticated.WithData(gin.H{
					"redirect": d.Location(),
					"replace":  d.Replace,
					"from":     d.From,
				}))
			} else {
				c.Redirect(http.StatusFound, d.Location())
			}
			c.Abort()
		}
	}
}

// GetSessionState 读取 RequireAuth 写入的会话快照
func GetSessionState(c *gin.Context) (session.State, bool) {
	v, ok := c.Get(SessionStateKey)
	if !ok {
		return session.State{}, false
	}
	st, ok := v.(session.State)
	return st, ok
}
