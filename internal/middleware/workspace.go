package middleware

import (
	"net/http"

	"github.com/haierkeys/fast-note-web/internal/workspace"
	"github.com/haierkeys/fast-note-web/pkg/app"
	"github.com/haierkeys/fast-note-web/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WorkspaceKey gin.Context 中存储工作区的键
const WorkspaceKey = "workspace"

// CookieConfig 工作区 cookie 配置
type CookieConfig struct {
	Name   string
	Secure bool
}

// Workspace binds the browser's workspace to the request, creating one (and its cookie) when missing
// Workspace 将浏览器工作区绑定到请求，不存在时创建并写入 cookie
func Workspace(reg *workspace.Registry, cookie CookieConfig, lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(cookie.Name)

		ws, ok := reg.Get(id)
		if !ok {
			var err error
			ws, err = reg.Create()
			if err != nil {
				lg.Error("create workspace failed", zap.Error(err))
				app.NewResponse(c).ToResponse(code.ErrorWorkspaceMissing)
				c.Abort()
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookie.Name, ws.ID, 0, "/", "", cookie.Secure, true)
		}

		c.Set(WorkspaceKey, ws)
		c.Next()
	}
}

// GetWorkspace 从 gin.Context 获取工作区
func GetWorkspace(c *gin.Context) (*workspace.Workspace, bool) {
	v, ok := c.Get(WorkspaceKey)
	if !ok {
		return nil, false
	}
	ws, ok := v.(*workspace.Workspace)
	return ws, ok && ws != nil
}
