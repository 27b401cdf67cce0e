// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"time"

	"github.com/haierkeys/fast-note-web/internal/app"
	pkgapp "github.com/haierkeys/fast-note-web/pkg/app"
	"github.com/haierkeys/fast-note-web/pkg/code"

	"github.com/gin-gonic/gin"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status     string  `json:"status"`     // "healthy" 或 "shutting_down"
	Version    string  `json:"version"`    // 服务版本号
	Uptime     float64 `json:"uptime"`     // 运行时间（秒）
	Workspaces int     `json:"workspaces"` // 存活的浏览器工作区数量
}

// Check 健康检查接口，关闭过程中返回失败
func (h *HealthHandler) Check(c *gin.Context) {
	response := HealthResponse{
		Status:     "healthy",
		Version:    h.App.Version().Version,
		Uptime:     time.Since(h.App.StartTime).Seconds(),
		Workspaces: h.App.Workspaces.Len(),
	}

	if h.App.IsShuttingDown() {
		response.Status = "shutting_down"
		pkgapp.NewResponse(c).ToResponse(code.Failed.WithData(response))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(response))
}
