// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"

	"github.com/haierkeys/fast-note-web/internal/app"
	"github.com/haierkeys/fast-note-web/internal/middleware"
	"github.com/haierkeys/fast-note-web/internal/workspace"
	pkgapp "github.com/haierkeys/fast-note-web/pkg/app"
	"github.com/haierkeys/fast-note-web/pkg/code"
	"github.com/haierkeys/fast-note-web/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都应该嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// workspace returns the browser workspace bound by the middleware, answering the request itself when missing
// workspace 返回中间件绑定的浏览器工作区，缺失时直接输出错误响应
func (h *Handler) workspace(c *gin.Context) (*workspace.Workspace, bool) {
	ws, ok := middleware.GetWorkspace(c)
	if !ok {
		h.App.Logger().Error("Handler.workspace missing", zap.String(logger.FieldMethod, c.FullPath()))
		pkgapp.NewResponse(c).ToResponse(code.ErrorWorkspaceMissing)
		return nil, false
	}
	return ws, true
}

// logError records error log, including Trace ID
// logError 记录错误日志，包含 Trace ID
func (h *Handler) logError(ctx context.Context, method string, err error) {
	traceID := middleware.GetTraceID(ctx)
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String(logger.FieldTraceID, traceID),
	)
}

// invalidParams 输出参数校验失败响应
func (h *Handler) invalidParams(c *gin.Context, method string, errs pkgapp.ValidErrors) {
	h.App.Logger().Error(method+".BindAndValid errs", zap.Error(errs))
	pkgapp.NewResponse(c).ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
}
