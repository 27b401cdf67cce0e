package api_router

import (
	"context"

	"github.com/haierkeys/fast-note-web/internal/app"
	"github.com/haierkeys/fast-note-web/internal/dto"
	"github.com/haierkeys/fast-note-web/internal/middleware"
	"github.com/haierkeys/fast-note-web/internal/service"
	pkgapp "github.com/haierkeys/fast-note-web/pkg/app"
	"github.com/haierkeys/fast-note-web/pkg/code"
	apperrors "github.com/haierkeys/fast-note-web/pkg/errors"

	"github.com/gin-gonic/gin"
)

// AccountHandler account API router handler
// AccountHandler 账户 API 路由处理器
// Uses App Container to inject dependencies
// 使用 App Container 注入依赖
type AccountHandler struct {
	*Handler
}

// NewAccountHandler creates AccountHandler instance
// NewAccountHandler 创建 AccountHandler 实例
func NewAccountHandler(a *app.App) *AccountHandler {
	return &AccountHandler{
		Handler: NewHandler(a),
	}
}

// Home landing page state
// Home 首页状态，等待会话加载完成后返回
func (h *AccountHandler) Home(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.App.Config().GetSessionWait())
	st, _ := ws.Session().Wait(ctx)
	cancel()

	home := &dto.HomeDTO{Authenticated: st.Authenticated}
	if st.User != nil {
		home.Email = st.User.Email
	}
	response.ToResponse(code.Success.WithData(home))
}

// Session current session snapshot, loading included
// Session 当前会话快照（包含加载中状态）
func (h *AccountHandler) Session(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	st := ws.Session().State()
	response.ToResponse(code.Success.WithData(&dto.SessionDTO{
		Loading:       st.Loading,
		Authenticated: st.Authenticated,
		User:          service.UserToDTO(st.User),
	}))
}

// Register handles user registration
// Register 用户注册
func (h *AccountHandler) Register(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.UserRegisterRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.invalidParams(c, "AccountHandler.Register", errs)
		return
	}

	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	result, err := h.App.AccountService.Register(ctx, ws.Client(), params)
	if err != nil {
		h.logError(ctx, "AccountHandler.Register", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

// Login handles user login
// Login 用户登录
func (h *AccountHandler) Login(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.UserLoginRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.invalidParams(c, "AccountHandler.Login", errs)
		return
	}

	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	result, err := h.App.AccountService.Login(ctx, ws.Client(), params)
	if err != nil {
		h.logError(ctx, "AccountHandler.Login", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

// Logout signs out and tears down the page controllers
// Logout 退出登录并销毁页面控制器
func (h *AccountHandler) Logout(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	result, err := h.App.AccountService.Logout(ctx, ws.Client())
	if err != nil {
		h.logError(ctx, "AccountHandler.Logout", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	ws.ResetViews()

	response.ToResponse(code.Success.WithData(result))
}

// ForgotPassword sends the reset email
// ForgotPassword 发送重置密码邮件
func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.UserForgotPasswordRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.invalidParams(c, "AccountHandler.ForgotPassword", errs)
		return
	}

	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	result, err := h.App.AccountService.ForgotPassword(ctx, ws.Client(), params, middleware.GetAccessHost(c))
	if err != nil {
		h.logError(ctx, "AccountHandler.ForgotPassword", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}
