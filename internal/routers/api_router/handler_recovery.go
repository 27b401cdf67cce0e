package api_router

import (
	"errors"
	"net/url"

	"github.com/haierkeys/fast-note-web/internal/app"
	"github.com/haierkeys/fast-note-web/internal/dto"
	"github.com/haierkeys/fast-note-web/internal/recovery"
	pkgapp "github.com/haierkeys/fast-note-web/pkg/app"
	"github.com/haierkeys/fast-note-web/pkg/code"
	apperrors "github.com/haierkeys/fast-note-web/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryHandler 重置密码页面处理器
type RecoveryHandler struct {
	*Handler
}

// NewRecoveryHandler 创建 RecoveryHandler 实例
func NewRecoveryHandler(a *app.App) *RecoveryHandler {
	return &RecoveryHandler{Handler: NewHandler(a)}
}

// Open checks the link the provider redirected to; only the query reaches the server
// Open 检查认证服务重定向过来的链接，服务端只能看到 query 部分
func (h *RecoveryHandler) Open(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	f := ws.StartRecovery()
	f.Check(c.Request.Context(), c.Request.URL)

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(&dto.RecoveryDTO{View: f.View()}))
}

// Check checks the full address posted by the page, fragment included
// Check 检查页面提交的完整地址（包含 fragment）
func (h *RecoveryHandler) Check(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.RecoveryCheckRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.invalidParams(c, "RecoveryHandler.Check", errs)
		return
	}

	u, err := url.Parse(params.URL)
	if err != nil {
		h.App.Logger().Error("RecoveryHandler.Check url.Parse err", zap.Error(err))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
		return
	}

	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	f := ws.StartRecovery()
	f.Check(c.Request.Context(), u)

	response.ToResponse(code.Success.WithData(&dto.RecoveryDTO{View: f.View()}))
}

// Update submits the new password
// Update 提交新密码
func (h *RecoveryHandler) Update(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.RecoveryUpdateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.invalidParams(c, "RecoveryHandler.Update", errs)
		return
	}

	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	f, ok := ws.Recovery()
	if !ok {
		response.ToResponse(code.ErrorRecoveryNotStarted)
		return
	}

	ctx := c.Request.Context()
	err := f.Submit(ctx, params.Password, params.ConfirmPassword)

	validation := f.Validate(params.Password, params.ConfirmPassword)
	out := &dto.RecoveryDTO{View: f.View(), Validation: &validation}
	if err != nil {
		h.logError(ctx, "RecoveryHandler.Update", err)
		apperrors.ErrorResponse(c, recoveryError(err).WithData(out))
		return
	}

	response.ToResponse(code.Success.WithData(out))
}

// recoveryError maps flow errors to response codes; provider errors keep their message
// recoveryError 将流程错误映射为响应码，服务端错误保留原始消息
func recoveryError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, recovery.ErrNotReady):
		return apperrors.NewAppError(code.ErrorRecoveryNotReady, err)
	case errors.Is(err, recovery.ErrTooShort):
		return apperrors.NewAppError(code.ErrorPasswordTooShort, err)
	case errors.Is(err, recovery.ErrMismatch):
		return apperrors.NewAppError(code.ErrorPasswordNotMatch, err)
	case errors.Is(err, recovery.ErrBusy):
		return apperrors.NewAppError(code.ErrorPasswordUpdating, err)
	default:
		return apperrors.NewAppErrorWithMessage(code.ErrorAuthProvider, err.Error(), err)
	}
}
