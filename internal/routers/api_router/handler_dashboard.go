package api_router

import (
	"context"

	"github.com/haierkeys/fast-note-web/internal/app"
	"github.com/haierkeys/fast-note-web/internal/dto"
	"github.com/haierkeys/fast-note-web/internal/notes"
	pkgapp "github.com/haierkeys/fast-note-web/pkg/app"
	"github.com/haierkeys/fast-note-web/pkg/code"
	apperrors "github.com/haierkeys/fast-note-web/pkg/errors"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 笔记列表页处理器
type DashboardHandler struct {
	*Handler
}

// NewDashboardHandler 创建 DashboardHandler 实例
func NewDashboardHandler(a *app.App) *DashboardHandler {
	return &DashboardHandler{Handler: NewHandler(a)}
}

// List fetches the current page, or the page given by ?page=
// List 获取当前页，提供 ?page= 时先翻到该页
func (h *DashboardHandler) List(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	list := ws.Notes()
	if page := pkgapp.GetPage(c); page > 0 {
		list.SetPage(page)
	}
	h.fetch(c, "DashboardHandler.List", list)
}

// Search sets the search text, back to page 1 when it changed
// Search 设置搜索词，内容变化时回到第 1 页
func (h *DashboardHandler) Search(c *gin.Context) {
	params := &dto.NoteSearchRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.invalidParams(c, "DashboardHandler.Search", errs)
		return
	}

	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	list := ws.Notes()
	list.SetSearch(params.Search)
	h.fetch(c, "DashboardHandler.Search", list)
}

// Page moves to another page
// Page 翻页
func (h *DashboardHandler) Page(c *gin.Context) {
	params := &dto.NotePageRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.invalidParams(c, "DashboardHandler.Page", errs)
		return
	}

	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	list := ws.Notes()
	list.SetPage(params.Page)
	h.fetch(c, "DashboardHandler.Page", list)
}

// Delete removes a card optimistically; on failure the list is restored
// Delete 乐观删除卡片，失败时恢复列表
func (h *DashboardHandler) Delete(c *gin.Context) {
	params := &dto.NoteIDRequest{}
	if err := c.ShouldBindUri(params); err != nil {
		pkgapp.NewResponse(c).ToResponse(code.ErrorNoteMissingID)
		return
	}

	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	list := ws.Notes()
	if err := list.Delete(ctx, params.ID); err != nil {
		h.logError(ctx, "DashboardHandler.Delete", err)
		view := list.View()
		apperrors.ErrorResponse(c, apperrors.NewAppErrorWithMessage(code.ErrorNoteDeleteFailed, view.Error, err).
			WithData(&dto.NoteListDTO{View: view}))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(&dto.NoteListDTO{View: list.View()}))
}

func (h *DashboardHandler) fetch(c *gin.Context, method string, list *notes.Controller) {
	ctx := c.Request.Context()
	applied, err := list.Fetch(ctx)
	view := list.View()

	if applied && err != nil {
		h.logError(ctx, method, err)
		if ctx.Err() != nil {
			apperrors.ErrorResponse(c, context.Cause(ctx))
			return
		}
		apperrors.ErrorResponse(c, apperrors.NewAppErrorWithMessage(code.ErrorNoteLoadFailed, view.Error, err).
			WithData(&dto.NoteListDTO{View: view}))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(&dto.NoteListDTO{View: view}))
}
