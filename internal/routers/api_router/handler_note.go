package api_router

import (
	"errors"

	"github.com/haierkeys/fast-note-web/internal/app"
	"github.com/haierkeys/fast-note-web/internal/dto"
	"github.com/haierkeys/fast-note-web/internal/editor"
	"github.com/haierkeys/fast-note-web/internal/service"
	pkgapp "github.com/haierkeys/fast-note-web/pkg/app"
	"github.com/haierkeys/fast-note-web/pkg/code"
	apperrors "github.com/haierkeys/fast-note-web/pkg/errors"

	"github.com/gin-gonic/gin"
)

// NoteHandler 笔记 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type NoteHandler struct {
	*Handler
}

// NewNoteHandler 创建 NoteHandler 实例
func NewNoteHandler(a *app.App) *NoteHandler {
	return &NoteHandler{Handler: NewHandler(a)}
}

// Draft returns the create form state
// Draft 返回新建表单状态
func (h *NoteHandler) Draft(c *gin.Context) {
	params := &dto.NoteCreateRequest{}
	_ = c.ShouldBindQuery(params)
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(h.App.NoteService.Draft(params)))
}

// Create inserts a note for the signed in user
// Create 为当前用户新建笔记
func (h *NoteHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteCreateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.invalidParams(c, "NoteHandler.Create", errs)
		return
	}

	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	result, err := h.App.NoteService.Create(ctx, ws.Client(), params)
	if err != nil {
		h.logError(ctx, "NoteHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

// Get mounts a fresh editor for the note and loads it
// Get 为笔记挂载新的编辑器并加载
func (h *NoteHandler) Get(c *gin.Context) {
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
	e := ws.OpenEditor(params.ID, c.Request.URL)
	e.Load(ctx)

	out := editorDTO(e)
	if out.Note == nil && out.Message != "" {
		h.logError(ctx, "NoteHandler.Get", errors.New(out.Message))
		apperrors.ErrorResponse(c, apperrors.NewAppErrorWithMessage(code.ErrorNoteLoadFailed, out.Message, nil).WithData(out))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// Edit switches to edit mode
// Edit 进入编辑模式
func (h *NoteHandler) Edit(c *gin.Context) {
	h.transition(c, "NoteHandler.Edit", code.Failed, func(e *editor.Editor) error {
		return e.Edit()
	})
}

// KeyDown a printable key pressed on the read-only content starts editing
// KeyDown 只读正文上按下可打印字符时进入编辑
func (h *NoteHandler) KeyDown(c *gin.Context) {
	params := &dto.NoteKeyDownRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.invalidParams(c, "NoteHandler.KeyDown", errs)
		return
	}
	h.transition(c, "NoteHandler.KeyDown", code.Failed, func(e *editor.Editor) error {
		e.KeyDown(params.Key, params.Meta, params.Ctrl, params.Alt)
		return nil
	})
}

// Focus the content editor received focus
// Focus 正文编辑区获得焦点
func (h *NoteHandler) Focus(c *gin.Context) {
	h.transition(c, "NoteHandler.Focus", code.Failed, func(e *editor.Editor) error {
		e.FocusEditor()
		return nil
	})
}

// DoubleClick 双击正文进入编辑
func (h *NoteHandler) DoubleClick(c *gin.Context) {
	h.transition(c, "NoteHandler.DoubleClick", code.Failed, func(e *editor.Editor) error {
		return e.DoubleClick()
	})
}

// Input 修改字段
func (h *NoteHandler) Input(c *gin.Context) {
	params := &dto.NoteInputRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.invalidParams(c, "NoteHandler.Input", errs)
		return
	}
	h.transition(c, "NoteHandler.Input", code.Failed, func(e *editor.Editor) error {
		return e.Input(editor.Field(params.Field), params.Value)
	})
}

// Cancel 放弃修改并回到查看模式
func (h *NoteHandler) Cancel(c *gin.Context) {
	h.transition(c, "NoteHandler.Cancel", code.Failed, func(e *editor.Editor) error {
		return e.Cancel()
	})
}

// Save 保存修改
func (h *NoteHandler) Save(c *gin.Context) {
	h.transition(c, "NoteHandler.Save", code.ErrorNoteSaveFailed, func(e *editor.Editor) error {
		return e.Save(c.Request.Context())
	})
}

// DeleteRequest 打开删除确认框
func (h *NoteHandler) DeleteRequest(c *gin.Context) {
	h.transition(c, "NoteHandler.DeleteRequest", code.Failed, func(e *editor.Editor) error {
		return e.RequestDelete()
	})
}

// DeleteDismiss 关闭删除确认框
func (h *NoteHandler) DeleteDismiss(c *gin.Context) {
	h.transition(c, "NoteHandler.DeleteDismiss", code.Failed, func(e *editor.Editor) error {
		e.DismissDelete()
		return nil
	})
}

// DeleteConfirm deletes the note; the view carries the dashboard redirect on success
// DeleteConfirm 删除笔记，成功后视图中携带跳转到列表页的地址
func (h *NoteHandler) DeleteConfirm(c *gin.Context) {
	h.transition(c, "NoteHandler.DeleteConfirm", code.ErrorNoteDeleteFailed, func(e *editor.Editor) error {
		return e.ConfirmDelete(c.Request.Context())
	})
}

// transition runs fn against the mounted editor of :id and answers with the resulting view.
// fallback is the code of provider errors.
// transition 在 :id 已挂载的编辑器上执行 fn，并返回执行后的视图；fallback 为服务端错误使用的错误码
func (h *NoteHandler) transition(c *gin.Context, method string, fallback *code.Code, fn func(e *editor.Editor) error) {
	params := &dto.NoteIDRequest{}
	if err := c.ShouldBindUri(params); err != nil {
		pkgapp.NewResponse(c).ToResponse(code.ErrorNoteMissingID)
		return
	}

	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	e, ok := ws.Editor(params.ID)
	if !ok {
		pkgapp.NewResponse(c).ToResponse(code.ErrorNoteNotMounted)
		return
	}

	if err := fn(e); err != nil {
		h.logError(c.Request.Context(), method, err)
		apperrors.ErrorResponse(c, editorError(err, fallback).WithData(editorDTO(e)))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(editorDTO(e)))
}

func editorDTO(e *editor.Editor) *dto.NoteEditorDTO {
	v := e.View()
	return &dto.NoteEditorDTO{View: v, Note: service.NoteToDTO(v.Note)}
}

// editorError maps editor errors to response codes; provider errors keep their message
// editorError 将编辑器错误映射为响应码，服务端错误保留原始消息
func editorError(err error, fallback *code.Code) *apperrors.AppError {
	switch {
	case errors.Is(err, editor.ErrNotLoaded):
		return apperrors.NewAppError(code.ErrorNoteNotMounted, err)
	case errors.Is(err, editor.ErrBusy):
		return apperrors.NewAppError(code.ErrorNoteBusy, err)
	case errors.Is(err, editor.ErrNotDirty):
		return apperrors.NewAppError(code.ErrorNoteNotDirty, err)
	case errors.Is(err, editor.ErrNotEditing):
		return apperrors.NewAppError(code.ErrorNoteNotEditing, err)
	case errors.Is(err, editor.ErrDeleteNotRequested):
		return apperrors.NewAppError(code.ErrorNoteDeleteNotAsk, err)
	case errors.Is(err, editor.ErrMissingID):
		return apperrors.NewAppError(code.ErrorNoteMissingID, err)
	default:
		return apperrors.NewAppErrorWithMessage(fallback, err.Error(), err)
	}
}
