// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import (
	"time"

	"github.com/haierkeys/fast-note-web/internal/editor"
	"github.com/haierkeys/fast-note-web/internal/notes"
	"github.com/haierkeys/fast-note-web/internal/recovery"
)

// NoteDTO Note data transfer object
// NoteDTO 笔记数据传输对象
type NoteDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteCreateRequest Create form
// NoteCreateRequest 新建笔记表单
type NoteCreateRequest struct {
	Title    string `json:"title" form:"title"`
	Subtitle string `json:"subtitle" form:"subtitle"`
	Content  string `json:"content" form:"content"`
}

// NoteDraftDTO Create form state
// NoteDraftDTO 新建表单状态
type NoteDraftDTO struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Content     string `json:"content"`
	TitleMax    int    `json:"titleMax"`
	SubtitleMax int    `json:"subtitleMax"`
	Unsaved     bool   `json:"unsaved"`
}

// NoteSearchRequest List search
// NoteSearchRequest 列表搜索参数
type NoteSearchRequest struct {
	Search string `json:"search" form:"search"`
}

// NotePageRequest List paging
// NotePageRequest 列表分页参数
type NotePageRequest struct {
	Page int `json:"page" form:"page" binding:"required"`
}

// NoteIDRequest Path id
// NoteIDRequest 路径中的笔记 ID
type NoteIDRequest struct {
	ID string `uri:"id" binding:"required"`
}

// NoteKeyDownRequest Key pressed on the read-only content
// NoteKeyDownRequest 只读正文上的按键
type NoteKeyDownRequest struct {
	Key  string `json:"key" form:"key" binding:"required"`
	Meta bool   `json:"meta" form:"meta"`
	Ctrl bool   `json:"ctrl" form:"ctrl"`
	Alt  bool   `json:"alt" form:"alt"`
}

// NoteInputRequest Field edit
// NoteInputRequest 字段编辑
type NoteInputRequest struct {
	Field string `json:"field" form:"field" binding:"required,oneof=title subtitle content"`
	Value string `json:"value" form:"value"`
}

// NoteListDTO Dashboard list
// NoteListDTO 列表页数据
type NoteListDTO struct {
	notes.View
}

// NoteEditorDTO Note page
// NoteEditorDTO 笔记页数据
type NoteEditorDTO struct {
	editor.View
	Note *NoteDTO `json:"note"`
}

// RecoveryDTO Reset page
// RecoveryDTO 重置密码页数据
type RecoveryDTO struct {
	recovery.View
	Validation *recovery.Validation `json:"validation,omitempty"`
}
