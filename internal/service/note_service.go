package service

import (
	"context"
	"errors"

	"github.com/haierkeys/fast-note-web/internal/backend"
	"github.com/haierkeys/fast-note-web/internal/dto"
	"github.com/haierkeys/fast-note-web/internal/editor"
	"github.com/haierkeys/fast-note-web/pkg/code"
	"github.com/haierkeys/fast-note-web/pkg/convert"
	apperrors "github.com/haierkeys/fast-note-web/pkg/errors"
	"github.com/haierkeys/fast-note-web/pkg/logger"

	"go.uber.org/zap"
)

// NoteService 定义笔记业务服务接口
type NoteService interface {
	// Create 新建笔记
	Create(ctx context.Context, client backend.Client, params *dto.NoteCreateRequest) (*dto.RedirectDTO, error)

	// Draft 返回新建表单状态
	Draft(params *dto.NoteCreateRequest) *dto.NoteDraftDTO

	// Limits 标题与副标题长度上限
	Limits() editor.Limits
}

// noteService 实现 NoteService 接口
type noteService struct {
	logger *zap.Logger
	config *ServiceConfig
}

// NewNoteService 创建 NoteService 实例
func NewNoteService(logger *zap.Logger, config *ServiceConfig) NoteService {
	if config == nil {
		config = &ServiceConfig{}
	}
	return &noteService{
		logger: logger,
		config: config,
	}
}

func (s *noteService) Limits() editor.Limits {
	return editor.Limits{TitleMax: s.config.Notes.TitleMax, SubtitleMax: s.config.Notes.SubtitleMax}
}

// Draft 返回新建表单状态
func (s *noteService) Draft(params *dto.NoteCreateRequest) *dto.NoteDraftDTO {
	l := s.Limits().WithDefaults()
	d := editor.Draft{}
	if params != nil {
		d = editor.Draft{Title: params.Title, Subtitle: params.Subtitle, Content: params.Content}
	}
	d = d.Normalize(l)

	return &dto.NoteDraftDTO{
		Title:       d.Title,
		Subtitle:    d.Subtitle,
		Content:     d.Content,
		TitleMax:    l.TitleMax,
		SubtitleMax: l.SubtitleMax,
		Unsaved:     d.Unsaved(),
	}
}

// Create 新建笔记
func (s *noteService) Create(ctx context.Context, client backend.Client, params *dto.NoteCreateRequest) (*dto.RedirectDTO, error) {
	d := editor.Draft{Title: params.Title, Subtitle: params.Subtitle, Content: params.Content}

	res, err := editor.Create(ctx, client, client, d, s.Limits())
	if err != nil {
		if errors.Is(err, editor.ErrEmptyDraft) {
			return nil, code.ErrorNoteEmpty
		}
		s.logger.Warn("create note failed",
			zap.String(logger.FieldAction, "create"),
			zap.Error(err))
		return nil, apperrors.NewAppErrorWithMessage(code.ErrorNoteCreateFailed, err.Error(), err)
	}

	if res.Note != nil {
		s.logger.Info("note created",
			zap.String(logger.FieldNoteID, res.Note.ID),
			zap.String(logger.FieldUID, res.Note.UserID))
	}
	return &dto.RedirectDTO{Redirect: res.Redirect, Replace: res.Note == nil}, nil
}

// NoteToDTO 将后端笔记转换为 DTO
func NoteToDTO(n *backend.Note) *dto.NoteDTO {
	if n == nil {
		return nil
	}
	out := &dto.NoteDTO{}
	if err := convert.Copy(out, n); err != nil {
		return &dto.NoteDTO{ID: n.ID, Title: n.Title, Subtitle: n.Subtitle, Content: n.Content, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt}
	}
	return out
}
