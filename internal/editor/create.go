package editor

import (
	"context"
	"errors"
	"strings"

	"github.com/haierkeys/fast-note-web/internal/backend"
	"github.com/haierkeys/fast-note-web/pkg/util"
)

// Default draft limits, in runes
// 草稿字段默认长度上限（按字符计）
const (
	DefaultTitleMax    = 80
	DefaultSubtitleMax = 120
)

// ErrEmptyDraft rejects a note with nothing in any field
// ErrEmptyDraft 所有字段均为空时拒绝创建
var ErrEmptyDraft = errors.New("Write something before creating the note.")

// Limits caps draft field lengths
// Limits 草稿字段长度上限
type Limits struct {
	TitleMax    int
	SubtitleMax int
}

// WithDefaults fills zero limits
// WithDefaults 为空的上限填充默认值
func (l Limits) WithDefaults() Limits {
	if l.TitleMax <= 0 {
		l.TitleMax = DefaultTitleMax
	}
	if l.SubtitleMax <= 0 {
		l.SubtitleMax = DefaultSubtitleMax
	}
	return l
}

// Draft is the create form
// Draft 新建表单
type Draft struct {
	Title    string
	Subtitle string
	Content  string
}

// Normalize cuts title and subtitle to the limits
// Normalize 按上限截断标题与副标题
func (d Draft) Normalize(l Limits) Draft {
	l = l.WithDefaults()
	d.Title = util.TruncateRunes(d.Title, l.TitleMax)
	d.Subtitle = util.TruncateRunes(d.Subtitle, l.SubtitleMax)
	return d
}

// HasSomething a title may be empty but not every field
// HasSomething 标题可以为空，但不能所有字段都为空
func (d Draft) HasSomething() bool {
	return strings.TrimSpace(d.Title) != "" ||
		strings.TrimSpace(d.Subtitle) != "" ||
		strings.TrimSpace(d.Content) != ""
}

// Unsaved reports whether leaving the form should ask for confirmation
// Unsaved 离开表单时是否需要确认
func (d Draft) Unsaved() bool {
	return d.HasSomething()
}

// Inserter is the slice of the backend the create action needs
// Inserter 新建操作依赖的后端能力
type Inserter interface {
	InsertNote(ctx context.Context, n backend.NoteInsert) (*backend.Note, error)
}

// CreateResult tells the caller where to go next
// CreateResult 告诉调用方接下来跳转到哪里
type CreateResult struct {
	Note     *backend.Note
	Redirect string
}

// Create validates the draft, then inserts it for the signed in user
// Create 校验草稿后为当前用户插入笔记
func Create(ctx context.Context, auth SessionSource, store Inserter, d Draft, l Limits) (CreateResult, error) {
	d = d.Normalize(l)
	if !d.HasSomething() {
		return CreateResult{}, ErrEmptyDraft
	}

	sess, err := auth.GetSession(ctx)
	if err != nil {
		return CreateResult{}, err
	}
	if sess == nil || sess.User == nil {
		return CreateResult{Redirect: LoginPath}, nil
	}

	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = Untitled
	}
	n, err := store.InsertNote(ctx, backend.NoteInsert{
		UserID:   sess.User.ID,
		Title:    title,
		Subtitle: strings.TrimSpace(d.Subtitle),
		Content:  strings.TrimSpace(d.Content),
	})
	if err != nil {
		return CreateResult{}, err
	}
	return CreateResult{Note: n, Redirect: DashboardPath}, nil
}
