// Package editor drives the single note view/edit lifecycle and the create action
// Package editor 管理单篇笔记的查看/编辑生命周期以及新建操作
package editor

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/haierkeys/fast-note-web/internal/backend"
	"github.com/haierkeys/fast-note-web/pkg/logger"

	"go.uber.org/zap"
)

// Mode of the editor, mirrored in the mode query parameter
// Mode 编辑器模式，与 URL 中的 mode 参数同步
type Mode string

const (
	ModeView Mode = "view"
	ModeEdit Mode = "edit"
)

// ModeFromQuery mode=view selects view; anything else opens in edit
// ModeFromQuery mode=view 为查看模式，其余情况进入编辑模式
func ModeFromQuery(q url.Values) Mode {
	if q.Get("mode") == string(ModeView) {
		return ModeView
	}
	return ModeEdit
}

// Field is an editable column
// Field 可编辑的字段
type Field string

const (
	FieldTitle    Field = "title"
	FieldSubtitle Field = "subtitle"
	FieldContent  Field = "content"
)

const (
	// SavedMessage is shown after a successful save
	SavedMessage = "Saved."
	// DefaultMessageTTL how long SavedMessage stays
	DefaultMessageTTL = 900 * time.Millisecond

	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	Untitled      = "Untitled"
)

var (
	ErrNotLoaded  = errors.New("note is not loaded")
	ErrBusy       = errors.New("note is being saved or deleted")
	ErrNotDirty   = errors.New("nothing changed")
	ErrNotEditing = errors.New("note is not in edit mode")
	ErrMissingID  = errors.New("Missing note id.")

	ErrDeleteNotRequested = errors.New("delete was not requested")
)

// SessionSource reports the current session
// SessionSource 提供当前会话
type SessionSource interface {
	GetSession(ctx context.Context) (*backend.Session, error)
}

// NoteStore is the slice of the backend the editor needs
// NoteStore 编辑器依赖的后端能力
type NoteStore interface {
	GetNote(ctx context.Context, id string) (*backend.Note, error)
	UpdateNote(ctx context.Context, id string, p backend.NotePatch) (*backend.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

type Options struct {
	MessageTTL time.Duration
	Logger     *zap.Logger
}

// Editor is the state machine of one note page.
// Transition methods are the only mutators of mode and of the location's mode parameter.
// Editor 单篇笔记页面的状态机，模式及 URL 中的 mode 参数只通过转换方法修改
type Editor struct {
	id     string
	notes  NoteStore
	auth   SessionSource
	ttl    time.Duration
	logger *zap.Logger

	mu       sync.Mutex
	location url.URL
	mode     Mode
	note     *backend.Note
	title    string
	subtitle string
	content  string
	// pending is a character typed in view mode, written into content on focus
	pending     string
	loading     bool
	saving      bool
	deleting    bool
	message     string
	msgGen      uint64
	msgTimer    *time.Timer
	confirmOpen bool
	redirect    string
	loadGen     uint64
	closed      bool
}

// New creates an editor for id at location; the initial mode comes from location's query
// New 为位于 location 的笔记 id 创建编辑器，初始模式取自 location 的 query
func New(id string, location *url.URL, notes NoteStore, auth SessionSource, opts Options) *Editor {
	if opts.MessageTTL <= 0 {
		opts.MessageTTL = DefaultMessageTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	e := &Editor{
		id:      id,
		notes:   notes,
		auth:    auth,
		ttl:     opts.MessageTTL,
		logger:  opts.Logger,
		loading: true,
	}
	if location != nil {
		e.location = url.URL{Path: location.Path, RawQuery: location.RawQuery}
	}
	e.mode = ModeFromQuery(e.location.Query())
	return e
}

// Load fetches the note. Without a session the editor redirects to the login page.
// Load 获取笔记，无会话时跳转登录页
func (e *Editor) Load(ctx context.Context) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.loadGen++
	gen := e.loadGen
	e.loading = true
	e.setMessageLocked("", false)
	e.mu.Unlock()

	sess, err := e.auth.GetSession(ctx)
	if err != nil {
		e.logger.Debug("session lookup failed", zap.Error(err))
		sess = nil
	}

	if sess == nil {
		e.mu.Lock()
		if e.current(gen) {
			e.redirect = LoginPath
			e.loading = false
		}
		e.mu.Unlock()
		return
	}

	if e.id == "" {
		e.mu.Lock()
		if e.current(gen) {
			e.setMessageLocked(ErrMissingID.Error(), false)
			e.loading = false
		}
		e.mu.Unlock()
		return
	}

	n, err := e.notes.GetNote(ctx, e.id)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(gen) {
		return
	}
	e.loading = false
	if err != nil {
		e.note = nil
		e.setMessageLocked(err.Error(), false)
		e.logger.Info("note load failed", zap.String(logger.FieldNoteID, e.id), zap.Error(err))
		return
	}
	e.applyLocked(n)
}

func (e *Editor) current(gen uint64) bool {
	return !e.closed && gen == e.loadGen
}

func (e *Editor) applyLocked(n *backend.Note) {
	e.note = n
	e.title, e.subtitle, e.content = n.Title, n.Subtitle, n.Content
}

// Edit switches to edit mode, drops the mode parameter and focuses the editor
// Edit 切换到编辑模式，移除 mode 参数并聚焦编辑区
func (e *Editor) Edit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editLocked()
}

func (e *Editor) editLocked() error {
	if e.note == nil {
		return ErrNotLoaded
	}
	if e.saving || e.deleting {
		return ErrBusy
	}
	e.mode = ModeEdit
	e.setModeParamLocked("")
	e.focusLocked()
	return nil
}

// KeyDown handles a key press on the read-only content. A single printable
// character without modifiers is buffered and editing starts.
// KeyDown 处理只读正文上的按键；无修饰键的单个可打印字符会被缓存并进入编辑
func (e *Editor) KeyDown(key string, meta, ctrl, alt bool) bool {
	if utf8.RuneCountInString(key) != 1 || meta || ctrl || alt {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != ModeView || e.note == nil {
		return false
	}
	prev := e.pending
	e.pending = key
	if err := e.editLocked(); err != nil {
		e.pending = prev
		return false
	}
	return true
}

// DoubleClick starts editing without a buffered character
// DoubleClick 进入编辑，不缓存字符
func (e *Editor) DoubleClick() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != ModeView {
		return nil
	}
	e.pending = ""
	return e.editLocked()
}

// FocusEditor writes a buffered character into content
// FocusEditor 将缓存的字符写入正文
func (e *Editor) FocusEditor() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode == ModeEdit {
		e.focusLocked()
	}
}

func (e *Editor) focusLocked() {
	if e.pending != "" {
		e.content += e.pending
		e.pending = ""
	}
}

// Input sets a field; only allowed in edit mode
// Input 修改字段，仅编辑模式可用
func (e *Editor) Input(field Field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.note == nil {
		return ErrNotLoaded
	}
	if e.mode != ModeEdit {
		return ErrNotEditing
	}
	switch field {
	case FieldTitle:
		e.title = value
	case FieldSubtitle:
		e.subtitle = value
	case FieldContent:
		e.content = value
	default:
		return errors.New("unknown field " + string(field))
	}
	return nil
}

// Cancel restores the last saved values and returns to view mode
// Cancel 恢复上次保存的内容并回到查看模式
func (e *Editor) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.note == nil {
		return ErrNotLoaded
	}
	e.applyLocked(e.note)
	e.pending = ""
	e.setMessageLocked("", false)
	e.mode = ModeView
	e.setModeParamLocked(ModeView)
	return nil
}

// Dirty reports whether any field differs from the loaded note
// Dirty 判断字段是否与已加载的笔记不同
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirtyLocked()
}

func (e *Editor) dirtyLocked() bool {
	if e.note == nil {
		return false
	}
	return e.title != e.note.Title || e.subtitle != e.note.Subtitle || e.content != e.note.Content
}

// Save persists the fields; the returned row becomes the new state
// Save 保存字段，服务端返回的行成为新的状态
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.note == nil {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	if e.saving || e.deleting {
		e.mu.Unlock()
		return ErrBusy
	}
	if !e.dirtyLocked() {
		e.mu.Unlock()
		return ErrNotDirty
	}
	e.saving = true
	e.setMessageLocked("", false)
	title := strings.TrimSpace(e.title)
	if title == "" {
		title = Untitled
	}
	patch := backend.NotePatch{
		Title:    title,
		Subtitle: strings.TrimSpace(e.subtitle),
		Content:  e.content,
	}
	e.mu.Unlock()

	updated, err := e.notes.UpdateNote(ctx, e.id, patch)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if e.closed {
		return err
	}
	if err != nil {
		e.setMessageLocked(err.Error(), false)
		e.logger.Info("note save failed", zap.String(logger.FieldNoteID, e.id), zap.Error(err))
		return err
	}
	e.applyLocked(updated)
	e.mode = ModeView
	e.setModeParamLocked(ModeView)
	e.setMessageLocked(SavedMessage, true)
	return nil
}

// RequestDelete opens the confirmation dialog
// RequestDelete 打开删除确认框
func (e *Editor) RequestDelete() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.note == nil {
		return ErrNotLoaded
	}
	if e.saving || e.deleting {
		return ErrBusy
	}
	e.confirmOpen = true
	return nil
}

// DismissDelete closes the confirmation dialog
// DismissDelete 关闭删除确认框
func (e *Editor) DismissDelete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.deleting {
		e.confirmOpen = false
	}
}

// ConfirmDelete deletes the note and navigates to the dashboard on success.
// The dialog must be open and no save may be in flight.
// ConfirmDelete 删除笔记，成功后跳转到列表页；要求确认框已打开且没有进行中的保存
func (e *Editor) ConfirmDelete(ctx context.Context) error {
	if e.id == "" {
		return ErrMissingID
	}
	e.mu.Lock()
	if e.note == nil {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	if e.saving || e.deleting {
		e.mu.Unlock()
		return ErrBusy
	}
	if !e.confirmOpen {
		e.mu.Unlock()
		return ErrDeleteNotRequested
	}
	e.deleting = true
	e.setMessageLocked("", false)
	e.mu.Unlock()

	err := e.notes.DeleteNote(ctx, e.id)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.deleting = false
	e.confirmOpen = false
	if e.closed {
		return err
	}
	if err != nil {
		e.setMessageLocked(err.Error(), false)
		return err
	}
	e.redirect = DashboardPath
	return nil
}

// setMessageLocked replaces the message; with autoClear it is removed after the ttl
// unless another message replaced it first.
// setMessageLocked 替换提示消息；autoClear 时在 ttl 后清除，期间被替换则不清除
func (e *Editor) setMessageLocked(msg string, autoClear bool) {
	e.msgGen++
	e.message = msg
	if e.msgTimer != nil {
		e.msgTimer.Stop()
		e.msgTimer = nil
	}
	if !autoClear {
		return
	}
	gen := e.msgGen
	e.msgTimer = time.AfterFunc(e.ttl, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.closed && e.msgGen == gen {
			e.message = ""
		}
	})
}

func (e *Editor) setModeParamLocked(m Mode) {
	q := e.location.Query()
	if m == "" {
		q.Del("mode")
	} else {
		q.Set("mode", string(m))
	}
	e.location.RawQuery = q.Encode()
}

// Location is the current URL, kept in sync with the mode
// Location 当前 URL，与模式保持同步
func (e *Editor) Location() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.location.String()
}

// Mode returns the current mode
func (e *Editor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Close stops the message timer and drops late results
// Close 停止消息定时器并丢弃之后到达的结果
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if e.msgTimer != nil {
		e.msgTimer.Stop()
		e.msgTimer = nil
	}
}

// HeaderTitle is the note title, else the edited title, else Untitled
// HeaderTitle 优先笔记标题，其次正在编辑的标题，否则为 Untitled
func HeaderTitle(n *backend.Note, title string) string {
	if n != nil && strings.TrimSpace(n.Title) != "" {
		return n.Title
	}
	if strings.TrimSpace(title) != "" {
		return title
	}
	return Untitled
}
