// Package workspace keeps the per-browser state: backend client, session store and view controllers
// Package workspace 保存每个浏览器的状态：后端客户端、会话存储以及各页面控制器
package workspace

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/haierkeys/fast-note-web/internal/backend"
	"github.com/haierkeys/fast-note-web/internal/editor"
	"github.com/haierkeys/fast-note-web/internal/notes"
	"github.com/haierkeys/fast-note-web/internal/recovery"
	"github.com/haierkeys/fast-note-web/internal/session"
	"github.com/haierkeys/fast-note-web/pkg/logger"

	"go.uber.org/zap"
)

// Options configure every workspace created by a Registry
// Options 注册表创建的每个工作区的配置
type Options struct {
	Factory  backend.Factory
	Logger   *zap.Logger
	Notes    notes.Options
	Editor   editor.Options
	Recovery recovery.Options
	Now      func() time.Time

	// MaxWorkspaces caps the registry; the least recently seen workspace is evicted when full. 0 means no cap.
	// MaxWorkspaces 工作区数量上限，满时淘汰最久未访问的工作区；0 表示不限制
	MaxWorkspaces int
}

// Workspace is one browser's server side state
// Workspace 单个浏览器在服务端的状态
type Workspace struct {
	ID string

	client backend.Client
	store  *session.Store
	opts   Options
	logger *zap.Logger

	mu       sync.Mutex
	list     *notes.Controller
	editors  map[string]*editor.Editor
	flow     *recovery.Flow
	lastSeen time.Time
	closed   bool
}

func newWorkspace(id string, opts Options) *Workspace {
	lg := opts.Logger.With(zap.String(logger.FieldWorkspace, id))
	client := opts.Factory()

	w := &Workspace{
		ID:       id,
		client:   client,
		store:    session.NewStore(client, lg),
		opts:     opts,
		logger:   lg,
		editors:  make(map[string]*editor.Editor),
		lastSeen: opts.Now(),
	}
	w.opts.Notes.Logger = lg
	w.opts.Editor.Logger = lg
	w.opts.Recovery.Logger = lg
	return w
}

// Client returns the backend client bound to this browser
// Client 返回与该浏览器绑定的后端客户端
func (w *Workspace) Client() backend.Client {
	return w.client
}

// Session returns the session store mounted when the workspace was created
// Session 返回工作区创建时挂载的会话存储
func (w *Workspace) Session() *session.Store {
	return w.store
}

// Notes returns the list controller, creating it on first use
// Notes 返回列表控制器，首次使用时创建
func (w *Workspace) Notes() *notes.Controller {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.list == nil {
		w.list = notes.New(w.client, w.opts.Notes)
	}
	return w.list
}

// OpenEditor mounts a fresh editor for id, tearing down the previous one.
// OpenEditor 为 id 挂载新的编辑器，并销毁之前的实例
func (w *Workspace) OpenEditor(id string, location *url.URL) *editor.Editor {
	e := editor.New(id, location, w.client, w.client, w.opts.Editor)

	w.mu.Lock()
	old := w.editors[id]
	w.editors[id] = e
	w.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return e
}

// Editor returns the mounted editor for id
// Editor 返回 id 对应的已挂载编辑器
func (w *Workspace) Editor(id string) (*editor.Editor, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.editors[id]
	return e, ok
}

// StartRecovery mounts a fresh recovery flow, tearing down the previous one
// StartRecovery 挂载新的重置流程，并销毁之前的实例
func (w *Workspace) StartRecovery() *recovery.Flow {
	f := recovery.New(w.client, w.opts.Recovery)

	w.mu.Lock()
	old := w.flow
	w.flow = f
	w.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return f
}

// Recovery returns the mounted recovery flow
// Recovery 返回已挂载的重置流程
func (w *Workspace) Recovery() (*recovery.Flow, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flow, w.flow != nil
}

// ResetViews tears down every view controller but keeps the session store
// ResetViews 销毁所有页面控制器，但保留会话存储
func (w *Workspace) ResetViews() {
	w.mu.Lock()
	list, editors, flow := w.list, w.editors, w.flow
	w.list = nil
	w.editors = make(map[string]*editor.Editor)
	w.flow = nil
	w.mu.Unlock()

	if list != nil {
		list.Close()
	}
	for _, e := range editors {
		e.Close()
	}
	if flow != nil {
		flow.Close()
	}
}

// Touch records activity
// Touch 记录最近一次访问
func (w *Workspace) Touch() {
	w.mu.Lock()
	w.lastSeen = w.opts.Now()
	w.mu.Unlock()
}

// LastSeen 最近一次访问时间
func (w *Workspace) LastSeen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// Closed reports whether Close has run
// Closed 是否已关闭
func (w *Workspace) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Close unsubscribes the session store and drops every controller. Safe to call twice.
// Close 取消会话订阅并销毁全部控制器，可重复调用
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.ResetViews()
	w.store.Close()
	w.logger.Debug("workspace closed")
}

// mount starts the session store
// mount 启动会话存储
func (w *Workspace) mount(ctx context.Context) {
	w.store.Mount(ctx)
}
