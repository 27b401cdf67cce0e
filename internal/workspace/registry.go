package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/fast-note-web/internal/metrics"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrRegistryClosed is returned by Create after Close
// ErrRegistryClosed 注册表关闭后 Create 返回该错误
var ErrRegistryClosed = errors.New("workspace registry closed")

// Registry maps workspace ids (the cookie value) to workspaces
// Registry 以工作区 ID（cookie 值）索引工作区
type Registry struct {
	opts Options

	// ctx outlives requests; initial session fetches run on it
	// ctx 生命周期长于单个请求，首次会话获取使用它
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	items  map[string]*Workspace
	closed bool
}

func NewRegistry(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		items:  make(map[string]*Workspace),
	}
}

// Get looks up a live workspace and marks it as seen
// Get 查找存活的工作区并更新访问时间
func (r *Registry) Get(id string) (*Workspace, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	w, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	w.Touch()
	return w, true
}

// Create builds a workspace with a new id and mounts its session store
// Create 使用新 ID 创建工作区并挂载会话存储
func (r *Registry) Create() (*Workspace, error) {
	if r.opts.Factory == nil {
		return nil, errors.New("workspace: backend factory is nil")
	}

	w := newWorkspace(uuid.NewString(), r.opts)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	var evicted *Workspace
	if limit := r.opts.MaxWorkspaces; limit > 0 && len(r.items) >= limit {
		evicted = r.oldestLocked()
		delete(r.items, evicted.ID)
	}
	r.items[w.ID] = w
	n := len(r.items)
	r.mu.Unlock()

	metrics.Workspaces.Set(float64(n))
	if evicted != nil {
		r.opts.Logger.Warn("workspace limit reached, evicted least recently seen",
			zap.Int("limit", r.opts.MaxWorkspaces),
			zap.Time("lastSeen", evicted.LastSeen()))
		evicted.Close()
	}
	w.mount(r.ctx)
	return w, nil
}

func (r *Registry) oldestLocked() *Workspace {
	var oldest *Workspace
	for _, w := range r.items {
		if oldest == nil || w.LastSeen().Before(oldest.LastSeen()) {
			oldest = w
		}
	}
	return oldest
}

// Remove closes and forgets id
// Remove 关闭并移除 id 对应的工作区
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	w, ok := r.items[id]
	delete(r.items, id)
	n := len(r.items)
	r.mu.Unlock()

	if ok {
		metrics.Workspaces.Set(float64(n))
		w.Close()
	}
}

// Sweep closes workspaces idle for longer than idle and returns how many were removed
// Sweep 关闭空闲时间超过 idle 的工作区，返回移除数量
func (r *Registry) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	deadline := r.opts.Now().Add(-idle)

	var stale []*Workspace
	r.mu.Lock()
	for id, w := range r.items {
		if w.LastSeen().Before(deadline) {
			stale = append(stale, w)
			delete(r.items, id)
		}
	}
	n := len(r.items)
	r.mu.Unlock()

	metrics.Workspaces.Set(float64(n))
	for _, w := range stale {
		w.Close()
	}
	return len(stale)
}

// Len 当前工作区数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Close tears down every workspace; Create fails afterwards
// Close 销毁所有工作区，之后 Create 会失败
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	items := r.items
	r.items = make(map[string]*Workspace)
	r.mu.Unlock()

	r.cancel()
	for _, w := range items {
		w.Close()
	}
	metrics.Workspaces.Set(0)
}
