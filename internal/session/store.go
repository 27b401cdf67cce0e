// Package session mirrors the provider's auth state for one browser workspace
// Package session 为单个浏览器工作区镜像认证状态
package session

import (
	"context"
	"sync"

	"github.com/haierkeys/fast-note-web/internal/backend"
	"github.com/haierkeys/fast-note-web/pkg/logger"

	"go.uber.org/zap"
)

// AuthSource is the slice of the backend client the store needs
// AuthSource Store 依赖的后端能力
type AuthSource interface {
	GetSession(ctx context.Context) (*backend.Session, error)
	OnAuthStateChange(fn backend.AuthChangeFunc) backend.Subscription
}

// State is a snapshot of the store
// State Store 的状态快照
type State struct {
	Session       *backend.Session `json:"-"`
	User          *backend.User    `json:"user"`
	Loading       bool             `json:"loading"`
	Authenticated bool             `json:"authenticated"`
}

// Store fetches the session once on Mount and follows auth-state events until Close.
// Store 在 Mount 时获取一次会话，并在 Close 前持续跟随认证事件
type Store struct {
	auth   AuthSource
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	mounted bool
	// events counts auth-state events applied since Mount
	events uint64
	sub    backend.Subscription

	ready     chan struct{}
	readyOnce sync.Once
}

func NewStore(auth AuthSource, lg *zap.Logger) *Store {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Store{
		auth:   auth,
		logger: lg,
		state:  State{Loading: true},
		ready:  make(chan struct{}),
	}
}

// Mount subscribes to auth-state changes and starts the initial fetch. Calling it twice is a no-op.
// Mount 订阅认证状态变化并开始首次获取，重复调用无效
func (s *Store) Mount(ctx context.Context) {
	s.mu.Lock()
	if s.mounted || s.sub != nil {
		s.mu.Unlock()
		return
	}
	s.mounted = true
	s.mu.Unlock()

	sub := s.auth.OnAuthStateChange(s.onAuthChange)

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	go s.fetch(ctx)
}

func (s *Store) fetch(ctx context.Context) {
	s.mu.Lock()
	seen := s.events
	s.mu.Unlock()

	sess, err := s.auth.GetSession(ctx)
	if err != nil {
		// treated as signed out
		s.logger.Debug("initial session fetch failed", zap.Error(err))
		sess = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	// an event that arrived during the fetch is newer than the fetch result
	if s.events == seen {
		s.setLocked(sess)
	}
	s.state.Loading = false
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Store) onAuthChange(event backend.AuthEvent, sess *backend.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.events++
	s.setLocked(sess)
	s.logger.Debug("session state changed",
		zap.String(logger.FieldAction, string(event)),
		zap.Bool("authenticated", s.state.Authenticated))
}

func (s *Store) setLocked(sess *backend.Session) {
	s.state.Session = sess
	s.state.User = nil
	if sess != nil {
		s.state.User = sess.User
	}
	s.state.Authenticated = sess != nil
}

// State returns the current snapshot
// State 返回当前快照
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready is closed once loading has cleared
// Ready 加载完成后关闭
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Wait blocks until loading clears or ctx is done, then returns the snapshot
// Wait 阻塞到加载完成或 ctx 结束，返回快照
func (s *Store) Wait(ctx context.Context) (State, error) {
	select {
	case <-s.ready:
		return s.State(), nil
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}
}

// Close unsubscribes; state is frozen afterwards
// Close 取消订阅，之后状态不再变化
func (s *Store) Close() {
	s.mu.Lock()
	s.mounted = false
	sub := s.sub
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}
