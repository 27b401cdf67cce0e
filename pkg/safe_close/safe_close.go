// Package safe_close coordinates graceful shutdown of long running workers
// Package safe_close 协调长时间运行的协程优雅关闭
package safe_close

import (
	"sync"
)

// SafeClose broadcasts one close signal to every attached worker and waits for them.
// SafeClose 向所有挂载的协程广播一次关闭信号并等待其退出
type SafeClose struct {
	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup

	mu  sync.Mutex
	err error
}

// NewSafeClose 创建 SafeClose
func NewSafeClose() *SafeClose {
	return &SafeClose{closeCh: make(chan struct{})}
}

// Attach runs fn in its own goroutine. fn must call done when it returns.
// Attach 在独立协程中运行 fn，fn 返回前必须调用 done
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	go fn(s.wg.Done, s.closeCh)
}

// SendCloseSignal closes the signal channel once, remembering the first non-nil cause.
// SendCloseSignal 只关闭一次信号通道，并记录第一个非空的原因
func (s *SafeClose) SendCloseSignal(err error) {
	s.mu.Lock()
	if s.err == nil && err != nil {
		s.err = err
	}
	s.mu.Unlock()

	s.closeOnce.Do(func() {
		close(s.closeCh)
	})
}

// CloseSignal exposes the signal channel
// CloseSignal 返回关闭信号通道
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.closeCh
}

// WaitClosed blocks until every attached worker has called done
// WaitClosed 阻塞直到所有挂载的协程调用 done
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
