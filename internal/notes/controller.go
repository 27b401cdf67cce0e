// Package notes keeps the paginated, searchable notes list of one workspace
// Package notes 维护单个工作区的分页、可搜索笔记列表
package notes

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/haierkeys/fast-note-web/internal/backend"
	"github.com/haierkeys/fast-note-web/internal/metrics"
	"github.com/haierkeys/fast-note-web/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultPageSize cards per page
// DefaultPageSize 每页卡片数
const DefaultPageSize = 6

// ErrLoadFallback is shown when a load error carries no provider message
// ErrLoadFallback 加载失败且无服务端消息时展示
const ErrLoadFallback = "Failed to load notes."

// Store is the slice of the backend the list needs
// Store 列表依赖的后端能力
type Store interface {
	CountNotes(ctx context.Context, f backend.NoteFilter) (int, error)
	ListNotes(ctx context.Context, f backend.NoteFilter, from, to int) ([]backend.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

type Options struct {
	PageSize int
	Logger   *zap.Logger
}

// Controller owns the list query state and the fetched page.
// Network calls run outside the lock; results are applied only by the latest fetch.
// Controller 持有列表查询状态与当前页数据；网络请求在锁外执行，只有最新一次请求的结果会被应用
type Controller struct {
	store    Store
	pageSize int
	logger   *zap.Logger

	mu         sync.Mutex
	notes      []backend.Note
	count      int
	search     string
	page       int
	loading    bool
	err        string
	deletingID string
	gen        uint64
	applied    uint64 // bumped each time a fetch result lands // 每次应用获取结果时递增
	closed     bool
}

func New(store Store, opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		store:    store,
		pageSize: opts.PageSize,
		logger:   opts.Logger,
		page:     1,
		loading:  true,
		notes:    []backend.Note{},
	}
}

// SetSearch changes the search text; a different text resets page to 1
// SetSearch 修改搜索词，内容变化时页码重置为 1
func (c *Controller) SetSearch(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if text == c.search {
		return false
	}
	c.search = text
	c.page = 1
	return true
}

func (c *Controller) ClearSearch() bool {
	return c.SetSearch("")
}

// SetPage moves to page n, clamped to at least 1
// SetPage 跳转到第 n 页，最小为 1
func (c *Controller) SetPage(n int) bool {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if n == c.page {
		return false
	}
	c.page = n
	return true
}

// Fetch loads count and page concurrently for the current query.
// applied is false when a newer fetch or Close superseded this one.
// Fetch 并发获取当前查询的总数与分页数据；被更新的请求或 Close 取代时 applied 为 false
func (c *Controller) Fetch(ctx context.Context) (applied bool, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, nil
	}
	c.gen++
	gen := c.gen
	page, search := c.page, c.search
	c.loading = true
	c.err = ""
	c.mu.Unlock()

	from := (page - 1) * c.pageSize
	to := from + c.pageSize - 1
	filter := backend.NoteFilter{Search: strings.TrimSpace(search)}

	var (
		count             int
		rows              []backend.Note
		countErr, listErr error
		g                 errgroup.Group
	)
	g.Go(func() error {
		count, countErr = c.store.CountNotes(ctx, filter)
		return countErr
	})
	g.Go(func() error {
		rows, listErr = c.store.ListNotes(ctx, filter, from, to)
		return listErr
	})
	_ = g.Wait()

	err = countErr
	if err == nil {
		err = listErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		metrics.StaleResults.WithLabelValues("notes").Inc()
		return false, nil
	}

	c.loading = false
	c.applied++
	if err != nil {
		c.notes = []backend.Note{}
		c.count = 0
		c.err = errorMessage(err, ErrLoadFallback)
		c.logger.Warn("notes fetch failed",
			zap.Int("page", page),
			zap.Error(err))
		return true, err
	}
	if rows == nil {
		rows = []backend.Note{}
	}
	c.notes = rows
	c.count = count
	return true, nil
}

// Delete removes id optimistically and restores the previous list if the provider call fails.
// When the deletion empties a page after the first, the page moves back by one and is refetched.
// Delete 乐观删除，远端失败时恢复删除前的列表；
// 删除导致非首页变空时页码减一并重新获取
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	snap := snapshot{notes: c.notes, count: c.count, applied: c.applied}

	next := make([]backend.Note, 0, len(c.notes))
	for _, n := range c.notes {
		if n.ID != id {
			next = append(next, n)
		}
	}
	c.notes = next
	c.count = max(0, c.count-1)
	c.deletingID = id
	c.err = ""
	c.mu.Unlock()

	err := c.store.DeleteNote(ctx, id)

	c.mu.Lock()
	if c.deletingID == id {
		c.deletingID = ""
	}
	if c.closed {
		c.mu.Unlock()
		return err
	}

	if err != nil {
		// a fetch that landed meanwhile owns the list now
		if snap.applied == c.applied {
			c.notes, c.count = snap.notes, snap.count
			metrics.Rollbacks.Inc()
		}
		c.err = errorMessage(err, err.Error())
		c.mu.Unlock()
		c.logger.Warn("note delete failed, rolled back",
			zap.String(logger.FieldNoteID, id),
			zap.Error(err))
		return err
	}

	refetch := false
	if len(c.notes) == 0 && c.page > 1 {
		c.page--
		refetch = true
	}
	c.mu.Unlock()

	if refetch {
		_, _ = c.Fetch(ctx)
	}
	return nil
}

type snapshot struct {
	notes   []backend.Note
	count   int
	applied uint64
}

// Close drops every result that arrives afterwards
// Close 之后到达的结果全部丢弃
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Page returns the current page number
// Page 当前页码
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// errorMessage prefers the provider text
// errorMessage 优先使用服务端返回的消息
func errorMessage(err error, fallback string) string {
	var apiErr *backend.Error
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	if fallback == "" {
		return ErrLoadFallback
	}
	return fallback
}
