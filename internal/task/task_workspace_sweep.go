package task

import (
	"context"
	"time"

	"github.com/haierkeys/fast-note-web/internal/app"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper 回收空闲工作区
type Sweeper interface {
	Sweep(idle time.Duration) int
	Len() int
}

// WorkspaceSweepTask closes browser workspaces that have been idle too long
// WorkspaceSweepTask 回收空闲过久的浏览器工作区
type WorkspaceSweepTask struct {
	sweeper  Sweeper
	idle     time.Duration
	schedule cron.Schedule
	logger   *zap.Logger
}

// Name 返回任务名称
func (t *WorkspaceSweepTask) Name() string {
	return "WorkspaceSweep"
}

// LoopInterval 由 cron 表达式决定
func (t *WorkspaceSweepTask) LoopInterval() time.Duration {
	return 0
}

// Schedule 返回 cron 调度
func (t *WorkspaceSweepTask) Schedule() cron.Schedule {
	return t.schedule
}

// IsStartupRun 是否立即执行一次
func (t *WorkspaceSweepTask) IsStartupRun() bool {
	return false
}

// Run 执行回收
func (t *WorkspaceSweepTask) Run(ctx context.Context) error {
	removed := t.sweeper.Sweep(t.idle)
	t.logger.Info("task log",
		zap.String("task", t.Name()),
		zap.Int("removed", removed),
		zap.Int("remaining", t.sweeper.Len()))
	return nil
}

// NewWorkspaceSweepTask 创建工作区回收任务
func NewWorkspaceSweepTask(sweeper Sweeper, idle time.Duration, expr string, logger *zap.Logger) (*WorkspaceSweepTask, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "parse sweep cron %q", expr)
	}
	return &WorkspaceSweepTask{
		sweeper:  sweeper,
		idle:     idle,
		schedule: schedule,
		logger:   logger,
	}, nil
}

// init registers the workspace sweep task
func init() {
	RegisterWithApp(func(appContainer *app.App) (Task, error) {
		cfg := appContainer.Config()
		if cfg.Workspace.SweepCron == "" {
			return nil, nil
		}
		return NewWorkspaceSweepTask(appContainer.Workspaces, cfg.GetIdleTimeout(), cfg.Workspace.SweepCron, appContainer.Logger())
	})
}
