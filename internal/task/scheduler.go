package task

import (
	"context"
	"time"

	"github.com/haierkeys/fast-note-web/pkg/safe_close"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行任务
	LoopInterval() time.Duration   // 执行间隔
	IsStartupRun() bool            // 是否立即执行一次
}

// CronTask is a Task whose cadence is a cron schedule; LoopInterval is ignored
// CronTask 按 cron 表达式调度的任务，此时忽略 LoopInterval
type CronTask interface {
	Task
	Schedule() cron.Schedule
}

// ParseSchedule 解析五段式 cron 表达式（分 时 日 月 周）
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(expr)
}

// Scheduler 任务调度器
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	sc     *safe_close.SafeClose
	now    func() time.Time
}

// NewScheduler 创建任务调度器
func NewScheduler(logger *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	return &Scheduler{
		logger: logger,
		tasks:  make([]Task, 0),
		sc:     sc,
		now:    time.Now,
	}
}

// AddTask 添加任务
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start 启动所有任务
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting ", zap.Int("count", len(s.tasks)))

	for _, task := range s.tasks {
		s.startTask(task)
	}
}

// runOnce 执行一次任务，捕获 panic
func (s *Scheduler) runOnce(task Task, kind string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task "+kind+" panic",
				zap.String("name", task.Name()),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()
	s.logger.Info("task running", zap.String("name", task.Name()), zap.Bool(kind, true))
	if err := task.Run(context.Background()); err != nil {
		s.logger.Error("task running error",
			zap.String("name", task.Name()),
			zap.Bool(kind, true),
			zap.Error(err))
	}
}

// next 返回距离下一次执行的时间，<=0 表示不再执行
func (s *Scheduler) next(task Task) time.Duration {
	if ct, ok := task.(CronTask); ok {
		if sched := ct.Schedule(); sched != nil {
			now := s.now()
			return sched.Next(now).Sub(now)
		}
		return 0
	}
	return task.LoopInterval()
}

// startTask 启动单个任务
func (s *Scheduler) startTask(task Task) {

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()

		// 如果任务需要立即执行
		if task.IsStartupRun() {
			go s.runOnce(task, "startupRun")
		}

		wait := s.next(task)
		if wait <= 0 {
			return
		}

		timer := time.NewTimer(wait)
		defer timer.Stop()

		// 定时执行
		for {
			select {
			case <-timer.C:
				s.runOnce(task, "loopRun")
				wait = s.next(task)
				if wait <= 0 {
					return
				}
				timer.Reset(wait)
			case <-closeSignal:
				s.logger.Info("task stopped", zap.String("name", task.Name()), zap.Bool("loopRun", true))
				return
			}
		}
	})
}
