// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/fast-note-web/internal/backend"
	"github.com/haierkeys/fast-note-web/internal/editor"
	"github.com/haierkeys/fast-note-web/internal/notes"
	"github.com/haierkeys/fast-note-web/internal/recovery"
	"github.com/haierkeys/fast-note-web/internal/service"
	"github.com/haierkeys/fast-note-web/internal/workspace"
	pkgapp "github.com/haierkeys/fast-note-web/pkg/app"

	"go.uber.org/zap"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config  *AppConfig
	logger  *zap.Logger
	factory backend.Factory

	// 浏览器工作区
	Workspaces *workspace.Registry

	// StartTime 启动时间
	StartTime time.Time

	// Service 层
	AccountService service.AccountService
	NoteService    service.NoteService

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// NewBackendFactory 根据配置创建后端客户端工厂
func NewBackendFactory(cfg *AppConfig, logger *zap.Logger) (backend.Factory, error) {
	return backend.NewSupabaseFactory(backend.Config{
		URL:      cfg.Backend.URL,
		AnonKey:  cfg.Backend.AnonKey,
		Timeout:  cfg.GetBackendTimeout(),
		FlowType: cfg.Backend.FlowType,
	}, logger)
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// factory: 后端客户端工厂，为 nil 时按配置创建
func NewApp(cfg *AppConfig, logger *zap.Logger, factory backend.Factory) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if factory == nil {
		f, err := NewBackendFactory(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create backend client: %w", err)
		}
		factory = f
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		factory:    factory,
		StartTime:  time.Now(),
		shutdownCh: make(chan struct{}),
	}

	// 初始化工作区注册表
	a.Workspaces = workspace.NewRegistry(workspace.Options{
		Factory:       factory,
		Logger:        logger,
		MaxWorkspaces: cfg.Workspace.MaxWorkspaces,
		Notes:         notes.Options{PageSize: cfg.Notes.PageSize},
		Editor:        editor.Options{MessageTTL: cfg.GetMessageTTL()},
		Recovery: recovery.Options{
			MinPasswordLength: cfg.Auth.PasswordMinLength,
			RedirectDelay:     cfg.GetRedirectDelay(),
		},
	})

	// 创建 ServiceConfig（从 AppConfig 提取 Service 层需要的配置）
	svcConfig := &service.ServiceConfig{
		Auth: service.AuthServiceConfig{
			PasswordMinLength: cfg.Auth.PasswordMinLength,
			PublicURL:         cfg.Auth.PublicURL,
		},
		Notes: service.NotesServiceConfig{
			TitleMax:    cfg.Notes.TitleMax,
			SubtitleMax: cfg.Notes.SubtitleMax,
		},
	}

	// 初始化 Service 层（依赖注入）
	a.AccountService = service.NewAccountService(logger, svcConfig)
	a.NoteService = service.NewNoteService(logger, svcConfig)

	logger.Info("App container initialized successfully",
		zap.String("backend", cfg.Backend.URL),
		zap.Int("pageSize", cfg.Notes.PageSize))

	return a, nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// IsReturnSuccess 是否返回成功响应
func (a *App) IsReturnSuccess() bool {
	return a.config.App.IsReturnSussess
}

// IsProductionMode 是否为生产模式
// 根据日志配置中的 Production 字段判断
func (a *App) IsProductionMode() bool {
	return a.config.Log.Production
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：后台操作 -> 工作区
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	// 如果没有提供 context，使用默认超时
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	// 标记关闭
	select {
	case <-a.shutdownCh:
		// 已经关闭
		return nil
	default:
		close(a.shutdownCh)
	}

	var errs []error

	// 1. 等待所有后台操作完成
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All background operations completed")
	case <-ctx.Done():
		a.logger.Warn("Shutdown timeout waiting for background operations")
		errs = append(errs, fmt.Errorf("background operations timeout: %w", ctx.Err()))
	}

	// 2. 关闭所有工作区（取消订阅、丢弃迟到的结果）
	a.Workspaces.Close()

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors",
			zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownCh 返回关闭信号通道（用于监听关闭事件）
func (a *App) ShutdownCh() <-chan struct{} {
	return a.shutdownCh
}

// TrackOperation 跟踪后台操作（用于优雅关闭时等待）
// 返回一个函数，在操作完成时调用
func (a *App) TrackOperation() func() {
	a.wg.Add(1)
	return func() {
		a.wg.Done()
	}
}
