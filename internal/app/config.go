// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/fast-note-web/pkg/util"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File      string          `yaml:"-"` // 配置文件路径，不序列化
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Backend   BackendConfig   `yaml:"backend"`
	Notes     NotesConfig     `yaml:"notes"`
	Auth      AuthConfig      `yaml:"auth"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	App       AppSettings     `yaml:"app"`
	Security  SecurityConfig  `yaml:"security"`
	Tracer    TracerConfig    `yaml:"tracer"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File 日志文件路径，为空时只输出到 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址（metrics、expvar、pprof）
	PrivateHttpListen string `yaml:"private-http-listen" default:":9001"`
}

// BackendConfig 托管认证与数据服务配置
type BackendConfig struct {
	// URL 项目地址，例如 https://xyz.supabase.co
	URL string `yaml:"url"`
	// AnonKey 公开的 anon key
	AnonKey string `yaml:"anon-key"`
	// Timeout 单次请求超时，支持格式：10s、1m
	Timeout string `yaml:"timeout" default:"30s"`
	// FlowType 认证流程：pkce 或 implicit
	FlowType string `yaml:"flow-type" default:"pkce"`
}

// NotesConfig 笔记配置
type NotesConfig struct {
	// PageSize 列表每页数量
	PageSize int `yaml:"page-size" default:"6"`
	// TitleMax 标题长度上限（字符）
	TitleMax int `yaml:"title-max" default:"80"`
	// SubtitleMax 副标题长度上限（字符）
	SubtitleMax int `yaml:"subtitle-max" default:"120"`
	// MessageTTL 保存成功提示的显示时长
	MessageTTL string `yaml:"message-ttl" default:"900ms"`
}

// AuthConfig 账户配置
type AuthConfig struct {
	// PasswordMinLength 密码最小长度
	PasswordMinLength int `yaml:"password-min-length" default:"6"`
	// PublicURL 重置密码链接使用的公开地址，为空时使用请求来源
	PublicURL string `yaml:"public-url"`
	// RedirectDelay 重置密码成功后跳转登录页的延迟
	RedirectDelay string `yaml:"redirect-delay" default:"900ms"`
}

// WorkspaceConfig 浏览器工作区配置
type WorkspaceConfig struct {
	// CookieName 工作区 cookie 名称
	CookieName string `yaml:"cookie-name" default:"fast-note-web-workspace"`
	// CookieSecure 是否仅通过 HTTPS 发送 cookie
	CookieSecure bool `yaml:"cookie-secure"`
	// IdleTimeout 空闲多久后回收，支持格式：30m、2h、1d
	IdleTimeout string `yaml:"idle-timeout" default:"2h"`
	// SweepCron 回收任务的 cron 表达式（分 时 日 月 周）
	SweepCron string `yaml:"sweep-cron" default:"*/10 * * * *"`
	// SessionWait 受保护页面等待会话加载的最长时间
	SessionWait string `yaml:"session-wait" default:"5s"`
	// MaxWorkspaces 工作区数量上限，满时淘汰最久未访问的工作区，0 表示不限制
	MaxWorkspaces int `yaml:"max-workspaces" default:"10000"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultContextTimeout 默认上下文超时时间（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// Language 提示消息语言：en 或 zh_cn
	Language string `yaml:"language" default:"en"`
	// IsReturnSussess 是否返回成功信息
	IsReturnSussess bool `yaml:"is-return-sussess" default:"false"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	// RateLimitCapacity 登录、注册、找回密码接口的令牌桶容量
	RateLimitCapacity int64 `yaml:"rate-limit-capacity" default:"10"`
	// RateLimitInterval 令牌补充间隔，支持格式：1s、1m
	RateLimitInterval string `yaml:"rate-limit-interval" default:"6s"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称，默认 X-Trace-ID
	Header string `yaml:"header" default:"X-Trace-ID"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	c, err := ParseConfig(file)
	if err != nil {
		return nil, realpath, err
	}
	c.File = realpath
	return c, realpath, nil
}

// ParseConfig 解析 YAML 配置内容并填充默认值
func ParseConfig(data []byte) (*AppConfig, error) {
	c := new(AppConfig)

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "set default config failed")
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	// defaults.Set 只有在字段为该类型的零值时才会填充
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "re-set default config failed")
	}

	return c, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetBackendTimeout 获取后端请求超时
func (c *AppConfig) GetBackendTimeout() time.Duration {
	return util.MustParseDuration(c.Backend.Timeout, 30*time.Second)
}

// GetMessageTTL 获取保存提示显示时长
func (c *AppConfig) GetMessageTTL() time.Duration {
	return util.MustParseDuration(c.Notes.MessageTTL, 900*time.Millisecond)
}

// GetRedirectDelay 获取重置成功后跳转延迟
func (c *AppConfig) GetRedirectDelay() time.Duration {
	return util.MustParseDuration(c.Auth.RedirectDelay, 900*time.Millisecond)
}

// GetIdleTimeout 获取工作区空闲回收时间
func (c *AppConfig) GetIdleTimeout() time.Duration {
	return util.MustParseDuration(c.Workspace.IdleTimeout, 2*time.Hour)
}

// GetSessionWait 获取会话加载等待时间
func (c *AppConfig) GetSessionWait() time.Duration {
	return util.MustParseDuration(c.Workspace.SessionWait, 5*time.Second)
}

// GetRateLimitInterval 获取限流令牌补充间隔
func (c *AppConfig) GetRateLimitInterval() time.Duration {
	return util.MustParseDuration(c.Security.RateLimitInterval, 6*time.Second)
}

// GetContextTimeout 获取请求上下文超时
func (c *AppConfig) GetContextTimeout() time.Duration {
	if c.App.DefaultContextTimeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.App.DefaultContextTimeout) * time.Second
}
