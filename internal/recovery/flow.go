// Package recovery handles password reset links and the new password form
// Package recovery 处理密码重置链接与新密码表单
package recovery

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/fast-note-web/internal/backend"
	"github.com/haierkeys/fast-note-web/pkg/logger"

	"go.uber.org/zap"
)

// Status of the reset link check
// Status 重置链接的检查状态
type Status string

const (
	StatusChecking Status = "checking"
	StatusReady    Status = "ready"
	StatusExpired  Status = "expired"
	StatusInvalid  Status = "invalid"
	StatusSuccess  Status = "success"
)

// User facing messages
// 面向用户的提示文案
const (
	MsgExpired       = "This reset link has expired. Please request a new one."
	MsgNoSession     = "Invalid or expired reset link. Please request a new one."
	MsgNotRecovery   = "This page is only accessible from a password reset link."
	MsgMismatch      = "Passwords do not match."
	MsgUpdated       = "Password updated. You can now login with your new password."
	MsgInvalidLink   = "Invalid reset link."
	LoginPath        = "/login"
	DefaultMinLength = 6
	DefaultDelay     = 900 * time.Millisecond

	recoveryType = "recovery"
)

var (
	ErrNotReady = errors.New("reset link has not been verified")
	ErrTooShort = errors.New("password is too short")
	ErrMismatch = errors.New(MsgMismatch)
	ErrBusy     = errors.New("password update in progress")
)

// Auth is the slice of the backend the flow needs
// Auth 重置流程依赖的后端能力
type Auth interface {
	GetSession(ctx context.Context) (*backend.Session, error)
	ExchangeCodeForSession(ctx context.Context, code string) (*backend.Session, error)
	SetSession(ctx context.Context, accessToken, refreshToken string) (*backend.Session, error)
	UpdatePassword(ctx context.Context, password string) (*backend.User, error)
	SignOut(ctx context.Context) error
}

type Options struct {
	MinPasswordLength int
	RedirectDelay     time.Duration
	Logger            *zap.Logger
}

// Flow is the recovery state machine: checking, then ready, expired or invalid, then success
// Flow 重置状态机：checking 之后进入 ready、expired 或 invalid，最终 success
type Flow struct {
	auth   Auth
	minLen int
	delay  time.Duration
	logger *zap.Logger

	mu         sync.Mutex
	status     Status
	message    string
	cleanURL   string
	submitting bool
	redirect   string
	gen        uint64
	closed     bool
}

func New(auth Auth, opts Options) *Flow {
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = DefaultMinLength
	}
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = DefaultDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Flow{
		auth:   auth,
		minLen: opts.MinPasswordLength,
		delay:  opts.RedirectDelay,
		logger: opts.Logger,
		status: StatusChecking,
	}
}

type linkParams struct {
	code             string
	linkType         string
	accessToken      string
	refreshToken     string
	errorDescription string
}

// parseLink reads the query and the fragment; the provider may put error_description in either
// parseLink 读取 query 与 fragment，error_description 可能出现在任一处
func parseLink(u *url.URL) linkParams {
	q := u.Query()
	frag, _ := url.ParseQuery(u.EscapedFragment())

	p := linkParams{
		code:             q.Get("code"),
		linkType:         frag.Get("type"),
		accessToken:      frag.Get("access_token"),
		refreshToken:     frag.Get("refresh_token"),
		errorDescription: q.Get("error_description"),
	}
	if p.errorDescription == "" {
		p.errorDescription = frag.Get("error_description")
	}
	return p
}

// Check inspects the link the provider redirected to. A newer Check or Close discards an older one.
// Check 检查认证服务重定向过来的链接；更新的 Check 或 Close 会使旧的结果失效
func (f *Flow) Check(ctx context.Context, u *url.URL) Status {
	f.mu.Lock()
	if f.closed {
		st := f.status
		f.mu.Unlock()
		return st
	}
	f.gen++
	gen := f.gen
	f.status = StatusChecking
	f.message = ""
	f.redirect = ""
	f.cleanURL = ""
	f.mu.Unlock()

	p := parseLink(u)

	if p.errorDescription != "" {
		st, msg := classify(p.errorDescription)
		return f.finish(gen, st, msg)
	}

	if p.code != "" {
		if _, err := f.auth.ExchangeCodeForSession(ctx, p.code); err != nil {
			st, msg := classify(err.Error())
			return f.finish(gen, st, msg)
		}

		f.mu.Lock()
		if f.current(gen) {
			clean := url.URL{Path: u.Path}
			f.cleanURL = clean.String()
		}
		f.mu.Unlock()

		sess, _ := f.auth.GetSession(ctx)
		if sess == nil {
			return f.finish(gen, StatusInvalid, MsgNoSession)
		}
		return f.finish(gen, StatusReady, "")
	}

	if p.linkType == recoveryType && p.accessToken != "" && p.refreshToken != "" {
		if _, err := f.auth.SetSession(ctx, p.accessToken, p.refreshToken); err != nil {
			f.logger.Info("recovery token rejected", zap.Error(err))
			st, msg := classify(err.Error())
			return f.finish(gen, st, msg)
		}
	}

	sess, _ := f.auth.GetSession(ctx)
	if sess == nil || p.linkType != recoveryType {
		return f.finish(gen, StatusInvalid, MsgNotRecovery)
	}
	return f.finish(gen, StatusReady, "")
}

// classify maps provider text to expired or invalid
// classify 将服务端文本归类为 expired 或 invalid
func classify(desc string) (Status, string) {
	if strings.Contains(strings.ToLower(desc), "expired") {
		return StatusExpired, MsgExpired
	}
	if strings.TrimSpace(desc) == "" {
		return StatusInvalid, MsgInvalidLink
	}
	return StatusInvalid, desc
}

func (f *Flow) current(gen uint64) bool {
	return !f.closed && gen == f.gen
}

func (f *Flow) finish(gen uint64, st Status, msg string) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.current(gen) {
		return f.status
	}
	f.status = st
	f.message = msg
	f.logger.Debug("recovery link checked", zap.String(logger.FieldStatus, string(st)))
	return st
}

// Validation is the inline feedback of the password form
// Validation 密码表单的即时反馈
type Validation struct {
	PasswordOK bool   `json:"passwordOk"`
	Match      bool   `json:"match"`
	CanSubmit  bool   `json:"canSubmit"`
	Feedback   string `json:"feedback,omitempty"`
}

// Validate checks length and confirmation; an empty confirmation does not count as a mismatch yet
// Validate 校验长度与确认密码，确认密码为空时暂不视为不一致
func (f *Flow) Validate(password, confirm string) Validation {
	v := Validation{
		PasswordOK: len(password) >= f.minLen,
		Match:      confirm == "" || password == confirm,
	}
	if !v.Match {
		v.Feedback = MsgMismatch
	}
	f.mu.Lock()
	ready := f.status == StatusReady && !f.submitting
	f.mu.Unlock()
	v.CanSubmit = ready && v.PasswordOK && v.Match && confirm != ""
	return v
}

// Submit updates the password, then signs the recovery session out
// Submit 更新密码，然后注销重置会话
func (f *Flow) Submit(ctx context.Context, password, confirm string) error {
	f.mu.Lock()
	switch {
	case f.status != StatusReady:
		f.mu.Unlock()
		return ErrNotReady
	case f.submitting:
		f.mu.Unlock()
		return ErrBusy
	case len(password) < f.minLen:
		f.mu.Unlock()
		return ErrTooShort
	case password != confirm:
		f.mu.Unlock()
		return ErrMismatch
	}
	f.submitting = true
	f.message = ""
	f.mu.Unlock()

	_, err := f.auth.UpdatePassword(ctx, password)

	f.mu.Lock()
	f.submitting = false
	if f.closed {
		f.mu.Unlock()
		return err
	}
	if err != nil {
		f.message = err.Error()
		f.mu.Unlock()
		return err
	}
	f.status = StatusSuccess
	f.message = MsgUpdated
	f.redirect = LoginPath
	f.mu.Unlock()

	if err := f.auth.SignOut(ctx); err != nil {
		f.logger.Warn("sign out after password update failed", zap.Error(err))
	}
	return nil
}

// View is the render model of the reset page
// View 重置页面的渲染模型
type View struct {
	Status          Status `json:"status"`
	Message         string `json:"message,omitempty"`
	FormEnabled     bool   `json:"formEnabled"`
	Submitting      bool   `json:"submitting"`
	CleanURL        string `json:"cleanUrl,omitempty"`
	Redirect        string `json:"redirect,omitempty"`
	RedirectAfterMs int64  `json:"redirectAfterMs,omitempty"`
	MinLength       int    `json:"minLength"`
}

func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := View{
		Status:      f.status,
		Message:     f.message,
		FormEnabled: f.status == StatusReady,
		Submitting:  f.submitting,
		CleanURL:    f.cleanURL,
		Redirect:    f.redirect,
		MinLength:   f.minLen,
	}
	if v.Redirect != "" {
		v.RedirectAfterMs = f.delay.Milliseconds()
	}
	return v
}

// Close discards checks still in flight
// Close 丢弃仍在进行中的检查
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}
