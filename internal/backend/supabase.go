package backend

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/fast-note-web/internal/metrics"
	"github.com/haierkeys/fast-note-web/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Flow types for password recovery links
// 密码重置链接的流程类型
const (
	FlowImplicit = "implicit"
	FlowPKCE     = "pkce"
)

// refreshMargin refresh this long before the access token expires
// refreshMargin 访问令牌过期前多久开始刷新
const refreshMargin = 10 * time.Second

// Config provider connection settings
// Config 后端连接配置
type Config struct {
	// URL project base url, e.g. https://xyz.supabase.co
	URL string
	// AnonKey public anon api key
	AnonKey string
	// Timeout per request
	Timeout time.Duration
	// FlowType implicit or pkce
	FlowType string
}

// SupabaseClient talks to GoTrue (/auth/v1) and PostgREST (/rest/v1).
// It holds the session of one browser workspace.
// SupabaseClient 访问 GoTrue 与 PostgREST，持有单个浏览器工作区的会话
type SupabaseClient struct {
	cfg    Config
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
	now    func() time.Time

	mu           sync.Mutex
	session      *Session
	codeVerifier string
	recoveryCode bool
	listeners    []*listener
	nextID       int

	refreshGroup singleflight.Group
}

type listener struct {
	id int
	fn AuthChangeFunc
}

type subscription struct {
	once   sync.Once
	client *SupabaseClient
	id     int
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.client.removeListener(s.id)
	})
}

// NewSupabaseClient creates a client; a nil httpClient gets one with cfg.Timeout
// NewSupabaseClient 创建客户端，httpClient 为空时按 cfg.Timeout 新建
func NewSupabaseClient(cfg Config, httpClient *http.Client, lg *zap.Logger) (*SupabaseClient, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse backend url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("backend url %q must be absolute", cfg.URL)
	}
	if cfg.FlowType == "" {
		cfg.FlowType = FlowImplicit
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &SupabaseClient{
		cfg:    cfg,
		base:   base,
		http:   httpClient,
		logger: lg,
		now:    time.Now,
	}, nil
}

// NewSupabaseFactory returns a Factory whose clients share one http.Client
// NewSupabaseFactory 返回共享同一个 http.Client 的客户端工厂
func NewSupabaseFactory(cfg Config, lg *zap.Logger) (Factory, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	// validate once up front
	if _, err := NewSupabaseClient(cfg, httpClient, lg); err != nil {
		return nil, err
	}
	return func() Client {
		c, _ := NewSupabaseClient(cfg, httpClient, lg)
		return c
	}, nil
}

// OnAuthStateChange registers fn; events are delivered synchronously in registration order
// OnAuthStateChange 注册监听函数，事件按注册顺序同步投递
func (c *SupabaseClient) OnAuthStateChange(fn AuthChangeFunc) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.listeners = append(c.listeners, &listener{id: c.nextID, fn: fn})
	return &subscription{client: c, id: c.nextID}
}

func (c *SupabaseClient) removeListener(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, l := range c.listeners {
		if l.id == id {
			c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
			return
		}
	}
}

// setSession stores s and notifies listeners outside the lock
// setSession 保存会话并在锁外通知监听者
func (c *SupabaseClient) setSession(event AuthEvent, s *Session) {
	c.mu.Lock()
	c.session = s
	ls := make([]*listener, len(c.listeners))
	copy(ls, c.listeners)
	c.mu.Unlock()

	c.logger.Debug("auth state change", zap.String(logger.FieldAction, string(event)))
	for _, l := range ls {
		l.fn(event, s)
	}
}

func (c *SupabaseClient) currentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

type request struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    interface{}
	token   string
	headers map[string]string
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// do sends req and returns the raw response; non-2xx becomes *Error
// do 发送请求，非 2xx 响应转换为 *Error
func (c *SupabaseClient) do(ctx context.Context, req request) (*response, error) {
	start := c.now()
	outcome := metrics.OutcomeError
	defer func() {
		metrics.BackendCalls.WithLabelValues(req.op, outcome).Inc()
		metrics.BackendLatency.WithLabelValues(req.op).Observe(c.now().Sub(start).Seconds())
	}()

	u := *c.base
	u.Path = c.base.Path + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := sonic.Marshal(req.body)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: encode body", req.op)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: build request", req.op)
	}
	token := req.token
	if token == "" {
		token = c.cfg.AnonKey
	}
	httpReq.Header.Set("apikey", c.cfg.AnonKey)
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String(logger.FieldOperation, req.op),
			zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: read body", req.op)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseError(resp.StatusCode, data)
		c.logger.Debug("backend returned error",
			zap.String(logger.FieldOperation, req.op),
			zap.Int(logger.FieldStatus, resp.StatusCode),
			zap.String(logger.FieldError, apiErr.Message))
		return nil, apiErr
	}

	outcome = metrics.OutcomeOK
	return &response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

func decode(op string, data []byte, out interface{}) error {
	if err := sonic.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "%s: decode response", op)
	}
	return nil
}

var _ Client = (*SupabaseClient)(nil)
