package backend

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"

	"github.com/golang-jwt/jwt/v5"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrSessionMissing is returned by calls that need a signed in user
// ErrSessionMissing 需要登录态的调用在无会话时返回
var ErrSessionMissing = errors.New("Auth session missing!")

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *SupabaseClient) tokenGrant(ctx context.Context, op, grant string, body interface{}) (*Session, error) {
	resp, err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {grant}},
		body:   body,
	})
	if err != nil {
		return nil, err
	}
	var s Session
	if err := decode(op, resp.body, &s); err != nil {
		return nil, err
	}
	c.fillExpiry(&s)
	return &s, nil
}

func (c *SupabaseClient) fillExpiry(s *Session) {
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = c.now().Unix() + s.ExpiresIn
	}
}

// SignUp registers a user. With email confirmation on, the provider returns only a user.
// SignUp 注册用户，开启邮箱确认时服务端只返回用户
func (c *SupabaseClient) SignUp(ctx context.Context, email, password string) (*User, error) {
	resp, err := c.do(ctx, request{
		op:     "auth.signup",
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   credentials{Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}

	var s Session
	if err := decode("auth.signup", resp.body, &s); err != nil {
		return nil, err
	}
	if s.AccessToken != "" {
		c.fillExpiry(&s)
		c.setSession(EventSignedIn, &s)
		return s.User, nil
	}

	var u User
	if err := decode("auth.signup", resp.body, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, nil
	}
	return &u, nil
}

// SignIn signs in with email and password
// SignIn 邮箱密码登录
func (c *SupabaseClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	s, err := c.tokenGrant(ctx, "auth.signin", "password", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	c.setSession(EventSignedIn, s)
	return s, nil
}

// SignOut revokes the session. 401, 403 and 404 mean it is already gone.
// SignOut 注销会话，401/403/404 视为已失效
func (c *SupabaseClient) SignOut(ctx context.Context) error {
	s := c.currentSession()
	if s != nil && s.AccessToken != "" {
		_, err := c.do(ctx, request{
			op:     "auth.signout",
			method: http.MethodPost,
			path:   "/auth/v1/logout",
			query:  url.Values{"scope": {"global"}},
			token:  s.AccessToken,
		})
		if err != nil {
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				return err
			}
			switch apiErr.Status {
			case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			default:
				return err
			}
		}
	}
	c.setSession(EventSignedOut, nil)
	return nil
}

// GetSession returns the current session, refreshing it when it is about to expire
// GetSession 返回当前会话，即将过期时自动刷新
func (c *SupabaseClient) GetSession(ctx context.Context) (*Session, error) {
	s := c.currentSession()
	if s == nil {
		return nil, nil
	}
	if !s.Expired(c.now(), refreshMargin) {
		return s, nil
	}
	if s.RefreshToken == "" {
		c.setSession(EventSignedOut, nil)
		return nil, nil
	}

	v, err, _ := c.refreshGroup.Do(s.RefreshToken, func() (interface{}, error) {
		return c.refreshSession(ctx, s.RefreshToken)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (c *SupabaseClient) refreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	s, err := c.tokenGrant(ctx, "auth.refresh", "refresh_token", map[string]string{"refresh_token": refreshToken})
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			c.logger.Info("session refresh rejected, signing out", zap.Error(err))
			c.setSession(EventSignedOut, nil)
		}
		return nil, err
	}
	c.setSession(EventTokenRefreshed, s)
	return s, nil
}

// ResetPasswordForEmail sends the recovery email; with the pkce flow a code verifier is kept for the exchange
// ResetPasswordForEmail 发送重置邮件，pkce 流程下保存 code verifier 供后续换取会话
func (c *SupabaseClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	body := map[string]string{"email": email}
	if c.cfg.FlowType == FlowPKCE {
		verifier, err := newCodeVerifier()
		if err != nil {
			return err
		}
		sum := sha256.Sum256([]byte(verifier))
		body["code_challenge"] = base64.RawURLEncoding.EncodeToString(sum[:])
		body["code_challenge_method"] = "s256"

		c.mu.Lock()
		c.codeVerifier = verifier
		c.recoveryCode = true
		c.mu.Unlock()
	}

	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	_, err := c.do(ctx, request{
		op:     "auth.recover",
		method: http.MethodPost,
		path:   "/auth/v1/recover",
		query:  q,
		body:   body,
	})
	return err
}

// ExchangeCodeForSession trades a one-time code for a session
// ExchangeCodeForSession 用一次性 code 换取会话
func (c *SupabaseClient) ExchangeCodeForSession(ctx context.Context, code string) (*Session, error) {
	c.mu.Lock()
	verifier, recovery := c.codeVerifier, c.recoveryCode
	c.mu.Unlock()

	s, err := c.tokenGrant(ctx, "auth.exchange", "pkce", map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.codeVerifier, c.recoveryCode = "", false
	c.mu.Unlock()

	event := EventSignedIn
	if recovery {
		event = EventPasswordRecovery
	}
	c.setSession(event, s)
	return s, nil
}

// SetSession installs a session from a token pair taken from a redirect link
// SetSession 使用重定向链接中的令牌对建立会话
func (c *SupabaseClient) SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return nil, &Error{Status: http.StatusBadRequest, Code: "bad_jwt", Message: "Invalid access token"}
	}

	now := c.now()
	if claims.ExpiresAt != nil && !claims.ExpiresAt.Time.After(now) {
		return c.refreshSession(ctx, refreshToken)
	}

	user, err := c.getUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if claims.Subject != "" && user.ID != "" && claims.Subject != user.ID {
		c.logger.Warn("token subject does not match user", zap.String("sub", claims.Subject))
	}

	s := &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		User:         user,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Unix()
		s.ExpiresIn = s.ExpiresAt - now.Unix()
	}
	c.setSession(EventSignedIn, s)
	return s, nil
}

func (c *SupabaseClient) getUser(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.do(ctx, request{
		op:     "auth.user",
		method: http.MethodGet,
		path:   "/auth/v1/user",
		token:  accessToken,
	})
	if err != nil {
		return nil, err
	}
	var u User
	if err := decode("auth.user", resp.body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdatePassword changes the signed in user's password
// UpdatePassword 修改当前登录用户的密码
func (c *SupabaseClient) UpdatePassword(ctx context.Context, password string) (*User, error) {
	s, err := c.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSessionMissing
	}

	resp, err := c.do(ctx, request{
		op:     "auth.update_user",
		method: http.MethodPut,
		path:   "/auth/v1/user",
		body:   map[string]string{"password": password},
		token:  s.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	var u User
	if err := decode("auth.update_user", resp.body, &u); err != nil {
		return nil, err
	}

	updated := *s
	updated.User = &u
	c.setSession(EventUserUpdated, &updated)
	return &u, nil
}

func newCodeVerifier() (string, error) {
	b := make([]byte, 48)
	if _, err := rand.Read(b); err != nil {
		return "", pkgerrors.Wrap(err, "generate code verifier")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// accessToken returns the token for data calls; empty means anonymous
// accessToken 返回数据请求使用的令牌，空字符串表示匿名
func (c *SupabaseClient) accessToken(ctx context.Context) (string, error) {
	s, err := c.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}
	return s.AccessToken, nil
}
