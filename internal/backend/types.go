// Package backend is the typed client for the hosted auth and data provider.
// Package backend 托管认证与数据服务的类型化客户端
package backend

import (
	"context"
	"time"
)

// User is the provider's user record
// User 认证服务中的用户记录
type User struct {
	ID               string                 `json:"id"`
	Aud              string                 `json:"aud,omitempty"`
	Role             string                 `json:"role,omitempty"`
	Email            string                 `json:"email"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	UserMetadata     map[string]interface{} `json:"user_metadata,omitempty"`
}

// Session is the provider token bundle
// Session 认证服务颁发的令牌集合
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	// ExpiresAt unix seconds
	// ExpiresAt Unix 秒
	ExpiresAt int64 `json:"expires_at"`
	User      *User `json:"user"`
}

// Expired reports whether the access token expires within margin of now
// Expired 判断访问令牌是否会在 now+margin 之前过期
func (s *Session) Expired(now time.Time, margin time.Duration) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt == 0 {
		return false
	}
	return now.Add(margin).Unix() >= s.ExpiresAt
}

// Note is one row of the notes table
// Note notes 表中的一行
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteInsert is the payload of a new row; id and timestamps are assigned by the provider
// NoteInsert 新增行的数据，id 与时间戳由服务端生成
type NoteInsert struct {
	UserID   string `json:"user_id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Content  string `json:"content"`
}

// NotePatch holds the mutable columns
// NotePatch 可修改的列
type NotePatch struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Content  string `json:"content"`
}

// NoteFilter narrows count and list queries
// NoteFilter 计数与列表查询的过滤条件
type NoteFilter struct {
	// Search is matched case-insensitively against title, subtitle and content
	// Search 对 title、subtitle、content 做不区分大小写的子串匹配
	Search string
}

// AuthEvent names an auth-state change
// AuthEvent 认证状态变化事件
type AuthEvent string

const (
	EventInitialSession   AuthEvent = "INITIAL_SESSION"
	EventSignedIn         AuthEvent = "SIGNED_IN"
	EventSignedOut        AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed   AuthEvent = "TOKEN_REFRESHED"
	EventUserUpdated      AuthEvent = "USER_UPDATED"
	EventPasswordRecovery AuthEvent = "PASSWORD_RECOVERY"
)

// AuthChangeFunc receives auth-state changes; session is nil after sign out
// AuthChangeFunc 接收认证状态变化，登出后 session 为 nil
type AuthChangeFunc func(event AuthEvent, session *Session)

// Subscription is returned by OnAuthStateChange
// Subscription 订阅句柄
type Subscription interface {
	// Unsubscribe is idempotent
	// Unsubscribe 可重复调用
	Unsubscribe()
}

// AuthClient covers the identity operations
// AuthClient 认证相关操作
type AuthClient interface {
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*Session, error)
	OnAuthStateChange(fn AuthChangeFunc) Subscription
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	ExchangeCodeForSession(ctx context.Context, code string) (*Session, error)
	SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error)
	UpdatePassword(ctx context.Context, password string) (*User, error)
}

// NoteStore covers the notes table
// NoteStore notes 表相关操作
type NoteStore interface {
	CountNotes(ctx context.Context, f NoteFilter) (int, error)
	// ListNotes returns rows from..to inclusive ordered by updated_at desc
	// ListNotes 返回第 from 到 to 行（含），按 updated_at 倒序
	ListNotes(ctx context.Context, f NoteFilter, from, to int) ([]Note, error)
	GetNote(ctx context.Context, id string) (*Note, error)
	InsertNote(ctx context.Context, n NoteInsert) (*Note, error)
	UpdateNote(ctx context.Context, id string, p NotePatch) (*Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// Client is one browser's view of the provider; it holds that browser's session
// Client 单个浏览器对应的后端客户端，持有该浏览器的会话
type Client interface {
	AuthClient
	NoteStore
}

// Factory builds a fresh client per workspace
// Factory 为每个工作区创建新的客户端
type Factory func() Client
