// Package backendtest provides an in-memory backend.Client for tests
// Package backendtest 提供测试用的内存版 backend.Client
package backendtest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/fast-note-web/internal/backend"
)

// Operation names accepted by FailOn and Block
// FailOn 与 Block 接受的操作名
const (
	OpSignUp         = "signup"
	OpSignIn         = "signin"
	OpSignOut        = "signout"
	OpGetSession     = "session"
	OpReset          = "reset"
	OpExchange       = "exchange"
	OpSetSession     = "setsession"
	OpUpdatePassword = "updatepassword"
	OpCount          = "count"
	OpList           = "list"
	OpGet            = "get"
	OpInsert         = "insert"
	OpUpdate         = "update"
	OpDelete         = "delete"
)

type account struct {
	user     backend.User
	password string
}

// Gate holds the next call of one operation until released
// Gate 拦住某操作的下一次调用直到放行
type Gate struct {
	Entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// Release lets the held call continue
// Release 放行被拦住的调用
func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

// Fake is an in-memory provider emulating row level security on notes
// Fake 内存版后端，对 notes 模拟行级安全策略
type Fake struct {
	mu        sync.Mutex
	accounts  map[string]*account
	notes     map[string]*backend.Note
	tokens    map[string]string
	codes     map[string]string
	session   *backend.Session
	listeners []fakeListener
	nextID    int
	clock     time.Time

	// ConfirmEmail makes SignUp return a user without signing in
	ConfirmEmail bool
	// SignUpNoUser makes SignUp return neither user nor error
	SignUpNoUser bool

	fail  map[string]error
	gates map[string]*Gate
	calls map[string]int

	// ResetRequests records email -> redirect of every reset request
	ResetRequests map[string]string
}

type fakeListener struct {
	id int
	fn backend.AuthChangeFunc
}

type fakeSubscription struct {
	once sync.Once
	f    *Fake
	id   int
}

func (s *fakeSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.f.mu.Lock()
		defer s.f.mu.Unlock()
		for i, l := range s.f.listeners {
			if l.id == s.id {
				s.f.listeners = append(s.f.listeners[:i:i], s.f.listeners[i+1:]...)
				return
			}
		}
	})
}

func NewFake() *Fake {
	return &Fake{
		accounts:      map[string]*account{},
		notes:         map[string]*backend.Note{},
		tokens:        map[string]string{},
		codes:         map[string]string{},
		fail:          map[string]error{},
		gates:         map[string]*Gate{},
		calls:         map[string]int{},
		ResetRequests: map[string]string{},
		clock:         time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// Factory returns a backend.Factory that always hands out f
// Factory 返回始终返回 f 的工厂
func (f *Fake) Factory() backend.Factory {
	return func() backend.Client { return f }
}

// AddUser creates a confirmed account
// AddUser 创建已确认的账号
func (f *Fake) AddUser(email, password string) backend.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUserLocked(email, password)
}

func (f *Fake) addUserLocked(email, password string) backend.User {
	f.nextID++
	u := backend.User{
		ID:        fmt.Sprintf("user-%d", f.nextID),
		Email:     email,
		CreatedAt: f.tick(),
	}
	u.UpdatedAt = u.CreatedAt
	f.accounts[email] = &account{user: u, password: password}
	return u
}

// SeedNote inserts a row directly; later seeds have a newer updated_at
// SeedNote 直接插入一行，后插入的 updated_at 更新
func (f *Fake) SeedNote(userID, title, subtitle, content string) backend.Note {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.insertLocked(backend.NoteInsert{UserID: userID, Title: title, Subtitle: subtitle, Content: content})
}

// Note reads a row ignoring row level security
// Note 忽略行级安全读取一行
func (f *Fake) Note(id string) (backend.Note, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	if !ok {
		return backend.Note{}, false
	}
	return *n, true
}

// NoteCount returns the number of stored rows
// NoteCount 存储的总行数
func (f *Fake) NoteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notes)
}

// SignInAs installs a session for email and emits SIGNED_IN
// SignInAs 为 email 建立会话并发出 SIGNED_IN
func (f *Fake) SignInAs(email string) *backend.Session {
	f.mu.Lock()
	a, ok := f.accounts[email]
	if !ok {
		f.mu.Unlock()
		panic("backendtest: unknown user " + email)
	}
	s := f.newSessionLocked(a.user)
	f.mu.Unlock()
	f.emit(backend.EventSignedIn, s)
	return s
}

// IssueRecoveryCode returns a one-time code exchangeable for a session of email
// IssueRecoveryCode 返回可换取 email 会话的一次性 code
func (f *Fake) IssueRecoveryCode(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	code := fmt.Sprintf("code-%d", f.nextID)
	f.codes[code] = email
	return code
}

// IssueRecoveryTokens returns an access/refresh pair accepted by SetSession
// IssueRecoveryTokens 返回 SetSession 可接受的令牌对
func (f *Fake) IssueRecoveryTokens(email string) (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	access := fmt.Sprintf("access-%d", f.nextID)
	f.tokens[access] = email
	return access, fmt.Sprintf("refresh-%d", f.nextID)
}

// Password returns the stored password of email
// Password 返回 email 当前的密码
func (f *Fake) Password(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[email]; ok {
		return a.password
	}
	return ""
}

// FailOn makes every call of op return err until cleared with a nil err
// FailOn 使 op 的每次调用都返回 err，传入 nil 清除
func (f *Fake) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = err
}

// Block holds the next call of op until the returned gate is released
// Block 拦住 op 的下一次调用，直到返回的 Gate 被放行
func (f *Fake) Block(op string) *Gate {
	g := &Gate{Entered: make(chan struct{}), release: make(chan struct{})}
	f.mu.Lock()
	f.gates[op] = g
	f.mu.Unlock()
	return g
}

// Calls reports how many times op was invoked
// Calls 返回 op 被调用的次数
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// begin counts the call, waits on a pending gate and returns the injected error
func (f *Fake) begin(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	g := f.gates[op]
	delete(f.gates, op)
	f.mu.Unlock()

	if g != nil {
		close(g.Entered)
		select {
		case <-g.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[op]
}

func (f *Fake) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *Fake) newSessionLocked(u backend.User) *backend.Session {
	f.nextID++
	access := fmt.Sprintf("access-%d", f.nextID)
	f.tokens[access] = u.Email
	user := u
	s := &backend.Session{
		AccessToken:  access,
		RefreshToken: fmt.Sprintf("refresh-%d", f.nextID),
		TokenType:    "bearer",
		ExpiresIn:    3600,
		ExpiresAt:    f.clock.Add(time.Hour).Unix(),
		User:         &user,
	}
	f.session = s
	return s
}

func (f *Fake) emit(event backend.AuthEvent, s *backend.Session) {
	f.mu.Lock()
	ls := make([]fakeListener, len(f.listeners))
	copy(ls, f.listeners)
	f.mu.Unlock()
	for _, l := range ls {
		l.fn(event, s)
	}
}

func (f *Fake) OnAuthStateChange(fn backend.AuthChangeFunc) backend.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.listeners = append(f.listeners, fakeListener{id: f.nextID, fn: fn})
	return &fakeSubscription{f: f, id: f.nextID}
}

// Listeners reports the number of live subscriptions
// Listeners 当前订阅数量
func (f *Fake) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *Fake) SignUp(ctx context.Context, email, password string) (*backend.User, error) {
	if err := f.begin(ctx, OpSignUp); err != nil {
		return nil, err
	}
	f.mu.Lock()
	if _, ok := f.accounts[email]; ok {
		f.mu.Unlock()
		return nil, &backend.Error{Status: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered"}
	}
	if f.SignUpNoUser {
		f.mu.Unlock()
		return nil, nil
	}
	u := f.addUserLocked(email, password)
	if f.ConfirmEmail {
		f.mu.Unlock()
		return &u, nil
	}
	s := f.newSessionLocked(u)
	f.mu.Unlock()
	f.emit(backend.EventSignedIn, s)
	return &u, nil
}

func (f *Fake) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	if err := f.begin(ctx, OpSignIn); err != nil {
		return nil, err
	}
	f.mu.Lock()
	a, ok := f.accounts[email]
	if !ok || a.password != password {
		f.mu.Unlock()
		return nil, &backend.Error{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	s := f.newSessionLocked(a.user)
	f.mu.Unlock()
	f.emit(backend.EventSignedIn, s)
	return s, nil
}

func (f *Fake) SignOut(ctx context.Context) error {
	if err := f.begin(ctx, OpSignOut); err != nil {
		return err
	}
	f.mu.Lock()
	f.session = nil
	f.mu.Unlock()
	f.emit(backend.EventSignedOut, nil)
	return nil
}

func (f *Fake) GetSession(ctx context.Context) (*backend.Session, error) {
	if err := f.begin(ctx, OpGetSession); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, nil
}

func (f *Fake) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	if err := f.begin(ctx, OpReset); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ResetRequests[email] = redirectTo
	return nil
}

func (f *Fake) ExchangeCodeForSession(ctx context.Context, code string) (*backend.Session, error) {
	if err := f.begin(ctx, OpExchange); err != nil {
		return nil, err
	}
	f.mu.Lock()
	email, ok := f.codes[code]
	if !ok {
		f.mu.Unlock()
		return nil, &backend.Error{Status: http.StatusForbidden, Code: "flow_state_not_found", Message: "invalid flow state, no valid flow state found"}
	}
	delete(f.codes, code)
	s := f.newSessionLocked(f.accounts[email].user)
	f.mu.Unlock()
	f.emit(backend.EventPasswordRecovery, s)
	return s, nil
}

func (f *Fake) SetSession(ctx context.Context, accessToken, refreshToken string) (*backend.Session, error) {
	if err := f.begin(ctx, OpSetSession); err != nil {
		return nil, err
	}
	f.mu.Lock()
	email, ok := f.tokens[accessToken]
	if !ok {
		f.mu.Unlock()
		return nil, &backend.Error{Status: http.StatusUnauthorized, Code: "bad_jwt", Message: "invalid JWT: unable to parse or verify signature"}
	}
	user := f.accounts[email].user
	s := &backend.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    3600,
		ExpiresAt:    f.clock.Add(time.Hour).Unix(),
		User:         &user,
	}
	f.session = s
	f.mu.Unlock()
	f.emit(backend.EventSignedIn, s)
	return s, nil
}

func (f *Fake) UpdatePassword(ctx context.Context, password string) (*backend.User, error) {
	if err := f.begin(ctx, OpUpdatePassword); err != nil {
		return nil, err
	}
	f.mu.Lock()
	if f.session == nil {
		f.mu.Unlock()
		return nil, backend.ErrSessionMissing
	}
	a := f.accounts[f.session.User.Email]
	a.password = password
	a.user.UpdatedAt = f.tick()
	u := a.user
	s := *f.session
	s.User = &u
	f.session = &s
	f.mu.Unlock()
	f.emit(backend.EventUserUpdated, &s)
	return &u, nil
}

// ownerLocked is the user id row level security checks against
func (f *Fake) ownerLocked() string {
	if f.session == nil || f.session.User == nil {
		return ""
	}
	return f.session.User.ID
}

func (f *Fake) visibleLocked(filter backend.NoteFilter) []backend.Note {
	owner := f.ownerLocked()
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []backend.Note
	for _, n := range f.notes {
		if owner == "" || n.UserID != owner {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(n.Title), term) &&
			!strings.Contains(strings.ToLower(n.Subtitle), term) &&
			!strings.Contains(strings.ToLower(n.Content), term) {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (f *Fake) CountNotes(ctx context.Context, filter backend.NoteFilter) (int, error) {
	if err := f.begin(ctx, OpCount); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visibleLocked(filter)), nil
}

func (f *Fake) ListNotes(ctx context.Context, filter backend.NoteFilter, from, to int) ([]backend.Note, error) {
	if err := f.begin(ctx, OpList); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.visibleLocked(filter)
	if from >= len(all) {
		return []backend.Note{}, nil
	}
	if to >= len(all) {
		to = len(all) - 1
	}
	return append([]backend.Note{}, all[from:to+1]...), nil
}

func notFound() error {
	return &backend.Error{Status: http.StatusNotAcceptable, Code: "PGRST116", Message: "JSON object requested, multiple (or no) rows returned"}
}

func (f *Fake) GetNote(ctx context.Context, id string) (*backend.Note, error) {
	if err := f.begin(ctx, OpGet); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	if !ok || n.UserID != f.ownerLocked() {
		return nil, notFound()
	}
	out := *n
	return &out, nil
}

func (f *Fake) insertLocked(in backend.NoteInsert) *backend.Note {
	f.nextID++
	now := f.tick()
	n := &backend.Note{
		ID:        fmt.Sprintf("note-%03d", f.nextID),
		UserID:    in.UserID,
		Title:     in.Title,
		Subtitle:  in.Subtitle,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.notes[n.ID] = n
	return n
}

func (f *Fake) InsertNote(ctx context.Context, in backend.NoteInsert) (*backend.Note, error) {
	if err := f.begin(ctx, OpInsert); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if owner := f.ownerLocked(); owner == "" || owner != in.UserID {
		return nil, &backend.Error{Status: http.StatusForbidden, Code: "42501", Message: `new row violates row-level security policy for table "notes"`}
	}
	out := *f.insertLocked(in)
	return &out, nil
}

func (f *Fake) UpdateNote(ctx context.Context, id string, p backend.NotePatch) (*backend.Note, error) {
	if err := f.begin(ctx, OpUpdate); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	if !ok || n.UserID != f.ownerLocked() {
		return nil, notFound()
	}
	n.Title, n.Subtitle, n.Content = p.Title, p.Subtitle, p.Content
	n.UpdatedAt = f.tick()
	out := *n
	return &out, nil
}

func (f *Fake) DeleteNote(ctx context.Context, id string) error {
	if err := f.begin(ctx, OpDelete); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.notes[id]; ok && n.UserID == f.ownerLocked() {
		delete(f.notes, id)
	}
	return nil
}

var _ backend.Client = (*Fake)(nil)
