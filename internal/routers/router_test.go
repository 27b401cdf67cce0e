package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haierkeys/fast-note-web/internal/app"
	"github.com/haierkeys/fast-note-web/internal/backend/backendtest"
	"github.com/haierkeys/fast-note-web/pkg/code"
	"github.com/haierkeys/fast-note-web/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.RegisterCustom()
}

type envelope struct {
	Code    int                    `json:"code"`
	Status  bool                   `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

// browser replays the workspace cookie like a real browser would
type browser struct {
	t      *testing.T
	engine *gin.Engine
	app    *app.App
	cookie *http.Cookie
}

func newBrowser(t *testing.T, f *backendtest.Fake) *browser {
	t.Helper()
	cfg, err := app.ParseConfig([]byte("backend:\n  url: http://localhost\n"))
	require.NoError(t, err)

	a, err := app.NewApp(cfg, zap.NewNop(), f.Factory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	b := &browser{t: t, engine: NewRouter(a, nil), app: a}

	// open a workspace and wait for its session store
	b.do(http.MethodGet, "/api/session", nil)
	require.NotNil(t, b.cookie)
	ws, ok := a.Workspaces.Get(b.cookie.Value)
	require.True(t, ok)
	_, err = ws.Session().Wait(context.Background())
	require.NoError(t, err)
	return b
}

func (b *browser) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	b.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(b.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	w := httptest.NewRecorder()
	b.engine.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == "fast-note-web-workspace" {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) call(method, path string, body interface{}) envelope {
	b.t.Helper()
	w := b.do(method, path, body)
	var e envelope
	require.NoError(b.t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e
}

func TestUnmatchedRouteRedirectsHome(t *testing.T) {
	b := newBrowser(t, backendtest.NewFake())
	w := b.do(http.MethodGet, "/does/not/exist", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestRegisterThenHome(t *testing.T) {
	f := backendtest.NewFake()
	b := newBrowser(t, f)

	e := b.call(http.MethodPost, "/register", gin.H{"email": "a@example.com", "password": "secret1", "confirmPassword": "nope"})
	assert.Equal(t, code.ErrorPasswordNotMatch.Code(), e.Code)
	assert.Equal(t, 0, f.Calls(backendtest.OpSignUp))

	e = b.call(http.MethodPost, "/register", gin.H{"email": "a@example.com", "password": "secret1", "confirmPassword": "secret1"})
	require.Equal(t, code.Success.Code(), e.Code, e.Message)
	assert.Equal(t, "Registration successful! You can now login.", e.Data["message"])

	e = b.call(http.MethodGet, "/", nil)
	assert.Equal(t, true, e.Data["authenticated"])
	assert.Equal(t, "a@example.com", e.Data["email"])
}

func TestRegisterInvalidEmail(t *testing.T) {
	b := newBrowser(t, backendtest.NewFake())
	e := b.call(http.MethodPost, "/register", gin.H{"email": "nope", "password": "secret1", "confirmPassword": "secret1"})
	assert.Equal(t, code.ErrorInvalidParams.Code(), e.Code)
}

func TestLoginFailureKeepsProviderMessage(t *testing.T) {
	f := backendtest.NewFake()
	f.AddUser("a@example.com", "secret1")
	b := newBrowser(t, f)

	e := b.call(http.MethodPost, "/login", gin.H{"email": "a@example.com", "password": "wrong"})
	assert.Equal(t, code.ErrorAuthProvider.Code(), e.Code)
	assert.Equal(t, "Invalid login credentials", e.Message)

	e = b.call(http.MethodPost, "/login", gin.H{"email": "a@example.com", "password": "secret1"})
	require.Equal(t, code.Success.Code(), e.Code)
	assert.Equal(t, "/dashboard", e.Data["redirect"])
}

func TestLogoutTearsDownViews(t *testing.T) {
	f := backendtest.NewFake()
	u := f.AddUser("a@example.com", "secret1")
	n := f.SeedNote(u.ID, "Groceries", "", "milk")
	f.SignInAs("a@example.com")
	b := newBrowser(t, f)

	e := b.call(http.MethodGet, "/notes/"+n.ID, nil)
	require.Equal(t, code.Success.Code(), e.Code, e.Message)

	e = b.call(http.MethodPost, "/logout", nil)
	require.Equal(t, code.Success.Code(), e.Code)
	assert.Equal(t, "/login", e.Data["redirect"])

	ws, ok := b.app.Workspaces.Get(b.cookie.Value)
	require.True(t, ok)
	_, mounted := ws.Editor(n.ID)
	assert.False(t, mounted)

	e = b.call(http.MethodGet, "/", nil)
	assert.Equal(t, false, e.Data["authenticated"])
}

func TestForgotPasswordUsesRequestOrigin(t *testing.T) {
	f := backendtest.NewFake()
	f.AddUser("a@example.com", "secret1")
	b := newBrowser(t, f)

	e := b.call(http.MethodPost, "/forgot-password", gin.H{"email": "a@example.com"})
	require.Equal(t, code.Success.Code(), e.Code)
	assert.Equal(t, "http://example.com/update-password", f.ResetRequests["a@example.com"])
}

func TestDashboardRequiresSession(t *testing.T) {
	b := newBrowser(t, backendtest.NewFake())
	e := b.call(http.MethodGet, "/dashboard?page=2", nil)
	assert.Equal(t, code.ErrorNotAuthenticated.Code(), e.Code)
	assert.Equal(t, "/login?from=%2Fdashboard%3Fpage%3D2", e.Data["redirect"])
}

func TestDashboardListSearchAndDelete(t *testing.T) {
	f := backendtest.NewFake()
	u := f.AddUser("a@example.com", "secret1")
	f.SeedNote(u.ID, "Groceries", "", "milk")
	keep := f.SeedNote(u.ID, "Trip", "Lisbon", "")
	f.SignInAs("a@example.com")
	b := newBrowser(t, f)

	e := b.call(http.MethodGet, "/dashboard", nil)
	require.Equal(t, code.Success.Code(), e.Code, e.Message)
	assert.EqualValues(t, 2, e.Data["count"])

	e = b.call(http.MethodPost, "/dashboard/search", gin.H{"search": "groc"})
	require.Equal(t, code.Success.Code(), e.Code)
	assert.EqualValues(t, 1, e.Data["count"])
	assert.EqualValues(t, 1, e.Data["page"])

	e = b.call(http.MethodPost, "/dashboard/search", gin.H{"search": ""})
	require.Equal(t, code.Success.Code(), e.Code)

	f.FailOn(backendtest.OpDelete, errors.New("permission denied"))
	e = b.call(http.MethodDelete, "/dashboard/notes/"+keep.ID, nil)
	assert.Equal(t, code.ErrorNoteDeleteFailed.Code(), e.Code)
	assert.Equal(t, "permission denied", e.Message)
	assert.EqualValues(t, 2, e.Data["count"])

	f.FailOn(backendtest.OpDelete, nil)
	e = b.call(http.MethodDelete, "/dashboard/notes/"+keep.ID, nil)
	require.Equal(t, code.Success.Code(), e.Code)
	assert.EqualValues(t, 1, e.Data["count"])
	_, ok := f.Note(keep.ID)
	assert.False(t, ok)
}

func TestCreateNote(t *testing.T) {
	f := backendtest.NewFake()
	f.AddUser("a@example.com", "secret1")
	f.SignInAs("a@example.com")
	b := newBrowser(t, f)

	e := b.call(http.MethodGet, "/create", nil)
	require.Equal(t, code.Success.Code(), e.Code)
	assert.EqualValues(t, 80, e.Data["titleMax"])

	e = b.call(http.MethodPost, "/create", gin.H{"title": " ", "content": "\n"})
	assert.Equal(t, code.ErrorNoteEmpty.Code(), e.Code)
	assert.Equal(t, 0, f.NoteCount())

	e = b.call(http.MethodPost, "/create", gin.H{"content": "milk"})
	require.Equal(t, code.Success.Code(), e.Code, e.Message)
	assert.Equal(t, "/dashboard", e.Data["redirect"])
	assert.Equal(t, 1, f.NoteCount())
}

func TestEditorRoundTrip(t *testing.T) {
	f := backendtest.NewFake()
	u := f.AddUser("a@example.com", "secret1")
	n := f.SeedNote(u.ID, "Groceries", "", "milk")
	f.SignInAs("a@example.com")
	b := newBrowser(t, f)
	base := "/notes/" + n.ID

	e := b.call(http.MethodPost, base+"/edit", nil)
	assert.Equal(t, code.ErrorNoteNotMounted.Code(), e.Code)

	e = b.call(http.MethodGet, base+"?mode=view", nil)
	require.Equal(t, code.Success.Code(), e.Code, e.Message)
	assert.Equal(t, "view", e.Data["mode"])

	e = b.call(http.MethodPost, base+"/input", gin.H{"field": "content", "value": "eggs"})
	assert.Equal(t, code.ErrorNoteNotEditing.Code(), e.Code)

	e = b.call(http.MethodPost, base+"/save", nil)
	assert.Equal(t, code.ErrorNoteNotDirty.Code(), e.Code)

	e = b.call(http.MethodPost, base+"/keydown", gin.H{"key": "!"})
	require.Equal(t, code.Success.Code(), e.Code)
	assert.Equal(t, "edit", e.Data["mode"])
	assert.Equal(t, "milk!", e.Data["content"])
	assert.Equal(t, base, e.Data["location"])

	e = b.call(http.MethodPost, base+"/input", gin.H{"field": "title", "value": "  "})
	require.Equal(t, code.Success.Code(), e.Code)

	e = b.call(http.MethodPost, base+"/save", nil)
	require.Equal(t, code.Success.Code(), e.Code, e.Message)
	assert.Equal(t, "view", e.Data["mode"])
	assert.Equal(t, "Saved.", e.Data["message"])

	stored, ok := f.Note(n.ID)
	require.True(t, ok)
	assert.Equal(t, "Untitled", stored.Title)
	assert.Equal(t, "milk!", stored.Content)
}

func TestEditorDelete(t *testing.T) {
	f := backendtest.NewFake()
	u := f.AddUser("a@example.com", "secret1")
	n := f.SeedNote(u.ID, "Groceries", "", "milk")
	f.SignInAs("a@example.com")
	b := newBrowser(t, f)
	base := "/notes/" + n.ID

	b.call(http.MethodGet, base, nil)

	e := b.call(http.MethodPost, base+"/delete/request", nil)
	require.Equal(t, code.Success.Code(), e.Code)
	assert.Equal(t, true, e.Data["confirmDelete"])

	e = b.call(http.MethodPost, base+"/delete/dismiss", nil)
	assert.Equal(t, false, e.Data["confirmDelete"])

	e = b.call(http.MethodPost, base+"/delete/confirm", nil)
	assert.Equal(t, code.ErrorNoteDeleteNotAsk.Code(), e.Code)
	assert.Equal(t, 1, f.NoteCount())

	b.call(http.MethodPost, base+"/delete/request", nil)
	e = b.call(http.MethodPost, base+"/delete/confirm", nil)
	require.Equal(t, code.Success.Code(), e.Code, e.Message)
	assert.Equal(t, "/dashboard", e.Data["redirect"])
	assert.Equal(t, 0, f.NoteCount())
}

func TestRecoveryWithCode(t *testing.T) {
	f := backendtest.NewFake()
	f.AddUser("a@example.com", "secret1")
	b := newBrowser(t, f)

	e := b.call(http.MethodPost, "/update-password", gin.H{"password": "newpass1", "confirmPassword": "newpass1"})
	assert.Equal(t, code.ErrorRecoveryNotStarted.Code(), e.Code)

	e = b.call(http.MethodGet, "/update-password?code="+f.IssueRecoveryCode("a@example.com"), nil)
	require.Equal(t, code.Success.Code(), e.Code)
	assert.Equal(t, "ready", e.Data["status"])
	assert.Equal(t, "/update-password", e.Data["cleanUrl"])

	e = b.call(http.MethodPost, "/update-password", gin.H{"password": "newpass1", "confirmPassword": "newpass2"})
	assert.Equal(t, code.ErrorPasswordNotMatch.Code(), e.Code)

	e = b.call(http.MethodPost, "/update-password", gin.H{"password": "newpass1", "confirmPassword": "newpass1"})
	require.Equal(t, code.Success.Code(), e.Code, e.Message)
	assert.Equal(t, "success", e.Data["status"])
	assert.Equal(t, "/login", e.Data["redirect"])
	assert.Equal(t, "newpass1", f.Password("a@example.com"))
}

func TestRecoveryCheckFragment(t *testing.T) {
	f := backendtest.NewFake()
	f.AddUser("a@example.com", "secret1")
	b := newBrowser(t, f)

	e := b.call(http.MethodPost, "/update-password/check", gin.H{"url": "http://example.com/update-password#error_description=Email+link+is+invalid+or+has+expired"})
	require.Equal(t, code.Success.Code(), e.Code)
	assert.Equal(t, "expired", e.Data["status"])

	access, refresh := f.IssueRecoveryTokens("a@example.com")
	e = b.call(http.MethodPost, "/update-password/check", gin.H{"url": "http://example.com/update-password#type=recovery&access_token=" + access + "&refresh_token=" + refresh})
	require.Equal(t, code.Success.Code(), e.Code)
	assert.Equal(t, "ready", e.Data["status"])

	e = b.call(http.MethodPost, "/update-password/check", gin.H{"url": "   "})
	assert.Equal(t, code.ErrorInvalidParams.Code(), e.Code)
}

func TestPrivateRouter(t *testing.T) {
	r := NewPrivateRouterWithLogger("release", zap.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "memstats")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, DefaultPrefix+"/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
