package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAnonKey = "anon-key"

func newTestClient(t *testing.T, h http.HandlerFunc) *SupabaseClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewSupabaseClient(Config{URL: srv.URL, AnonKey: testAnonKey, Timeout: 5 * time.Second}, srv.Client(), nil)
	require.NoError(t, err)
	return c
}

const sessionJSON = `{"access_token":"tok-1","refresh_token":"ref-1","token_type":"bearer","expires_in":3600,
"user":{"id":"u1","email":"a@example.com","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}}`

func TestNoteFilterApply(t *testing.T) {
	q := url.Values{}
	NoteFilter{Search: "  "}.Apply(q)
	assert.Empty(t, q.Get("or"))

	NoteFilter{Search: ` milk, "eggs" `}.Apply(q)
	assert.Equal(t,
		`(title.ilike."*milk, \"eggs\"*",subtitle.ilike."*milk, \"eggs\"*",content.ilike."*milk, \"eggs\"*")`,
		q.Get("or"))
}

func TestParseContentRange(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0-5/42", 42, false},
		{"*/0", 0, false},
		{"0-5/*", 0, true},
		{"", 0, true},
		{"0-5/abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseContentRange(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseError(t *testing.T) {
	e := parseError(400, []byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	assert.Equal(t, "Invalid login credentials", e.Error())

	e = parseError(400, []byte(`{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`))
	assert.Equal(t, "Invalid login credentials", e.Message)
	assert.Equal(t, "invalid_credentials", e.Code)

	e = parseError(406, []byte(`{"code":"PGRST116","details":"The result contains 0 rows","message":"JSON object requested, multiple (or no) rows returned"}`))
	assert.Equal(t, "JSON object requested, multiple (or no) rows returned", e.Error())
	assert.Equal(t, "PGRST116", e.Code)

	e = parseError(502, nil)
	assert.Equal(t, "request failed with status 502", e.Error())
}

func TestSignInThenListUsesAccessToken(t *testing.T) {
	var gotAuth, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testAnonKey, r.Header.Get("apikey"))
		switch r.URL.Path {
		case "/auth/v1/token":
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"email":"a@example.com","password":"secret1"}`, string(body))
			io.WriteString(w, sessionJSON)
		case "/rest/v1/notes":
			gotAuth = r.Header.Get("Authorization")
			gotQuery = r.URL.RawQuery
			io.WriteString(w, `[{"id":"n1","user_id":"u1","title":"Groceries","subtitle":"","content":"milk, eggs",
"created_at":"2024-01-01T10:00:00.123456+00:00","updated_at":"2024-01-01T10:00:00.123456+00:00"}]`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	var events []AuthEvent
	c.OnAuthStateChange(func(e AuthEvent, s *Session) { events = append(events, e) })

	s, err := c.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.User.ID)
	assert.NotZero(t, s.ExpiresAt)
	assert.Equal(t, []AuthEvent{EventSignedIn}, events)

	notes, err := c.ListNotes(context.Background(), NoteFilter{Search: "milk"}, 6, 11)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Groceries", notes[0].Title)
	assert.Equal(t, "Bearer tok-1", gotAuth)

	q, err := url.ParseQuery(gotQuery)
	require.NoError(t, err)
	assert.Equal(t, "6", q.Get("offset"))
	assert.Equal(t, "6", q.Get("limit"))
	assert.Equal(t, "updated_at.desc", q.Get("order"))
	assert.Contains(t, q.Get("or"), `title.ilike."*milk*"`)
}

func TestAnonymousDataCallUsesAnonKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "Bearer "+testAnonKey, r.Header.Get("Authorization"))
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
		w.Header().Set("Content-Range", "*/0")
	})

	n, err := c.CountNotes(context.Background(), NoteFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSignInErrorIsVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`)
	})

	_, err := c.SignIn(context.Background(), "a@example.com", "nope")
	require.Error(t, err)
	assert.Equal(t, "Invalid login credentials", err.Error())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestSignUpWithConfirmationReturnsUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		io.WriteString(w, `{"id":"u9","email":"new@example.com","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}`)
	})

	u, err := c.SignUp(context.Background(), "new@example.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u9", u.ID)

	s, err := c.GetSession(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, s)
}

func TestGetSessionRefreshesExpiredSession(t *testing.T) {
	var mu sync.Mutex
	refreshes := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("grant_type") {
		case "password":
			io.WriteString(w, sessionJSON)
		case "refresh_token":
			mu.Lock()
			refreshes++
			mu.Unlock()
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"refresh_token":"ref-1"}`, string(body))
			io.WriteString(w, `{"access_token":"tok-2","refresh_token":"ref-2","token_type":"bearer","expires_in":3600,"user":{"id":"u1"}}`)
		}
	})

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	var events []AuthEvent
	c.OnAuthStateChange(func(e AuthEvent, s *Session) { events = append(events, e) })

	now = now.Add(2 * time.Hour)
	s, err := c.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", s.AccessToken)
	assert.Equal(t, []AuthEvent{EventTokenRefreshed}, events)
	assert.Equal(t, 1, refreshes)

	s, err = c.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", s.AccessToken)
	assert.Equal(t, 1, refreshes)
}

func TestRejectedRefreshSignsOut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("grant_type") {
		case "password":
			io.WriteString(w, sessionJSON)
		default:
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"msg":"Invalid Refresh Token: Refresh Token Not Found"}`)
		}
	})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	var last AuthEvent
	c.OnAuthStateChange(func(e AuthEvent, s *Session) { last = e })

	now = now.Add(2 * time.Hour)
	s, err := c.GetSession(context.Background())
	assert.Error(t, err)
	assert.Nil(t, s)
	assert.Equal(t, EventSignedOut, last)
	assert.Nil(t, c.currentSession())
}

func TestSignOutTreatsUnauthorizedAsDone(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/logout" {
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"msg":"invalid JWT"}`)
			return
		}
		io.WriteString(w, sessionJSON)
	})

	_, err := c.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	var last AuthEvent
	c.OnAuthStateChange(func(e AuthEvent, s *Session) { last = e })

	require.NoError(t, c.SignOut(context.Background()))
	assert.Equal(t, EventSignedOut, last)
	assert.Nil(t, c.currentSession())
}

func TestSetSessionReadsClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("provider-secret"))
	require.NoError(t, err)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		io.WriteString(w, `{"id":"u1","email":"a@example.com"}`)
	})

	s, err := c.SetSession(context.Background(), token, "ref-9")
	require.NoError(t, err)
	assert.Equal(t, exp.Unix(), s.ExpiresAt)
	assert.Equal(t, "a@example.com", s.User.Email)
	assert.Equal(t, "ref-9", s.RefreshToken)

	_, err = c.SetSession(context.Background(), "not-a-jwt", "ref")
	assert.Error(t, err)
}

func TestPKCERecoveryRoundTrip(t *testing.T) {
	var challenge string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/auth/v1/recover":
			assert.Equal(t, "http://localhost/update-password", r.URL.Query().Get("redirect_to"))
			assert.Contains(t, string(body), `"code_challenge_method":"s256"`)
			challenge = string(body)
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, `{}`)
		case "/auth/v1/token":
			assert.Equal(t, "pkce", r.URL.Query().Get("grant_type"))
			assert.Contains(t, string(body), `"auth_code":"abc"`)
			assert.Contains(t, string(body), `"code_verifier":"`)
			io.WriteString(w, sessionJSON)
		}
	})
	c.cfg.FlowType = FlowPKCE

	require.NoError(t, c.ResetPasswordForEmail(context.Background(), "a@example.com", "http://localhost/update-password"))
	assert.NotEmpty(t, challenge)

	var last AuthEvent
	c.OnAuthStateChange(func(e AuthEvent, s *Session) { last = e })

	s, err := c.ExchangeCodeForSession(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", s.AccessToken)
	assert.Equal(t, EventPasswordRecovery, last)
}

func TestUpdatePasswordRequiresSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	_, err := c.UpdatePassword(context.Background(), "newpass")
	assert.ErrorIs(t, err, ErrSessionMissing)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	calls := 0
	sub1 := c.OnAuthStateChange(func(AuthEvent, *Session) { calls++ })
	sub2 := c.OnAuthStateChange(func(AuthEvent, *Session) { calls += 10 })

	sub1.Unsubscribe()
	sub1.Unsubscribe()
	c.setSession(EventSignedOut, nil)
	assert.Equal(t, 10, calls)

	sub2.Unsubscribe()
	c.setSession(EventSignedOut, nil)
	assert.Equal(t, 10, calls)
}

func TestNewSupabaseClientRejectsRelativeURL(t *testing.T) {
	_, err := NewSupabaseClient(Config{URL: "/relative"}, nil, nil)
	assert.Error(t, err)
}
