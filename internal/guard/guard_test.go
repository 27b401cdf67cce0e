package guard

import (
	"testing"

	"github.com/haierkeys/fast-note-web/internal/backend"
	"github.com/haierkeys/fast-note-web/internal/session"

	"github.com/stretchr/testify/assert"
)

func authed() session.State {
	s := &backend.Session{AccessToken: "tok", User: &backend.User{ID: "u1"}}
	return session.State{Session: s, User: s.User, Authenticated: true}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		variant Variant
		state   session.State
		want    Decision
	}{
		{"wrapper loading", Wrapper, session.State{Loading: true}, Decision{Outcome: Redirect, To: "/login", Replace: true}},
		{"nested loading", Nested, session.State{Loading: true}, Decision{Outcome: Placeholder}},
		{"wrapper authed", Wrapper, authed(), Decision{Outcome: Render}},
		{"nested authed", Nested, authed(), Decision{Outcome: Render}},
		{"wrapper anonymous", Wrapper, session.State{}, Decision{Outcome: Redirect, To: "/login", Replace: true}},
		{"nested anonymous", Nested, session.State{}, Decision{Outcome: Redirect, To: "/login", Replace: true, From: "/dashboard?page=2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.variant, tt.state, "/dashboard?page=2"))
		})
	}
}

func TestDecisionLocation(t *testing.T) {
	assert.Equal(t, "/login", Decision{Outcome: Redirect, To: "/login"}.Location())
	assert.Equal(t, "/login?from=%2Fnotes%2Fn1%3Fmode%3Dview",
		Decision{Outcome: Redirect, To: "/login", From: "/notes/n1?mode=view"}.Location())
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "nested", Nested.String())
	assert.Equal(t, "wrapper", Wrapper.String())
	assert.Equal(t, "placeholder", Placeholder.String())
	assert.Equal(t, "redirect", Redirect.String())
}
