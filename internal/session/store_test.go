package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haierkeys/fast-note-web/internal/backend"
	"github.com/haierkeys/fast-note-web/internal/backend/backendtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitReady(t *testing.T, s *Store) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := s.Wait(ctx)
	require.NoError(t, err)
	return st
}

func TestStoreStartsLoading(t *testing.T) {
	s := NewStore(backendtest.NewFake(), nil)
	st := s.State()
	assert.True(t, st.Loading)
	assert.False(t, st.Authenticated)
}

func TestStoreInitialFetch(t *testing.T) {
	f := backendtest.NewFake()
	f.AddUser("a@example.com", "secret1")
	f.SignInAs("a@example.com")

	s := NewStore(f, nil)
	s.Mount(context.Background())
	defer s.Close()

	st := waitReady(t, s)
	assert.False(t, st.Loading)
	assert.True(t, st.Authenticated)
	require.NotNil(t, st.User)
	assert.Equal(t, "a@example.com", st.User.Email)
}

func TestStoreSwallowsFetchError(t *testing.T) {
	f := backendtest.NewFake()
	f.FailOn(backendtest.OpGetSession, errors.New("network down"))

	s := NewStore(f, nil)
	s.Mount(context.Background())
	defer s.Close()

	st := waitReady(t, s)
	assert.False(t, st.Loading)
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.Session)
}

func TestStoreFollowsEventsWithoutReloading(t *testing.T) {
	f := backendtest.NewFake()
	f.AddUser("a@example.com", "secret1")

	s := NewStore(f, nil)
	s.Mount(context.Background())
	defer s.Close()
	waitReady(t, s)

	_, err := f.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)
	st := s.State()
	assert.True(t, st.Authenticated)
	assert.False(t, st.Loading)

	require.NoError(t, f.SignOut(context.Background()))
	st = s.State()
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.User)
	assert.False(t, st.Loading)
}

func TestStoreEventDuringFetchWins(t *testing.T) {
	f := backendtest.NewFake()
	f.AddUser("a@example.com", "secret1")
	gate := f.Block(backendtest.OpGetSession)

	s := NewStore(f, nil)
	s.Mount(context.Background())
	defer s.Close()

	<-gate.Entered
	f.SignInAs("a@example.com")
	assert.True(t, s.State().Authenticated)
	assert.True(t, s.State().Loading)

	// the fetch result is older than the event
	require.NoError(t, f.SignOut(context.Background()))
	f.SignInAs("a@example.com")
	gate.Release()

	st := waitReady(t, s)
	assert.True(t, st.Authenticated)
}

func TestStoreIgnoresEventsAfterClose(t *testing.T) {
	f := backendtest.NewFake()
	f.AddUser("a@example.com", "secret1")

	s := NewStore(f, nil)
	s.Mount(context.Background())
	waitReady(t, s)
	assert.Equal(t, 1, f.Listeners())

	s.Close()
	s.Close()
	assert.Equal(t, 0, f.Listeners())

	f.SignInAs("a@example.com")
	assert.False(t, s.State().Authenticated)
}

func TestStoreDropsFetchAfterClose(t *testing.T) {
	f := backendtest.NewFake()
	f.AddUser("a@example.com", "secret1")
	f.SignInAs("a@example.com")
	gate := f.Block(backendtest.OpGetSession)

	s := NewStore(f, nil)
	s.Mount(context.Background())
	<-gate.Entered
	s.Close()
	gate.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	st, err := s.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, st.Loading)
	assert.False(t, st.Authenticated)
}

func TestStoreMountTwice(t *testing.T) {
	f := backendtest.NewFake()
	s := NewStore(f, nil)
	s.Mount(context.Background())
	s.Mount(context.Background())
	defer s.Close()
	waitReady(t, s)
	assert.Equal(t, 1, f.Listeners())
	assert.Equal(t, 1, f.Calls(backendtest.OpGetSession))
}

var _ AuthSource = (backend.Client)(nil)
