package service

import (
	"context"
	"testing"

	"github.com/haierkeys/fast-note-web/internal/backend"
	"github.com/haierkeys/fast-note-web/internal/backend/backendtest"
	"github.com/haierkeys/fast-note-web/internal/dto"
	"github.com/haierkeys/fast-note-web/pkg/code"
	apperrors "github.com/haierkeys/fast-note-web/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAccountService(cfg *ServiceConfig) AccountService {
	return NewAccountService(zap.NewNop(), cfg)
}

func TestRegisterValidatesBeforeCallingProvider(t *testing.T) {
	f := backendtest.NewFake()
	svc := newAccountService(nil)

	_, err := svc.Register(context.Background(), f, &dto.UserRegisterRequest{Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret2"})
	assert.ErrorIs(t, err, code.ErrorPasswordNotMatch)

	_, err = svc.Register(context.Background(), f, &dto.UserRegisterRequest{Email: "a@example.com", Password: "abc", ConfirmPassword: "abc"})
	assert.ErrorIs(t, err, code.ErrorPasswordTooShort)

	assert.Equal(t, 0, f.Calls(backendtest.OpSignUp))
}

func TestRegisterMessages(t *testing.T) {
	tests := []struct {
		name        string
		noUser      bool
		wantMessage string
		wantUser    bool
	}{
		{name: "user returned", wantMessage: MsgRegistered, wantUser: true},
		{name: "confirmation pending", noUser: true, wantMessage: MsgConfirmEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := backendtest.NewFake()
			f.SignUpNoUser = tt.noUser
			res, err := newAccountService(nil).Register(context.Background(), f,
				&dto.UserRegisterRequest{Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret1"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantMessage, res.Message)
			assert.Equal(t, tt.wantUser, res.User != nil)
		})
	}
}

func TestRegisterProviderErrorVerbatim(t *testing.T) {
	f := backendtest.NewFake()
	f.AddUser("a@example.com", "secret1")

	_, err := newAccountService(nil).Register(context.Background(), f,
		&dto.UserRegisterRequest{Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret1"})
	require.Error(t, err)

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, code.ErrorAuthProvider.Code(), appErr.Code)
	assert.Equal(t, "User already registered", appErr.Message)
}

func TestRegisterHonoursConfiguredMinimum(t *testing.T) {
	f := backendtest.NewFake()
	svc := newAccountService(&ServiceConfig{Auth: AuthServiceConfig{PasswordMinLength: 10}})

	_, err := svc.Register(context.Background(), f, &dto.UserRegisterRequest{Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret1"})
	assert.ErrorIs(t, err, code.ErrorPasswordTooShort)
}

func TestLogin(t *testing.T) {
	f := backendtest.NewFake()
	f.AddUser("a@example.com", "secret1")
	svc := newAccountService(nil)

	_, err := svc.Login(context.Background(), f, &dto.UserLoginRequest{Email: "a@example.com", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, "Invalid login credentials", err.Error())

	res, err := svc.Login(context.Background(), f, &dto.UserLoginRequest{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", res.Redirect)
	require.NotNil(t, res.User)
	assert.Equal(t, "a@example.com", res.User.Email)
}

type nilSessionAuth struct {
	backend.AuthClient
}

func (nilSessionAuth) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	return nil, nil
}

func TestLoginWithoutUserFails(t *testing.T) {
	_, err := newAccountService(nil).Login(context.Background(), nilSessionAuth{}, &dto.UserLoginRequest{Email: "a@example.com", Password: "x"})
	assert.ErrorIs(t, err, code.ErrorLoginFailed)
}

func TestLogout(t *testing.T) {
	f := backendtest.NewFake()
	f.AddUser("a@example.com", "secret1")
	f.SignInAs("a@example.com")

	res, err := newAccountService(nil).Logout(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "/login", res.Redirect)

	sess, _ := f.GetSession(context.Background())
	assert.Nil(t, sess)
}

func TestLogoutProviderError(t *testing.T) {
	f := backendtest.NewFake()
	f.FailOn(backendtest.OpSignOut, &backend.Error{Status: 500, Message: "boom"})

	_, err := newAccountService(nil).Logout(context.Background(), f)
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

func TestForgotPasswordRedirect(t *testing.T) {
	tests := []struct {
		name      string
		publicURL string
		origin    string
		want      string
	}{
		{name: "request origin", origin: "http://localhost:9000", want: "http://localhost:9000/update-password"},
		{name: "public url wins", publicURL: "https://notes.example.com/", origin: "http://10.0.0.1", want: "https://notes.example.com/update-password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := backendtest.NewFake()
			svc := newAccountService(&ServiceConfig{Auth: AuthServiceConfig{PublicURL: tt.publicURL}})

			res, err := svc.ForgotPassword(context.Background(), f, &dto.UserForgotPasswordRequest{Email: "a@example.com"}, tt.origin)
			require.NoError(t, err)
			assert.Equal(t, MsgResetEmailSent, res.Message)
			assert.Equal(t, tt.want, f.ResetRequests["a@example.com"])
		})
	}
}
