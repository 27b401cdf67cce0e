package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/haierkeys/fast-note-web/internal/backend"
	"github.com/haierkeys/fast-note-web/internal/dto"
	"github.com/haierkeys/fast-note-web/pkg/code"
	apperrors "github.com/haierkeys/fast-note-web/pkg/errors"
	"github.com/haierkeys/fast-note-web/pkg/logger"

	"go.uber.org/zap"
)

// Result messages shown after account actions
// 账户操作完成后展示的消息
const (
	MsgRegistered     = "Registration successful! You can now login."
	MsgConfirmEmail   = "Check your email for a confirmation link."
	MsgResetEmailSent = "Password reset email sent! Check your inbox."
)

const (
	DefaultPasswordLen = 6
	UpdatePasswordPath = "/update-password"

	loginPath     = "/login"
	dashboardPath = "/dashboard"
)

// AccountService 定义账户业务服务接口
type AccountService interface {
	// Register 用户注册
	Register(ctx context.Context, auth backend.AuthClient, params *dto.UserRegisterRequest) (*dto.AuthResultDTO, error)

	// Login 用户登录
	Login(ctx context.Context, auth backend.AuthClient, params *dto.UserLoginRequest) (*dto.AuthResultDTO, error)

	// Logout 退出登录
	Logout(ctx context.Context, auth backend.AuthClient) (*dto.AuthResultDTO, error)

	// ForgotPassword 发送重置密码邮件，origin 为浏览器访问地址
	ForgotPassword(ctx context.Context, auth backend.AuthClient, params *dto.UserForgotPasswordRequest, origin string) (*dto.AuthResultDTO, error)
}

// accountService 实现 AccountService 接口
type accountService struct {
	logger *zap.Logger
	config *ServiceConfig
}

// NewAccountService 创建 AccountService 实例
func NewAccountService(logger *zap.Logger, config *ServiceConfig) AccountService {
	if config == nil {
		config = &ServiceConfig{}
	}
	return &accountService{
		logger: logger,
		config: config,
	}
}

func (s *accountService) minPasswordLength() int {
	if s.config.Auth.PasswordMinLength > 0 {
		return s.config.Auth.PasswordMinLength
	}
	return DefaultPasswordLen
}

// providerError keeps the provider message as the user facing text
// providerError 将认证服务返回的消息原样作为用户可见文案
func providerError(err error) error {
	return apperrors.NewAppErrorWithMessage(code.ErrorAuthProvider, err.Error(), err)
}

// UserToDTO 将认证服务用户转换为 DTO
func UserToDTO(u *backend.User) *dto.UserDTO {
	if u == nil {
		return nil
	}
	return &dto.UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// Register 用户注册
func (s *accountService) Register(ctx context.Context, auth backend.AuthClient, params *dto.UserRegisterRequest) (*dto.AuthResultDTO, error) {
	// 验证密码一致性
	if params.Password != params.ConfirmPassword {
		return nil, code.ErrorPasswordNotMatch
	}
	if utf8.RuneCountInString(params.Password) < s.minPasswordLength() {
		return nil, code.ErrorPasswordTooShort
	}

	user, err := auth.SignUp(ctx, params.Email, params.Password)
	if err != nil {
		s.logger.Warn("register failed",
			zap.String(logger.FieldAction, "register"),
			zap.Error(err))
		return nil, providerError(err)
	}

	// 服务端开启邮件确认时不会返回用户
	if user == nil {
		return &dto.AuthResultDTO{Message: MsgConfirmEmail}, nil
	}
	return &dto.AuthResultDTO{Message: MsgRegistered, User: UserToDTO(user)}, nil
}

// Login 用户登录
func (s *accountService) Login(ctx context.Context, auth backend.AuthClient, params *dto.UserLoginRequest) (*dto.AuthResultDTO, error) {
	session, err := auth.SignIn(ctx, params.Email, params.Password)
	if err != nil {
		return nil, providerError(err)
	}
	if session == nil || session.User == nil {
		return nil, code.ErrorLoginFailed
	}

	s.logger.Info("user login",
		zap.String(logger.FieldUID, session.User.ID),
		zap.String(logger.FieldAction, "login"))

	return &dto.AuthResultDTO{Redirect: dashboardPath, User: UserToDTO(session.User)}, nil
}

// Logout 退出登录
func (s *accountService) Logout(ctx context.Context, auth backend.AuthClient) (*dto.AuthResultDTO, error) {
	if err := auth.SignOut(ctx); err != nil {
		return nil, providerError(err)
	}
	return &dto.AuthResultDTO{Redirect: loginPath}, nil
}

// ForgotPassword 发送重置密码邮件
func (s *accountService) ForgotPassword(ctx context.Context, auth backend.AuthClient, params *dto.UserForgotPasswordRequest, origin string) (*dto.AuthResultDTO, error) {
	base := s.config.Auth.PublicURL
	if base == "" {
		base = origin
	}
	redirectTo := strings.TrimRight(base, "/") + UpdatePasswordPath

	if err := auth.ResetPasswordForEmail(ctx, params.Email, redirectTo); err != nil {
		return nil, providerError(err)
	}
	return &dto.AuthResultDTO{Message: MsgResetEmailSent}, nil
}
