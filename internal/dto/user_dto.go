// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import "time"

// UserRegisterRequest User registration request parameters
// 用户注册请求参数
type UserRegisterRequest struct {
	Email           string `json:"email" form:"email" binding:"required,email"`               // User email // 用户邮件
	Password        string `json:"password" form:"password" binding:"required"`               // User password // 用户密码
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" binding:"required"` // Confirm password // 校验密码
}

// UserLoginRequest User login request parameters
// 用户登录请求参数
type UserLoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"` // Email // 邮件
	Password string `json:"password" form:"password" binding:"required"` // Password // 密码
}

// UserForgotPasswordRequest Request parameters for sending the reset email
// 发送重置密码邮件请求参数
type UserForgotPasswordRequest struct {
	Email string `json:"email" form:"email" binding:"required,email"` // User email // 用户邮件
}

// RecoveryCheckRequest The full address the reset link opened, fragment included
// 重置链接打开的完整地址（包含 fragment）
type RecoveryCheckRequest struct {
	URL string `json:"url" form:"url" binding:"required,notblank"`
}

// RecoveryUpdateRequest New password form
// 新密码表单
type RecoveryUpdateRequest struct {
	Password        string `json:"password" form:"password" binding:"required"`               // New password // 新密码
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" binding:"required"` // Confirm password // 校验密码
}

// ---------------- DTO / Response ----------------

// UserDTO User data transfer object
// UserDTO 用户数据传输对象
type UserDTO struct {
	ID        string    `json:"id"`        // Provider user id // 用户 ID
	Email     string    `json:"email"`     // Email address // 邮件地址
	CreatedAt time.Time `json:"createdAt"` // Account created time // 账号创建时间
}

// SessionDTO Session store snapshot
// SessionDTO 会话状态快照
type SessionDTO struct {
	Loading       bool     `json:"loading"`
	Authenticated bool     `json:"authenticated"`
	User          *UserDTO `json:"user,omitempty"`
}

// AuthResultDTO Outcome of an account action
// AuthResultDTO 账户操作结果
type AuthResultDTO struct {
	Message  string   `json:"message,omitempty"`
	Redirect string   `json:"redirect,omitempty"`
	User     *UserDTO `json:"user,omitempty"`
}

// RedirectDTO Navigation instruction for the client
// RedirectDTO 客户端跳转指令
type RedirectDTO struct {
	Redirect string `json:"redirect"`
	Replace  bool   `json:"replace"`
	From     string `json:"from,omitempty"`
	Loading  bool   `json:"loading,omitempty"`
}

// HomeDTO Landing page state
// HomeDTO 首页状态
type HomeDTO struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
}
