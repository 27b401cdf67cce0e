// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	Auth  AuthServiceConfig  // Account related config // 账户相关配置
	Notes NotesServiceConfig // Note related config // 笔记相关配置
}

// AuthServiceConfig account service configuration
// AuthServiceConfig 账户服务配置
type AuthServiceConfig struct {
	PasswordMinLength int    // Minimum password length // 密码最小长度
	PublicURL         string // Public base URL used in reset links, empty means the request origin // 重置链接使用的公开地址，为空时使用请求来源
}

// NotesServiceConfig note service configuration
// NotesServiceConfig 笔记服务配置
type NotesServiceConfig struct {
	TitleMax    int // Title limit in runes // 标题长度上限（字符）
	SubtitleMax int // Subtitle limit in runes // 副标题长度上限（字符）
}
