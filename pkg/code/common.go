package code

import "net/http"

// Success codes
// 成功码
var (
	Success     = NewSuss(1, lang{en: "Success", zh_cn: "成功"})
	SuccessView = NewSuss(2, lang{en: "Loading", zh_cn: "加载中"})
)

// Generic failure codes
// 通用失败码
var (
	Failed                = NewError(400, lang{en: "Failed", zh_cn: "失败"})
	ErrorServerInternal   = NewError(500, lang{en: "Internal server error", zh_cn: "服务器内部错误"}).WithHTTPStatus(http.StatusInternalServerError)
	ErrorNotFoundAPI      = NewError(404, lang{en: "Not found", zh_cn: "资源不存在"}).WithHTTPStatus(http.StatusNotFound)
	ErrorInvalidParams    = NewError(405, lang{en: "Invalid parameters", zh_cn: "参数错误"})
	ErrorTooManyRequests  = NewError(429, lang{en: "Too many requests", zh_cn: "请求过多"}).WithHTTPStatus(http.StatusTooManyRequests)
	ErrorContextCancelled = NewError(499, lang{en: "Request cancelled", zh_cn: "请求已取消"})
)

// Session and account codes
// 会话与账户相关错误码
var (
	ErrorNotAuthenticated   = NewError(1001, lang{en: "Please login first", zh_cn: "请先登录"})
	ErrorWorkspaceMissing   = NewError(1002, lang{en: "Browser workspace is missing", zh_cn: "浏览器工作区不存在"})
	ErrorPasswordNotMatch   = NewError(1003, lang{en: "Passwords do not match.", zh_cn: "两次输入的密码不一致"})
	ErrorPasswordTooShort   = NewError(1004, lang{en: "Password is too short", zh_cn: "密码长度不足"})
	ErrorAuthProvider       = NewError(1005, lang{en: "Authentication failed", zh_cn: "认证失败"})
	ErrorLoginFailed        = NewError(1006, lang{en: "Login failed. Please try again.", zh_cn: "登录失败，请重试"})
	ErrorRecoveryNotReady   = NewError(1007, lang{en: "Reset link is not valid", zh_cn: "重置链接无效"})
	ErrorRecoveryNotStarted = NewError(1008, lang{en: "Open the password reset link first", zh_cn: "请先打开密码重置链接"})
	ErrorPasswordUpdating   = NewError(1009, lang{en: "Password update in progress", zh_cn: "正在更新密码"})
)

// Note codes
// 笔记相关错误码
var (
	ErrorNoteLoadFailed   = NewError(2001, lang{en: "Failed to load notes.", zh_cn: "加载笔记失败"})
	ErrorNoteDeleteFailed = NewError(2002, lang{en: "Failed to delete note", zh_cn: "删除笔记失败"})
	ErrorNoteEmpty        = NewError(2003, lang{en: "Write something before creating the note.", zh_cn: "创建笔记前请先输入内容"})
	ErrorNoteCreateFailed = NewError(2004, lang{en: "Failed to create note.", zh_cn: "创建笔记失败"})
	ErrorNoteNotDirty     = NewError(2005, lang{en: "Nothing to save", zh_cn: "没有需要保存的修改"})
	ErrorNoteSaveFailed   = NewError(2006, lang{en: "Failed to save note", zh_cn: "保存笔记失败"})
	ErrorNoteNotMounted   = NewError(2007, lang{en: "Open the note first", zh_cn: "请先打开笔记"})
	ErrorNoteBusy         = NewError(2008, lang{en: "Note is busy, try again", zh_cn: "笔记正忙，请稍后再试"})
	ErrorNoteMissingID    = NewError(2009, lang{en: "Missing note id.", zh_cn: "缺少笔记 ID"})
	ErrorNoteNotEditing   = NewError(2010, lang{en: "Switch to edit mode first", zh_cn: "请先进入编辑模式"})
	ErrorNoteDeleteNotAsk = NewError(2011, lang{en: "Confirm the deletion first", zh_cn: "请先确认删除"})
)
