package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldUID 用户 ID 字段
	FieldUID = "uid"

	// FieldWorkspace 浏览器工作区 ID 字段
	FieldWorkspace = "workspace"

	// FieldNoteID 笔记 ID 字段
	FieldNoteID = "noteId"

	// FieldOperation 外部服务操作名称字段
	FieldOperation = "operation"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldStatus 状态字段
	FieldStatus = "status"

	// FieldError 错误信息字段
	FieldError = "error"
)
