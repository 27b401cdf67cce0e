package code

import (
	"fmt"
	"net/http"
)

// Code is a response code carried in the unified envelope.
// Code 响应码，携带于统一响应结构中
//
// Package level codes are templates: every With* call works on a copy, so
// handlers running concurrently never share data or details.
// 包级 Code 仅作为模板：With* 系列方法均在副本上操作，并发请求之间不会共享数据
type Code struct {
	// 状态码
	code int
	// 状态
	status bool
	// 消息
	Lang lang
	// HTTP 状态码
	httpStatus int
	// 数据
	data     interface{}
	haveData bool
	// 错误详细信息
	details     []string
	haveDetails bool
}

var codes = map[int]string{}

// NewError registers a failure code
// NewError 注册失败码
func NewError(code int, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("code %d already exists, please use another one", code))
	}
	codes[code] = l.GetMessage()

	return &Code{code: code, status: false, Lang: l, httpStatus: http.StatusOK}
}

var sussCodes = map[int]string{}

// NewSuss registers a success code
// NewSuss 注册成功码
func NewSuss(code int, l lang) *Code {
	if _, ok := sussCodes[code]; ok {
		panic(fmt.Sprintf("success code %d already exists, please use another one", code))
	}
	sussCodes[code] = l.GetMessage()

	return &Code{code: code, status: true, Lang: l, httpStatus: http.StatusOK}
}

// Clone 创建一个新的 Code 副本
func (e *Code) Clone() *Code {
	c := &Code{
		code:        e.code,
		status:      e.status,
		Lang:        e.Lang,
		httpStatus:  e.httpStatus,
		data:        e.data,
		haveData:    e.haveData,
		haveDetails: e.haveDetails,
	}
	if len(e.details) > 0 {
		c.details = append([]string{}, e.details...)
	}
	return c
}

func (e *Code) Error() string {
	return e.Msg()
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

func (e *Code) Msg() string {
	return e.Lang.GetMessage()
}

func (e *Code) Details() []string {
	return e.details
}

func (e *Code) Data() interface{} {
	return e.data
}

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

func (e *Code) HaveData() bool {
	return e.haveData
}

func (e *Code) WithData(data interface{}) *Code {
	c := e.Clone()
	c.haveData = true
	c.data = data
	return c
}

func (e *Code) WithDetails(details ...string) *Code {
	c := e.Clone()
	c.haveDetails = true
	c.details = append([]string{}, details...)
	return c
}

// WithHTTPStatus overrides the HTTP status written with the envelope
// WithHTTPStatus 覆盖输出时使用的 HTTP 状态码
func (e *Code) WithHTTPStatus(status int) *Code {
	c := e.Clone()
	c.httpStatus = status
	return c
}

func (e *Code) StatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusOK
	}
	return e.httpStatus
}
