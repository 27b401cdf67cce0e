package backend

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Error is a provider failure; Error() is the provider message verbatim
// Error 后端返回的错误，Error() 原样返回服务端消息
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

type errorBody struct {
	Msg              string      `json:"msg"`
	Message          string      `json:"message"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
	Code             interface{} `json:"code"`
	ErrorCode        string      `json:"error_code"`
}

// parseError builds an Error from a non-2xx body; auth and rest use different shapes
// parseError 从非 2xx 响应体构造 Error，auth 与 rest 的错误格式不同
func parseError(status int, body []byte) *Error {
	e := &Error{Status: status}

	var b errorBody
	if len(body) > 0 && sonic.Unmarshal(body, &b) == nil {
		for _, m := range []string{b.Msg, b.ErrorDescription, b.Message, b.Error} {
			if strings.TrimSpace(m) != "" {
				e.Message = m
				break
			}
		}
		switch {
		case b.ErrorCode != "":
			e.Code = b.ErrorCode
		case b.Code != nil:
			e.Code = fmt.Sprint(b.Code)
		}
	}
	if e.Message == "" && len(body) > 0 && len(body) < 512 {
		e.Message = strings.TrimSpace(string(body))
	}
	return e
}
