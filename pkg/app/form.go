package app

import (
	"strings"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ValidError a single field validation failure
// ValidError 单个字段的校验错误
type ValidError struct {
	Key     string
	Message string
}

type ValidErrors []*ValidError

func (v *ValidError) Error() string {
	return v.Message
}

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

// ErrorsToString joins all messages for the envelope details
// ErrorsToString 拼接所有错误消息，用于响应 details
func (v ValidErrors) ErrorsToString() string {
	return strings.Join(v.Errors(), ", ")
}

// MapsToString keyed by field name
// MapsToString 以字段名为键返回错误消息
func (v ValidErrors) MapsToString() map[string]string {
	out := make(map[string]string, len(v))
	for _, err := range v {
		out[err.Key] = err.Message
	}
	return out
}

// BindAndValid binds the request into v and runs validator tags,
// translating messages with the request translator set by the lang middleware.
// BindAndValid 绑定请求参数并执行校验，使用 lang 中间件设置的翻译器翻译错误消息
func BindAndValid(c *gin.Context, v interface{}) (bool, ValidErrors) {
	var errs ValidErrors

	err := c.ShouldBind(v)
	if err == nil {
		return true, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs = append(errs, &ValidError{Key: "body", Message: err.Error()})
		return false, errs
	}

	trans, ok := c.Value("trans").(ut.Translator)
	if !ok {
		for _, fe := range verrs {
			errs = append(errs, &ValidError{Key: fe.Field(), Message: fe.Error()})
		}
		return false, errs
	}

	for key, value := range verrs.Translate(trans) {
		errs = append(errs, &ValidError{Key: key[strings.Index(key, ".")+1:], Message: value})
	}

	return false, errs
}
