package code

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// lang stores English and Chinese text
// lang 类型，用来存储英文和中文文本
type lang struct {
	en    string // English // 英文
	zh_cn string // Chinese // 中文
}

const FALLBACK_LNG = "en"

var supportedLanguages = []string{"en", "zh_cn"}

var lng atomic.Value

func init() {
	lng.Store(FALLBACK_LNG)
}

// GetMessage returns the message in the configured language, falling back to English
// GetMessage 根据配置的语言返回消息，缺失时回退英文
func (l lang) GetMessage() string {
	switch lng.Load().(string) {
	case "zh_cn":
		if l.zh_cn != "" {
			return l.zh_cn
		}
	}
	if l.en != "" {
		return l.en
	}
	return fmt.Sprintf("No message available for language: %s", lng.Load())
}

// GetSupportedLanguages returns all languages a lang value can carry
// GetSupportedLanguages 返回支持的所有语言
func GetSupportedLanguages() []string {
	return append([]string{}, supportedLanguages...)
}

// SetGlobalDefaultLang sets the process wide message language.
// SetGlobalDefaultLang 设置全局默认语言
// It is called once at startup from configuration, never per request.
// 仅在启动时根据配置调用，不在请求中调用
func SetGlobalDefaultLang(language string) error {
	for _, l := range supportedLanguages {
		if language == l {
			lng.Store(language)
			return nil
		}
	}
	lng.Store(FALLBACK_LNG)
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang 获取全局默认语言
func GetGlobalDefaultLang() string {
	return lng.Load().(string)
}
