package middleware

import (
	"github.com/haierkeys/fast-note-web/pkg/app"

	"github.com/gin-gonic/gin"
)

// AppInfo 将应用名称、版本与访问地址写入上下文
func AppInfo(name, version string) gin.HandlerFunc {

	return func(c *gin.Context) {
		c.Set("app_name", name)
		c.Set("app_version", version)
		c.Set("access_host", app.GetAccessHost(c))

		c.Next()
	}
}

// GetAccessHost 读取 AppInfo 写入的访问地址，缺失时现场计算
func GetAccessHost(c *gin.Context) string {
	if v, ok := c.Get("access_host"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return app.GetAccessHost(c)
}
