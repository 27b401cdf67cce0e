package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HomePath unmatched routes land here
// HomePath 未匹配的路由跳转到此
const HomePath = "/"

// NoFound sends unmatched routes back to the home page
// NoFound 未匹配的路由重定向到首页
func NoFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Redirect(http.StatusFound, HomePath)
		c.Abort()
	}
}
