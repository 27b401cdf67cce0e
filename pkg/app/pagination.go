package app

import (
	"github.com/haierkeys/fast-note-web/pkg/convert"

	"github.com/gin-gonic/gin"
)

// GetPage reads a 1-based page number from query or form, 0 when absent
// GetPage 从 query 或表单读取页码（从 1 开始），未提供时返回 0
func GetPage(c *gin.Context) int {

	var page int

	if s, exist := c.GetQuery("page"); exist {
		page = convert.StrTo(s).MustInt()
	} else if s := c.PostForm("page"); s != "" {
		page = convert.StrTo(s).MustInt()
	}

	if page <= 0 {
		return 0
	}

	return page
}
