package dto

import (
	"strconv"

	res "terminal-terrace/testmaker/packages/response"

	"github.com/gin-gonic/gin"
)

// ParseIDParam 解析路径中的正整数 ID，失败时已写出响应
func ParseIDParam(c *gin.Context, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		ErrorResponse(c, res.NewBusinessError(
			res.WithErrorCode(res.ParseError),
			res.WithErrorMessage("无效的"+label),
		))
		return 0, false
	}
	return uint(id), true
}
