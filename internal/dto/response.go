package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	res "terminal-terrace/testmaker/packages/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func SuccessResponse(c *gin.Context, data any) {
	c.JSON(http.StatusOK, res.SuccessResponse(data))
}

// CreatedResponse 创建成功
func CreatedResponse(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, res.SuccessResponse(data))
}

// ErrorResponse 按错误码写出对应的 HTTP 状态
func ErrorResponse(c *gin.Context, err *res.BusinessError) {
	if err.Code == res.Fail && err.Err != nil {
		slog.Error("请求处理失败", "method", c.Request.Method, "path", c.FullPath(), "error", err.Err)
	}
	c.JSON(err.HTTPStatus(), res.ErrorResponse(err.Code, err.Msg))
}

// Error 任意 error，非业务错误按 500 处理
func Error(c *gin.Context, err error) {
	if be, ok := res.AsBusinessError(err); ok {
		ErrorResponse(c, be)
		return
	}
	ErrorResponse(c, res.NewBusinessError(
		res.WithErrorCode(res.Fail),
		res.WithErrorMessage("服务器内部错误"),
		res.WithError(err),
	))
}

// AbortWithError 写出错误并中断后续处理
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// ValidationErrorResponse 处理验证错误，返回友好的JSON字段名
func ValidationErrorResponse(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		firstErr := validationErrs[0]
		jsonField := getJSONFieldName(firstErr)

		var message string
		switch firstErr.Tag() {
		case "required":
			message = fmt.Sprintf("字段 '%s' 是必填项", jsonField)
		case "max":
			message = fmt.Sprintf("字段 '%s' 长度不能超过 %s", jsonField, firstErr.Param())
		case "min":
			message = fmt.Sprintf("字段 '%s' 长度不能少于 %s", jsonField, firstErr.Param())
		case "oneof":
			message = fmt.Sprintf("字段 '%s' 必须是以下值之一: %s", jsonField, firstErr.Param())
		case "email":
			message = fmt.Sprintf("字段 '%s' 不是有效的邮箱", jsonField)
		case "gte", "lte":
			message = fmt.Sprintf("字段 '%s' 超出范围: %s %s", jsonField, firstErr.Tag(), firstErr.Param())
		default:
			message = fmt.Sprintf("字段 '%s' 验证失败: %s", jsonField, firstErr.Tag())
		}

		ErrorResponse(c, res.NewBusinessError(
			res.WithErrorCode(res.InvalidParameter),
			res.WithErrorMessage(message),
		))
		return
	}

	ErrorResponse(c, res.NewBusinessError(
		res.WithErrorCode(res.ParseError),
		res.WithErrorMessage("参数错误: "+err.Error()),
	))
}

// getJSONFieldName validator 不提供结构体实例，只能返回字段名的 snake_case
func getJSONFieldName(fe validator.FieldError) string {
	field := fe.StructNamespace()
	if parts := strings.Split(field, "."); len(parts) > 1 {
		return toSnakeCase(parts[len(parts)-1])
	}
	return toSnakeCase(fe.Field())
}

// toSnakeCase 将PascalCase转换为snake_case
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
