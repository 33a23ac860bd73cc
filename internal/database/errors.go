package database

import (
	"errors"

	"gorm.io/gorm"

	"terminal-terrace/testmaker/packages/response"
)

// TranslateError 把 gorm 错误转换成业务错误：记录不存在为 NotFound，唯一约束冲突为 Conflict
func TranslateError(err error, notFoundMsg, conflictMsg string) error {
	if err == nil {
		return nil
	}
	if _, ok := response.AsBusinessError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return response.NewBusinessError(
			response.WithErrorCode(response.NotFound),
			response.WithErrorMessage(notFoundMsg),
			response.WithError(err),
		)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return response.NewBusinessError(
			response.WithErrorCode(response.Conflict),
			response.WithErrorMessage(conflictMsg),
			response.WithError(err),
		)
	default:
		return response.NewBusinessError(
			response.WithErrorCode(response.Fail),
			response.WithErrorMessage("数据库操作失败"),
			response.WithError(err),
		)
	}
}

// IsNotFound 记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
