package response

import "net/http"

// 业务错误码
const (
	// 失败
	Fail ResponseCode = 0
	// 参数解析错误
	ParseError ResponseCode = 1
	// 参数错误
	InvalidParameter ResponseCode = 2
	// 资源不存在
	NotFound ResponseCode = 3
	// 唯一性冲突（标题、用户名、邮箱、重复提交）
	Conflict ResponseCode = 4
	// 已认证但无权限
	Forbidden ResponseCode = 5
	// 未认证或令牌无效
	Unauthorized ResponseCode = 6
	// 业务校验失败（文件类型、分数范围、状态不允许）
	ValidationFailed ResponseCode = 7
	// 对象存储失败
	StorageFailure ResponseCode = 8
)

type BusinessError struct {
	Code ResponseCode
	Msg  string
	Err  error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// HTTPStatus 业务错误码对应的 HTTP 状态码
func (e *BusinessError) HTTPStatus() int {
	return StatusOf(e.Code)
}

type ErrorOption func(*BusinessError)

func WithErrorCode(code ResponseCode) ErrorOption {
	return func(be *BusinessError) {
		be.Code = code
	}
}

func WithErrorMessage(msg string) ErrorOption {
	return func(be *BusinessError) {
		be.Msg = msg
	}
}

func WithError(err error) ErrorOption {
	return func(be *BusinessError) {
		be.Err = err
	}
}

func NewBusinessError(opts ...ErrorOption) *BusinessError {
	err := &BusinessError{
		Code: Fail,
		Msg:  "business error",
		Err:  nil,
	}
	for _, opt := range opts {
		opt(err)
	}
	return err
}

// StatusOf 每个错误码映射到不同的 HTTP 状态码
func StatusOf(code ResponseCode) int {
	switch code {
	case ParseError, InvalidParameter:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Forbidden:
		return http.StatusForbidden
	case Unauthorized:
		return http.StatusUnauthorized
	case ValidationFailed:
		return http.StatusUnprocessableEntity
	case StorageFailure:
		return http.StatusBadGateway
	case Success:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf 从任意 error 中取出业务错误码，非业务错误视为 Fail
func CodeOf(err error) ResponseCode {
	if err == nil {
		return Success
	}
	if be, ok := AsBusinessError(err); ok {
		return be.Code
	}
	return Fail
}
