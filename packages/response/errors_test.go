package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf_DistinctPerCode(t *testing.T) {
	tests := []struct {
		code ResponseCode
		want int
	}{
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{Forbidden, http.StatusForbidden},
		{Unauthorized, http.StatusUnauthorized},
		{ValidationFailed, http.StatusUnprocessableEntity},
		{StorageFailure, http.StatusBadGateway},
		{ParseError, http.StatusBadRequest},
		{Fail, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.code), "code %d", tt.code)
	}
}

func TestBusinessError_WrapsCause(t *testing.T) {
	cause := errors.New("bucket unreachable")
	err := NewBusinessError(
		WithErrorCode(StorageFailure),
		WithErrorMessage("上传文件失败"),
		WithError(cause),
	)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "上传文件失败: bucket unreachable", err.Error())

	wrapped := fmt.Errorf("create task: %w", err)
	be, ok := AsBusinessError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, StorageFailure, be.Code)
	assert.Equal(t, StorageFailure, CodeOf(wrapped))
	assert.Equal(t, Fail, CodeOf(errors.New("plain")))
}
