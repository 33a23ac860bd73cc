package dto

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	res "terminal-terrace/testmaker/packages/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   res.ResponseCode
	}{
		{"不存在", res.NewBusinessError(res.WithErrorCode(res.NotFound), res.WithErrorMessage("x")), http.StatusNotFound, res.NotFound},
		{"冲突", res.NewBusinessError(res.WithErrorCode(res.Conflict)), http.StatusConflict, res.Conflict},
		{"无权限", res.NewBusinessError(res.WithErrorCode(res.Forbidden)), http.StatusForbidden, res.Forbidden},
		{"普通错误", errors.New("boom"), http.StatusInternalServerError, res.Fail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Error(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body res.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "lesson_name", toSnakeCase("LessonName"))
	assert.Equal(t, "grade", toSnakeCase("Grade"))
}

func TestParseIDParam(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	_, ok := ParseIDParam(c, "id", "作业ID")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := ParseIDParam(c, "id", "作业ID")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
}
