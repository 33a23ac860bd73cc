package answer

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminal-terrace/testmaker/internal/middleware"
	answerModel "terminal-terrace/testmaker/internal/model/answer"
	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/packages/response"
)

func asUser(users map[string]*userModel.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := users[c.GetHeader("X-Test-User")]
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		middleware.SetCurrentUser(c, u)
		c.Next()
	}
}

func setupAnswerRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := setupAnswerService(t)

	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), NewAnswerHandler(f.svc), asUser(map[string]*userModel.User{
		"student":  student,
		"student2": student2,
		"checker":  checker,
		"admin":    admin,
	}))
	return r
}

func do(r *gin.Engine, method, path, user string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Test-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func submitForm(t *testing.T, taskID string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("task_id", taskID))
	require.NoError(t, w.WriteField("message", "done"))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="files"; filename="work.pdf"`)
	h.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func decodeAnswer(t *testing.T, w *httptest.ResponseRecorder) answerModel.Answer {
	t.Helper()
	var body struct {
		Code response.ResponseCode `json:"code"`
		Data answerModel.Answer    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data
}

func TestAnswerHandler_Lifecycle(t *testing.T) {
	r := setupAnswerRouter(t)

	body, ct := submitForm(t, "100")
	w := do(r, http.MethodPost, "/api/v1/answers", "student", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeAnswer(t, w)
	assert.Equal(t, answerModel.StatusSubmitted, created.Status)
	assert.Len(t, created.Files, 1)

	body, ct = submitForm(t, "100")
	w = do(r, http.MethodPost, "/api/v1/answers", "student", body, ct)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/api/v1/answers/1", "student2", nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/api/v1/answers/1/grade", "checker",
		bytes.NewBufferString(`{"grade":85,"status":"GRADED"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 85, *decodeAnswer(t, w).Grade)

	w = do(r, http.MethodPut, "/api/v1/answers/1", "student",
		bytes.NewBufferString(`{"message":"too late"}`), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodGet, "/api/v1/answers/my?graded=true", "student", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"status":"GRADED"`))
}

func TestAnswerHandler_RoleGates(t *testing.T) {
	r := setupAnswerRouter(t)

	body, ct := submitForm(t, "100")
	w := do(r, http.MethodPost, "/api/v1/answers", "checker", body, ct)
	assert.Equal(t, http.StatusForbidden, w.Code, "教师不能提交")

	w = do(r, http.MethodPost, "/api/v1/answers/1/grade", "student",
		bytes.NewBufferString(`{"grade":100}`), "application/json")
	assert.Equal(t, http.StatusForbidden, w.Code, "学生不能批改")

	w = do(r, http.MethodGet, "/api/v1/answers/task/100/count", "checker", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)

	w = do(r, http.MethodGet, "/api/v1/answers?status=LOST", "admin", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/answers/abc", "admin", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnswerHandler_GradeRequiresScore(t *testing.T) {
	r := setupAnswerRouter(t)

	body, ct := submitForm(t, "100")
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v1/answers", "student", body, ct).Code)

	w := do(r, http.MethodPost, "/api/v1/answers/1/grade", "checker",
		bytes.NewBufferString(`{"teacher_comment":"ok"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/answers/1/grade", "checker",
		bytes.NewBufferString(`{"grade":120}`), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
