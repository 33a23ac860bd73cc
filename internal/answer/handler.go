package answer

import (
	"strings"

	"terminal-terrace/testmaker/internal/attachment"
	"terminal-terrace/testmaker/internal/dto"
	"terminal-terrace/testmaker/internal/middleware"

	"github.com/gin-gonic/gin"
)

type AnswerHandler struct {
	answerService *AnswerService
}

func NewAnswerHandler(answerService *AnswerService) *AnswerHandler {
	return &AnswerHandler{answerService: answerService}
}

func uploads(c *gin.Context) (files, photos []attachment.Upload) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	return attachment.FromForm(form)
}

// Create 提交作业
// @Summary 提交作业
// @Description 每个学生对每个作业只能提交一次
// @Tags 提交
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param task_id formData int true "作业 ID"
// @Param message formData string false "留言"
// @Param files formData file false "附件"
// @Param photos formData file false "照片"
// @Success 201 {object} response.Response{data=answerModel.Answer}
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /answers [post]
func (h *AnswerHandler) Create(c *gin.Context) {
	var req CreateAnswerRequest
	if err := c.ShouldBind(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}
	files, photos := uploads(c)

	a, err := h.answerService.CreateAnswer(c.Request.Context(), req, middleware.MustCurrentUser(c), files, photos)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.CreatedResponse(c, a)
}

// Get 提交详情
// @Summary 提交详情
// @Tags 提交
// @Produce json
// @Security BearerAuth
// @Param id path int true "提交 ID"
// @Success 200 {object} response.Response{data=answerModel.Answer}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /answers/{id} [get]
func (h *AnswerHandler) Get(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id", "提交 ID")
	if !ok {
		return
	}

	a, err := h.answerService.GetByID(c.Request.Context(), id, middleware.MustCurrentUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, a)
}

// Update 修改提交
// @Summary 修改提交
// @Description 已批改的提交不能修改；新附件追加
// @Tags 提交
// @Accept multipart/form-data,json
// @Produce json
// @Security BearerAuth
// @Param id path int true "提交 ID"
// @Param message formData string false "留言"
// @Param files formData file false "追加的附件"
// @Param photos formData file false "追加的照片"
// @Success 200 {object} response.Response{data=answerModel.Answer}
// @Failure 422 {object} response.Response
// @Router /answers/{id} [put]
func (h *AnswerHandler) Update(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id", "提交 ID")
	if !ok {
		return
	}
	var req UpdateAnswerRequest
	if err := c.ShouldBind(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}
	files, photos := uploads(c)

	a, err := h.answerService.UpdateAnswer(c.Request.Context(), id, req, middleware.MustCurrentUser(c), files, photos)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, a)
}

// Delete 删除提交
// @Summary 删除提交
// @Tags 提交
// @Produce json
// @Security BearerAuth
// @Param id path int true "提交 ID"
// @Success 200 {object} response.Response{data=DeleteResponse}
// @Failure 422 {object} response.Response
// @Router /answers/{id} [delete]
func (h *AnswerHandler) Delete(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id", "提交 ID")
	if !ok {
		return
	}

	report, err := h.answerService.DeleteAnswer(c.Request.Context(), id, middleware.MustCurrentUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, DeleteResponse{ID: id, Cleanup: report})
}

// Grade 批改
// @Summary 批改提交
// @Description 分数 0-100，status 为 GRADED（默认）或 RETURNED
// @Tags 提交
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "提交 ID"
// @Param request body GradeRequest true "批改"
// @Success 200 {object} response.Response{data=answerModel.Answer}
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /answers/{id}/grade [post]
func (h *AnswerHandler) Grade(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id", "提交 ID")
	if !ok {
		return
	}
	var req GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	a, err := h.answerService.GradeAnswer(c.Request.Context(), id, req, middleware.MustCurrentUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, a)
}

// ListByTask 作业下的全部提交
// @Summary 作业下的提交
// @Tags 提交
// @Produce json
// @Security BearerAuth
// @Param task_id path int true "作业 ID"
// @Param status query string false "仅 SUBMITTED 时返回待批改"
// @Success 200 {object} response.Response{data=[]answerModel.Answer}
// @Router /answers/task/{task_id} [get]
func (h *AnswerHandler) ListByTask(c *gin.Context) {
	taskID, ok := dto.ParseIDParam(c, "task_id", "作业 ID")
	if !ok {
		return
	}

	ctx, actor := c.Request.Context(), middleware.MustCurrentUser(c)
	var (
		result any
		err    error
	)
	if c.Query("status") == "SUBMITTED" {
		result, err = h.answerService.ListSubmittedForTask(ctx, taskID, actor)
	} else {
		result, err = h.answerService.ListByTask(ctx, taskID, actor)
	}
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// CountByTask 作业的提交数
// @Summary 作业提交数
// @Tags 提交
// @Produce json
// @Security BearerAuth
// @Param task_id path int true "作业 ID"
// @Success 200 {object} response.Response{data=CountResponse}
// @Router /answers/task/{task_id}/count [get]
func (h *AnswerHandler) CountByTask(c *gin.Context) {
	taskID, ok := dto.ParseIDParam(c, "task_id", "作业 ID")
	if !ok {
		return
	}

	result, err := h.answerService.CountByTask(c.Request.Context(), taskID, middleware.MustCurrentUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// ListByStudent 某学生的提交
// @Summary 学生的提交
// @Tags 提交
// @Produce json
// @Security BearerAuth
// @Param student_id path int true "学生 ID"
// @Param graded query bool false "仅已批改，按批改时间倒序"
// @Success 200 {object} response.Response{data=[]answerModel.Answer}
// @Router /answers/student/{student_id} [get]
func (h *AnswerHandler) ListByStudent(c *gin.Context) {
	studentID, ok := dto.ParseIDParam(c, "student_id", "学生 ID")
	if !ok {
		return
	}
	h.listForStudent(c, studentID)
}

// My 当前用户的提交
// @Summary 我的提交
// @Tags 提交
// @Produce json
// @Security BearerAuth
// @Param graded query bool false "仅已批改"
// @Success 200 {object} response.Response{data=[]answerModel.Answer}
// @Router /answers/my [get]
func (h *AnswerHandler) My(c *gin.Context) {
	h.listForStudent(c, middleware.MustCurrentUser(c).ID)
}

func (h *AnswerHandler) listForStudent(c *gin.Context, studentID uint) {
	ctx, actor := c.Request.Context(), middleware.MustCurrentUser(c)
	var (
		result any
		err    error
	)
	if c.Query("graded") == "true" {
		result, err = h.answerService.ListGradedForStudent(ctx, studentID, actor)
	} else {
		result, err = h.answerService.ListByStudent(ctx, studentID, actor)
	}
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// List 按条件筛选提交
// @Summary 筛选提交
// @Tags 提交
// @Produce json
// @Security BearerAuth
// @Param task_id query int false "作业 ID"
// @Param student_id query int false "学生 ID"
// @Param status query string false "SUBMITTED/GRADED/RETURNED"
// @Param grade_min query int false "最低分"
// @Param grade_max query int false "最高分"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=ListResponse}
// @Router /answers [get]
func (h *AnswerHandler) List(c *gin.Context) {
	var f Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	result, err := h.answerService.ListWithFilters(c.Request.Context(), f, middleware.MustCurrentUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}
