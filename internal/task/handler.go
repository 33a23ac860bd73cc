package task

import (
	"context"
	"strings"

	"terminal-terrace/testmaker/internal/attachment"
	"terminal-terrace/testmaker/internal/dto"
	"terminal-terrace/testmaker/internal/middleware"
	taskModel "terminal-terrace/testmaker/internal/model/task"
	userModel "terminal-terrace/testmaker/internal/model/user"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	taskService *TaskService
}

func NewTaskHandler(taskService *TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// uploads 非 multipart 请求没有附件
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

// List 作业列表
// @Summary 作业列表
// @Description 按专业、年级、课程类型、课程名、checker 以及截止时间筛选，按截止时间升序
// @Tags 作业
// @Produce json
// @Security BearerAuth
// @Param specialty query string false "专业"
// @Param course query int false "年级"
// @Param lesson_type query string false "LECTURE/PRACTICE/LAB"
// @Param lesson_name query string false "课程名（模糊匹配）"
// @Param checker query int false "checker 用户 ID"
// @Param upcoming query bool false "仅未截止"
// @Param overdue query bool false "仅已截止"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=ListResponse}
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	result, err := h.taskService.ListTasks(c.Request.Context(), q)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// Create 创建作业
// @Summary 创建作业
// @Description multipart 表单，files 与 photos 可多选；照片仅支持 jpeg/png/gif/webp
// @Tags 作业
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "标题（全局唯一）"
// @Param description formData string false "描述"
// @Param lesson_name formData string false "课程名"
// @Param lesson_type formData string true "LECTURE/PRACTICE/LAB"
// @Param specialty formData string false "专业"
// @Param course formData int true "年级"
// @Param deadline formData string false "截止时间 RFC3339"
// @Param files formData file false "附件"
// @Param photos formData file false "照片"
// @Success 201 {object} response.Response{data=taskModel.Task}
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}
	files, photos := uploads(c)

	t, err := h.taskService.CreateTask(c.Request.Context(), req, middleware.MustCurrentUser(c), files, photos)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.CreatedResponse(c, t)
}

// Get 作业详情
// @Summary 作业详情
// @Tags 作业
// @Produce json
// @Security BearerAuth
// @Param id path int true "作业 ID"
// @Success 200 {object} response.Response{data=taskModel.Task}
// @Failure 404 {object} response.Response
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id", "作业 ID")
	if !ok {
		return
	}

	t, err := h.taskService.GetTask(c.Request.Context(), id)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, t)
}

// Update 修改作业，新附件追加到原列表
// @Summary 修改作业
// @Tags 作业
// @Accept multipart/form-data,json
// @Produce json
// @Security BearerAuth
// @Param id path int true "作业 ID"
// @Param title formData string false "标题"
// @Param description formData string false "描述"
// @Param lesson_name formData string false "课程名"
// @Param lesson_type formData string false "LECTURE/PRACTICE/LAB"
// @Param specialty formData string false "专业"
// @Param course formData int false "年级"
// @Param deadline formData string false "截止时间 RFC3339"
// @Param files formData file false "追加的附件"
// @Param photos formData file false "追加的照片"
// @Success 200 {object} response.Response{data=taskModel.Task}
// @Failure 403 {object} response.Response
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id", "作业 ID")
	if !ok {
		return
	}
	var patch TaskPatch
	if err := c.ShouldBind(&patch); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}
	files, photos := uploads(c)

	t, err := h.taskService.UpdateTask(c.Request.Context(), id, patch, middleware.MustCurrentUser(c), files, photos)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, t)
}

// Delete 删除作业及其下的提交
// @Summary 删除作业
// @Description 返回对象清理结果，清理失败不影响删除
// @Tags 作业
// @Produce json
// @Security BearerAuth
// @Param id path int true "作业 ID"
// @Success 200 {object} response.Response{data=DeleteResponse}
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id", "作业 ID")
	if !ok {
		return
	}

	report, err := h.taskService.DeleteTask(c.Request.Context(), id, middleware.MustCurrentUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, DeleteResponse{ID: id, Cleanup: report})
}

// DeleteFile 删除一个附件
// @Summary 删除作业附件
// @Tags 作业
// @Produce json
// @Security BearerAuth
// @Param id path int true "作业 ID"
// @Param key path string true "附件 ID 或文件名"
// @Success 200 {object} response.Response{data=taskModel.Task}
// @Failure 404 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /tasks/{id}/files/{key} [delete]
func (h *TaskHandler) DeleteFile(c *gin.Context) {
	h.deleteAttachment(c, h.taskService.DeleteTaskFile)
}

// DeletePhoto 删除一张照片
// @Summary 删除作业照片
// @Tags 作业
// @Produce json
// @Security BearerAuth
// @Param id path int true "作业 ID"
// @Param key path string true "照片 ID 或文件名"
// @Success 200 {object} response.Response{data=taskModel.Task}
// @Router /tasks/{id}/photos/{key} [delete]
func (h *TaskHandler) DeletePhoto(c *gin.Context) {
	h.deleteAttachment(c, h.taskService.DeleteTaskPhoto)
}

func (h *TaskHandler) deleteAttachment(c *gin.Context, del func(ctx context.Context, id uint, key string, actor *userModel.User) (*taskModel.Task, error)) {
	id, ok := dto.ParseIDParam(c, "id", "作业 ID")
	if !ok {
		return
	}

	t, err := del(c.Request.Context(), id, c.Param("key"), middleware.MustCurrentUser(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, t)
}

// AttachmentURL 附件的临时下载地址
// @Summary 附件临时地址
// @Tags 作业
// @Produce json
// @Security BearerAuth
// @Param id path int true "作业 ID"
// @Param key path string true "附件 ID 或文件名"
// @Success 200 {object} response.Response{data=PresignResponse}
// @Router /tasks/{id}/attachments/{key}/url [get]
func (h *TaskHandler) AttachmentURL(c *gin.Context) {
	id, ok := dto.ParseIDParam(c, "id", "作业 ID")
	if !ok {
		return
	}

	result, err := h.taskService.PresignAttachment(c.Request.Context(), id, c.Param("key"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}
