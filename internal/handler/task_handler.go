package handler

import (
	"strconv"

	"puptime/internal/service"
	"puptime/pkg/jwt"
	"puptime/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	service *service.TaskService
}

func NewTaskHandler(s *service.TaskService) *TaskHandler {
	return &TaskHandler{service: s}
}

// Create 创建任务（可携带嵌套的重复规则与分类ID）
func (h *TaskHandler) Create(c *gin.Context) {
	var in service.CreateTaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.service.Create(jwt.GetUserID(c), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, response.FilterTaskInfo(task))
}

// List 获取任务列表（支持优先级/分类过滤与白名单排序）
func (h *TaskHandler) List(c *gin.Context) {
	in := service.ListTasksInput{
		Priority: c.Query("priority"),
		Ordering: c.Query("ordering"),
	}
	if category := c.Query("category"); category != "" {
		if id, err := strconv.ParseUint(category, 10, 32); err == nil {
			in.CategoryID = uint(id)
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil {
			in.Page = v
		}
	}
	if pageSize := c.Query("page_size"); pageSize != "" {
		if v, err := strconv.Atoi(pageSize); err == nil {
			in.PageSize = v
		}
	}

	tasks, err := h.service.List(jwt.GetUserID(c), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, response.FilterTaskList(tasks))
}

// Get 获取单个任务
func (h *TaskHandler) Get(c *gin.Context) {
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}

	task, err := h.service.Get(jwt.GetUserID(c), taskID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, response.FilterTaskInfo(task))
}

// Update 部分更新任务
// 提供的 repetitions/categories 列表会整体替换旧集合
func (h *TaskHandler) Update(c *gin.Context) {
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}

	var in service.UpdateTaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.service.Update(jwt.GetUserID(c), taskID, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, response.FilterTaskInfo(task))
}

// Delete 删除任务
func (h *TaskHandler) Delete(c *gin.Context) {
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}

	if err := h.service.Delete(jwt.GetUserID(c), taskID); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "任务已删除", nil)
}

// Complete 标记任务完成（追加一条完成记录）
func (h *TaskHandler) Complete(c *gin.Context) {
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}

	type req struct {
		CompletionTime string `json:"completion_time"`
	}
	var r req
	// 请求体可为空（默认取当前时间）；ContentLength为-1表示chunked编码，同样要读
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&r); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	record, err := h.service.Complete(jwt.GetUserID(c), taskID, r.CompletionTime)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, response.FilterHistoryInfo(record))
}

// Uncomplete 删除一条完成记录
// 可按记录ID、按日期（删该日最近一条）、或不指定（删最近一条）
func (h *TaskHandler) Uncomplete(c *gin.Context) {
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}

	type req struct {
		CompletionID uint   `json:"completion_id"`
		Date         string `json:"date"` // YYYY-MM-DD
	}
	var r req
	// 请求体可为空（默认删最近一条）；chunked编码时ContentLength为-1
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&r); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	deleted, err := h.service.Uncomplete(jwt.GetUserID(c), taskID, r.CompletionID, r.Date)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "完成记录已删除", gin.H{
		"deleted_completion_time": deleted.CompletionTime.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// History 获取任务完成记录（按时间倒序）
func (h *TaskHandler) History(c *gin.Context) {
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}

	items, err := h.service.History(jwt.GetUserID(c), taskID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, response.FilterHistoryList(items))
}
