package service

import (
	"strings"
	"time"

	"puptime/internal/model"
	"puptime/internal/repository"
	"puptime/pkg/errs"
)

// RepetitionInput 任务重复规则输入
type RepetitionInput struct {
	Frequency string  `json:"frequency" binding:"required"`
	Time      *string `json:"time"`
}

// CreateTaskInput 创建任务输入
type CreateTaskInput struct {
	Title        string            `json:"title" binding:"required"`
	StartTime    time.Time         `json:"start_time" binding:"required"`
	EndTime      *time.Time        `json:"end_time"`
	ReminderTime *int              `json:"reminder_time"`
	Priority     string            `json:"priority"`
	Emoji        string            `json:"emoji"`
	Categories   []uint            `json:"categories"`
	Repetitions  []RepetitionInput `json:"repetitions"`
}

// UpdateTaskInput 部分更新任务输入
// 所有字段都可选：nil 表示未提供、不修改
// Repetitions/Categories 一旦提供即整体替换旧集合（空列表表示清空）
type UpdateTaskInput struct {
	Title        *string            `json:"title"`
	StartTime    *time.Time         `json:"start_time"`
	EndTime      *time.Time         `json:"end_time"`
	ReminderTime *int               `json:"reminder_time"`
	Priority     *string            `json:"priority"`
	Emoji        *string            `json:"emoji"`
	Categories   *[]uint            `json:"categories"`
	Repetitions  *[]RepetitionInput `json:"repetitions"`
}

// ListTasksInput 任务列表查询输入
type ListTasksInput struct {
	Priority   string
	CategoryID uint
	Ordering   string
	Page       int
	PageSize   int
}

// 排序白名单：请求值 -> SQL排序子句
var taskOrderingWhitelist = map[string]string{
	"start_time":  "start_time ASC",
	"-start_time": "start_time DESC",
	"end_time":    "end_time ASC",
	"-end_time":   "end_time DESC",
	"priority":    "priority ASC",
	"-priority":   "priority DESC",
}

// TaskService 任务服务
// 所有操作显式接收操作者用户ID；他人任务按不存在处理（NotFound）
type TaskService struct {
	repo *repository.TaskRepository
}

// NewTaskService 创建TaskService实例
func NewTaskService(repo *repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

// Create 创建任务
func (s *TaskService) Create(actorID uint, in CreateTaskInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errs.Validation("title is required")
	}

	priority := in.Priority
	if priority == "" {
		priority = model.TaskPriorityNone
	}
	if !model.ValidTaskPriority(priority) {
		return nil, errs.Validation("priority must be one of none/low/medium/high")
	}
	if err := validateTaskTimes(in.StartTime, in.EndTime, in.ReminderTime); err != nil {
		return nil, err
	}

	repetitions, err := buildRepetitions(in.Repetitions)
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		UserID:       actorID,
		Title:        title,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		ReminderTime: in.ReminderTime,
		Priority:     priority,
		Emoji:        in.Emoji,
		Repetitions:  repetitions,
	}
	if err := s.repo.Create(task, in.Categories); err != nil {
		return nil, err
	}
	return task, nil
}

// Get 获取单个任务
func (s *TaskService) Get(actorID, taskID uint) (*model.Task, error) {
	return s.repo.GetByIDForUser(taskID, actorID)
}

// List 获取任务列表
// 非法的过滤/排序取值按原样忽略并回退默认值
func (s *TaskService) List(actorID uint, in ListTasksInput) ([]*model.Task, error) {
	q := repository.TaskQuery{CategoryID: in.CategoryID}

	if model.ValidTaskPriority(in.Priority) {
		q.Priority = in.Priority
	}
	if ordering, ok := taskOrderingWhitelist[in.Ordering]; ok {
		q.Ordering = ordering
	}

	pageSize := in.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	page := in.Page
	if page < 1 {
		page = 1
	}
	q.Limit = pageSize
	q.Offset = (page - 1) * pageSize

	return s.repo.List(actorID, q)
}

// Update 部分更新任务
// 仅合并提供的字段；合并后整体校验，校验失败不落任何修改
// repetitions/categories 提供时在同一事务内整体替换
func (s *TaskService) Update(actorID, taskID uint, in UpdateTaskInput) (*model.Task, error) {
	task, err := s.repo.GetByIDForUser(taskID, actorID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, errs.Validation("title is required")
		}
		task.Title = title
	}
	if in.StartTime != nil {
		task.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		task.EndTime = in.EndTime
	}
	if in.ReminderTime != nil {
		task.ReminderTime = in.ReminderTime
	}
	if in.Priority != nil {
		if !model.ValidTaskPriority(*in.Priority) {
			return nil, errs.Validation("priority must be one of none/low/medium/high")
		}
		task.Priority = *in.Priority
	}
	if in.Emoji != nil {
		task.Emoji = *in.Emoji
	}

	// 合并后的整体校验
	if err := validateTaskTimes(task.StartTime, task.EndTime, task.ReminderTime); err != nil {
		return nil, err
	}

	var repetitions []model.TaskRepetition
	if in.Repetitions != nil {
		repetitions, err = buildRepetitions(*in.Repetitions)
		if err != nil {
			return nil, err
		}
	}

	var categoryIDs []uint
	if in.Categories != nil {
		categoryIDs = *in.Categories
	}

	if err := s.repo.Save(task, repetitions, categoryIDs, in.Repetitions != nil, in.Categories != nil); err != nil {
		return nil, err
	}

	return s.repo.GetByIDForUser(taskID, actorID)
}

// Delete 删除任务及其子记录
func (s *TaskService) Delete(actorID, taskID uint) error {
	task, err := s.repo.GetByIDForUser(taskID, actorID)
	if err != nil {
		return err
	}
	return s.repo.Delete(task.ID)
}

// Complete 追加一条完成记录
// completionTime 为空时取当前时间；非空时必须是合法的ISO时间串
// 不做唯一性限制：同一天允许多次完成（重复型任务）
func (s *TaskService) Complete(actorID, taskID uint, completionTime string) (*model.TaskHistory, error) {
	task, err := s.repo.GetByIDForUser(taskID, actorID)
	if err != nil {
		return nil, err
	}

	t := time.Now()
	if completionTime != "" {
		t, err = parseCompletionTime(completionTime)
		if err != nil {
			return nil, err
		}
	}

	h := &model.TaskHistory{TaskID: task.ID, CompletionTime: t}
	if err := s.repo.CreateHistory(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Uncomplete 删除一条完成记录
// 三种定位方式：指定记录ID、指定日期（删该日最近一条）、不指定（删最近一条）
// 返回被删除的记录供调用方确认
func (s *TaskService) Uncomplete(actorID, taskID uint, completionID uint, date string) (*model.TaskHistory, error) {
	task, err := s.repo.GetByIDForUser(taskID, actorID)
	if err != nil {
		return nil, err
	}

	var h *model.TaskHistory
	switch {
	case completionID > 0:
		h, err = s.repo.GetHistoryByID(completionID, task.ID)
	case date != "":
		var day time.Time
		day, err = time.ParseInLocation("2006-01-02", date, time.Local)
		if err != nil {
			return nil, errs.Validation("invalid date format, use YYYY-MM-DD")
		}
		h, err = s.repo.LatestHistoryOnDate(task.ID, day)
	default:
		h, err = s.repo.LatestHistory(task.ID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteHistory(h.ID); err != nil {
		return nil, err
	}
	return h, nil
}

// History 获取完成记录日志，按时间倒序
func (s *TaskService) History(actorID, taskID uint) ([]*model.TaskHistory, error) {
	task, err := s.repo.GetByIDForUser(taskID, actorID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListHistory(task.ID)
}

// validateTaskTimes 校验时间相关约束（合并后的值）
func validateTaskTimes(start time.Time, end *time.Time, reminder *int) error {
	if end != nil && !end.After(start) {
		return errs.Validation("end_time must be after start_time")
	}
	if reminder != nil && *reminder < 0 {
		return errs.Validation("reminder_time must be a non-negative integer")
	}
	return nil
}

// buildRepetitions 把输入转换为模型，校验频率非空
func buildRepetitions(inputs []RepetitionInput) ([]model.TaskRepetition, error) {
	repetitions := make([]model.TaskRepetition, 0, len(inputs))
	for _, in := range inputs {
		frequency := strings.TrimSpace(in.Frequency)
		if frequency == "" {
			return nil, errs.Validation("repetition frequency is required")
		}
		repetitions = append(repetitions, model.TaskRepetition{
			Frequency: frequency,
			Time:      in.Time,
		})
	}
	return repetitions, nil
}

// parseCompletionTime 解析完成时间，兼容带时区与不带时区的ISO格式
func parseCompletionTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", value, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, errs.Validation("invalid completion_time format, use ISO format")
}
