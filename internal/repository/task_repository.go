package repository

import (
	"errors"
	"time"

	"puptime/internal/model"
	"puptime/pkg/errs"

	"gorm.io/gorm"
)

// TaskQuery 任务列表查询条件
type TaskQuery struct {
	Priority   string // 按优先级过滤，空串不过滤
	CategoryID uint   // 按分类过滤，0不过滤
	Ordering   string // 排序字段，已在service层做白名单校验
	Limit      int
	Offset     int
}

// TaskRepository 任务数据仓储
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository 创建TaskRepository实例
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create 创建任务
// 嵌套的重复规则随任务一并写入，分类按ID解析后建立关联，整体在一个事务内
func (r *TaskRepository) Create(task *model.Task, categoryIDs []uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if len(categoryIDs) > 0 {
			var categories []model.InterestCategory
			if err := tx.Find(&categories, categoryIDs).Error; err != nil {
				return err
			}
			if len(categories) != len(categoryIDs) {
				return errs.Validation("unknown category id")
			}
			task.Categories = categories
		}
		return tx.Create(task).Error
	})
	if err != nil {
		if errs.Is(err, errs.KindValidation) {
			return err
		}
		return errs.Internal(err, "create task failed")
	}
	return nil
}

// GetByIDForUser 获取指定用户的任务
// 所有权折叠进查询条件：他人任务与不存在的任务同样返回 NotFound
func (r *TaskRepository) GetByIDForUser(taskID, userID uint) (*model.Task, error) {
	var task model.Task
	err := r.db.Preload("Categories").Preload("Repetitions").
		Where("id = ? AND user_id = ?", taskID, userID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("task not found")
		}
		return nil, errs.Internal(err, "query task failed")
	}
	return &task, nil
}

// List 获取用户的任务列表
func (r *TaskRepository) List(userID uint, q TaskQuery) ([]*model.Task, error) {
	var tasks []*model.Task

	query := r.db.Preload("Categories").Preload("Repetitions").
		Where("user_id = ?", userID)

	if q.Priority != "" {
		query = query.Where("priority = ?", q.Priority)
	}
	if q.CategoryID > 0 {
		query = query.Where("id IN (?)",
			r.db.Table("task_category").Select("task_id").Where("interest_category_id = ?", q.CategoryID))
	}

	ordering := q.Ordering
	if ordering == "" {
		ordering = "start_time DESC"
	}

	err := query.Order(ordering).Limit(q.Limit).Offset(q.Offset).Find(&tasks).Error
	if err != nil {
		return nil, errs.Internal(err, "list tasks failed")
	}
	return tasks, nil
}

// Save 保存任务字段修改，并按需整体替换子集合
// repetitions 非nil时：先删旧集合再插入新集合（替换式写入，不做diff）
// categoryIDs 非nil时：整体替换分类关联
// 全部在同一事务内完成，外部请求不会观察到中间状态
func (r *TaskRepository) Save(task *model.Task, repetitions []model.TaskRepetition, categoryIDs []uint, replaceReps, replaceCats bool) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories", "Repetitions", "History").Save(task).Error; err != nil {
			return err
		}

		if replaceReps {
			if err := tx.Where("task_id = ?", task.ID).Delete(&model.TaskRepetition{}).Error; err != nil {
				return err
			}
			for i := range repetitions {
				repetitions[i].ID = 0
				repetitions[i].TaskID = task.ID
			}
			if len(repetitions) > 0 {
				if err := tx.Create(&repetitions).Error; err != nil {
					return err
				}
			}
		}

		if replaceCats {
			var categories []model.InterestCategory
			if len(categoryIDs) > 0 {
				if err := tx.Find(&categories, categoryIDs).Error; err != nil {
					return err
				}
				if len(categories) != len(categoryIDs) {
					return errs.Validation("unknown category id")
				}
			}
			if err := tx.Model(task).Association("Categories").Replace(categories); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errs.Is(err, errs.KindValidation) {
			return err
		}
		return errs.Internal(err, "save task failed")
	}
	return nil
}

// Delete 删除任务及其子记录
func (r *TaskRepository) Delete(taskID uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_category WHERE task_id = ?", taskID).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&model.TaskRepetition{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&model.TaskHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Task{}, taskID).Error
	})
	if err != nil {
		return errs.Internal(err, "delete task failed")
	}
	return nil
}

// CreateHistory 追加一条完成记录
func (r *TaskRepository) CreateHistory(h *model.TaskHistory) error {
	if err := r.db.Create(h).Error; err != nil {
		return errs.Internal(err, "create task history failed")
	}
	return nil
}

// GetHistoryByID 获取指定任务下的完成记录
func (r *TaskRepository) GetHistoryByID(historyID, taskID uint) (*model.TaskHistory, error) {
	var h model.TaskHistory
	err := r.db.Where("id = ? AND task_id = ?", historyID, taskID).First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("completion not found for this task")
		}
		return nil, errs.Internal(err, "query task history failed")
	}
	return &h, nil
}

// LatestHistory 获取任务最近一条完成记录
func (r *TaskRepository) LatestHistory(taskID uint) (*model.TaskHistory, error) {
	var h model.TaskHistory
	err := r.db.Where("task_id = ?", taskID).
		Order("completion_time DESC").
		First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("no completions found for this task")
		}
		return nil, errs.Internal(err, "query task history failed")
	}
	return &h, nil
}

// LatestHistoryOnDate 获取任务在指定日期内最近一条完成记录
// 按 completion_time 截断到日比较：[day 00:00, 次日 00:00)
func (r *TaskRepository) LatestHistoryOnDate(taskID uint, day time.Time) (*model.TaskHistory, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var h model.TaskHistory
	err := r.db.Where("task_id = ? AND completion_time >= ? AND completion_time < ?", taskID, start, end).
		Order("completion_time DESC").
		First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("no completions found for %s", day.Format("2006-01-02"))
		}
		return nil, errs.Internal(err, "query task history failed")
	}
	return &h, nil
}

// DeleteHistory 删除单条完成记录
func (r *TaskRepository) DeleteHistory(historyID uint) error {
	if err := r.db.Delete(&model.TaskHistory{}, historyID).Error; err != nil {
		return errs.Internal(err, "delete task history failed")
	}
	return nil
}

// ListHistory 获取任务完成记录，按时间倒序
func (r *TaskRepository) ListHistory(taskID uint) ([]*model.TaskHistory, error) {
	var items []*model.TaskHistory
	err := r.db.Where("task_id = ?", taskID).
		Order("completion_time DESC").
		Find(&items).Error
	if err != nil {
		return nil, errs.Internal(err, "list task history failed")
	}
	return items, nil
}
