package model

import (
	"time"
)

// 任务优先级
const (
	TaskPriorityNone   = "none"
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// ValidTaskPriority 判断优先级取值是否合法
func ValidTaskPriority(p string) bool {
	switch p {
	case TaskPriorityNone, TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task 任务模型
// 归属于唯一的用户；EndTime 若存在必须严格晚于 StartTime
// Repetitions 为替换式写入的子集合（更新时整体删除后重建）
// History 为只追加的完成记录日志

type Task struct {
	ID           uint               `gorm:"primaryKey"`
	UserID       uint               `gorm:"not null;index;comment:所属用户ID"`
	Title        string             `gorm:"type:varchar(200);not null;comment:标题"`
	StartTime    time.Time          `gorm:"not null;index;comment:开始时间"`
	EndTime      *time.Time         `gorm:"comment:结束时间"`
	ReminderTime *int               `gorm:"comment:提醒提前量(分钟)"`
	Priority     string             `gorm:"type:varchar(16);not null;default:'none';comment:优先级"`
	Emoji        string             `gorm:"type:varchar(16);comment:表情"`
	Categories   []InterestCategory `gorm:"many2many:task_category;constraint:OnDelete:CASCADE"`
	Repetitions  []TaskRepetition   `gorm:"constraint:OnDelete:CASCADE"`
	History      []TaskHistory      `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time          `gorm:"comment:创建时间"`
	UpdatedAt    time.Time          `gorm:"comment:更新时间"`
}

func (Task) TableName() string { return "task" }

// TaskRepetition 任务重复规则
// Frequency: daily/weekly/monthly 等频率标签
// Time: 可选的触发时刻（HH:MM）

type TaskRepetition struct {
	ID        uint    `gorm:"primaryKey"`
	TaskID    uint    `gorm:"not null;index;comment:所属任务ID"`
	Frequency string  `gorm:"type:varchar(32);not null;comment:重复频率"`
	Time      *string `gorm:"type:varchar(8);comment:触发时刻(HH:MM)"`
}

func (TaskRepetition) TableName() string { return "task_repetition" }

// TaskHistory 任务完成记录
// 只追加：记录只插入或单条删除，从不更新
// 同一天允许多条记录（重复型任务一天可完成多次）

type TaskHistory struct {
	ID             uint      `gorm:"primaryKey"`
	TaskID         uint      `gorm:"not null;index;comment:所属任务ID"`
	CompletionTime time.Time `gorm:"not null;index;comment:完成时间"`
}

func (TaskHistory) TableName() string { return "task_history" }
