package response

import (
	"time"

	"puptime/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// UserInfo 用户信息（隐藏敏感字段）
type UserInfo struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Gender    string `json:"gender,omitempty"`
	BirthDay  string `json:"birth_day,omitempty"`
	StreakCnt int    `json:"streak_cnt"`
	CreatedAt string `json:"created_at"`
}

// FilterUserInfo 过滤用户信息，隐藏敏感字段
func FilterUserInfo(user *model.User) *UserInfo {
	if user == nil {
		return nil
	}

	info := &UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Gender:    user.Gender,
		StreakCnt: user.StreakCnt,
		CreatedAt: user.CreatedAt.Format(timeLayout),
	}
	if user.BirthDay != nil {
		info.BirthDay = user.BirthDay.Format("2006-01-02")
	}
	return info
}

// AuthResponse 注册/登录响应
type AuthResponse struct {
	User        *UserInfo `json:"user"`
	AccessToken string    `json:"access_token"`
}

// FriendshipInfo 好友关系响应
type FriendshipInfo struct {
	ID         uint   `json:"id"`
	SenderID   uint   `json:"sender_id"`
	ReceiverID uint   `json:"receiver_id"`
	Status     string `json:"status"`
	BlockedBy  *uint  `json:"blocked_by,omitempty"`
	SentAt     string `json:"sent_at"`
	AcceptedAt string `json:"accepted_at,omitempty"`
}

// FilterFriendshipInfo 过滤好友关系信息
func FilterFriendshipInfo(f *model.Friendship) *FriendshipInfo {
	if f == nil {
		return nil
	}

	info := &FriendshipInfo{
		ID:         f.ID,
		SenderID:   f.SenderID,
		ReceiverID: f.ReceiverID,
		Status:     f.Status,
		BlockedBy:  f.BlockedByID,
		SentAt:     f.SentAt.Format(timeLayout),
	}
	if f.AcceptedAt != nil {
		info.AcceptedAt = f.AcceptedAt.Format(timeLayout)
	}
	return info
}

// FilterFriendshipList 批量过滤好友关系信息
func FilterFriendshipList(items []*model.Friendship) []*FriendshipInfo {
	result := make([]*FriendshipInfo, 0, len(items))
	for _, f := range items {
		result = append(result, FilterFriendshipInfo(f))
	}
	return result
}

// RepetitionInfo 任务重复规则响应
type RepetitionInfo struct {
	ID        uint    `json:"id"`
	Frequency string  `json:"frequency"`
	Time      *string `json:"time,omitempty"`
}

// CategoryInfo 任务分类响应
type CategoryInfo struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// TaskInfo 任务响应
type TaskInfo struct {
	ID           uint             `json:"id"`
	UserID       uint             `json:"user_id"`
	Title        string           `json:"title"`
	StartTime    string           `json:"start_time"`
	EndTime      string           `json:"end_time,omitempty"`
	ReminderTime *int             `json:"reminder_time,omitempty"`
	Priority     string           `json:"priority"`
	Emoji        string           `json:"emoji,omitempty"`
	Categories   []CategoryInfo   `json:"categories"`
	Repetitions  []RepetitionInfo `json:"repetitions"`
}

// FilterTaskInfo 过滤任务信息（含嵌套的重复规则与分类）
func FilterTaskInfo(t *model.Task) *TaskInfo {
	if t == nil {
		return nil
	}

	info := &TaskInfo{
		ID:           t.ID,
		UserID:       t.UserID,
		Title:        t.Title,
		StartTime:    t.StartTime.Format(time.RFC3339),
		ReminderTime: t.ReminderTime,
		Priority:     t.Priority,
		Emoji:        t.Emoji,
		Categories:   make([]CategoryInfo, 0, len(t.Categories)),
		Repetitions:  make([]RepetitionInfo, 0, len(t.Repetitions)),
	}
	if t.EndTime != nil {
		info.EndTime = t.EndTime.Format(time.RFC3339)
	}
	for _, c := range t.Categories {
		info.Categories = append(info.Categories, CategoryInfo{ID: c.ID, Name: c.Name})
	}
	for _, r := range t.Repetitions {
		info.Repetitions = append(info.Repetitions, RepetitionInfo{ID: r.ID, Frequency: r.Frequency, Time: r.Time})
	}
	return info
}

// FilterTaskList 批量过滤任务信息
func FilterTaskList(items []*model.Task) []*TaskInfo {
	result := make([]*TaskInfo, 0, len(items))
	for _, t := range items {
		result = append(result, FilterTaskInfo(t))
	}
	return result
}

// HistoryInfo 任务完成记录响应
type HistoryInfo struct {
	ID             uint   `json:"id"`
	TaskID         uint   `json:"task"`
	CompletionTime string `json:"completion_time"`
	Date           string `json:"date"`
}

// FilterHistoryInfo 过滤任务完成记录
func FilterHistoryInfo(h *model.TaskHistory) *HistoryInfo {
	if h == nil {
		return nil
	}
	return &HistoryInfo{
		ID:             h.ID,
		TaskID:         h.TaskID,
		CompletionTime: h.CompletionTime.Format(time.RFC3339),
		Date:           h.CompletionTime.Format("2006-01-02"),
	}
}

// FilterHistoryList 批量过滤任务完成记录
func FilterHistoryList(items []*model.TaskHistory) []*HistoryInfo {
	result := make([]*HistoryInfo, 0, len(items))
	for _, h := range items {
		result = append(result, FilterHistoryInfo(h))
	}
	return result
}
