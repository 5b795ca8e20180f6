package model

import (
	"time"
)

// User 用户模型
// 用户名与邮箱均唯一（邮箱统一小写存储，保证大小写不敏感）
// 密码仅存储哈希（PasswordHash），不存储明文
// StreakCnt 连续打卡天数，注册时从0开始

type User struct {
	ID           uint       `gorm:"primaryKey"`
	Username     string     `gorm:"type:varchar(64);not null;uniqueIndex;comment:用户名"`
	Email        string     `gorm:"type:varchar(128);not null;uniqueIndex;comment:邮箱(小写)"`
	PasswordHash string     `gorm:"type:varchar(255);not null;comment:密码哈希"`
	GoogleAuthID *string    `gorm:"type:varchar(255);uniqueIndex;comment:Google登录标识"`
	Gender       string     `gorm:"type:varchar(20);comment:性别"`
	BirthDay     *time.Time `gorm:"type:date;comment:生日"`
	StreakCnt    int        `gorm:"not null;default:0;comment:连续打卡天数"`
	CreatedAt    time.Time  `gorm:"comment:创建时间"`
	UpdatedAt    time.Time  `gorm:"comment:更新时间"`
}

func (User) TableName() string { return "user" }
