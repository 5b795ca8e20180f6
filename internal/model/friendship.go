package model

import (
	"time"

	"gorm.io/gorm"
)

// 好友关系状态
const (
	FriendshipStatusPending   = "pending"
	FriendshipStatusAccepted  = "accepted"
	FriendshipStatusCancelled = "cancelled"
	FriendshipStatusBlocked   = "blocked"
)

// Friendship 好友关系
// 记录按方向存储（sender -> receiver），角色校验直接读原始方向
// 无序对的唯一性由归一化的 (pair_lo_id, pair_hi_id) 复合唯一索引保证：
// 两列在 BeforeCreate 中按ID大小排序写入，A->B 与 B->A 落在同一索引键上，
// 任意方向的并发重复插入都会触发索引冲突
// BlockedByID 仅在 blocked 状态下非空，AcceptedAt 仅在 accepted 状态下非空
// 记录被拉黑解除或清理时整行删除（硬删除），不做软删除，否则残留记录会一直挡住重新请求

type Friendship struct {
	ID          uint       `gorm:"primaryKey"`
	SenderID    uint       `gorm:"not null;index;comment:请求发起者ID"`
	ReceiverID  uint       `gorm:"not null;index;comment:请求接收者ID"`
	PairLoID    uint       `gorm:"not null;index:idx_friendship_pair,unique;comment:无序对较小ID"`
	PairHiID    uint       `gorm:"not null;index:idx_friendship_pair,unique;comment:无序对较大ID"`
	Status      string     `gorm:"type:varchar(32);not null;default:'pending';comment:关系状态"`
	BlockedByID *uint      `gorm:"index;comment:拉黑操作者ID"`
	SentAt      time.Time  `gorm:"autoCreateTime;comment:请求发送时间"`
	AcceptedAt  *time.Time `gorm:"comment:接受时间"`
}

func (Friendship) TableName() string { return "friendship" }

// BeforeCreate 归一化无序对列，保证唯一索引与插入方向无关
func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	f.PairLoID, f.PairHiID = f.SenderID, f.ReceiverID
	if f.PairLoID > f.PairHiID {
		f.PairLoID, f.PairHiID = f.PairHiID, f.PairLoID
	}
	return nil
}
