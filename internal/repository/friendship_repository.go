package repository

import (
	"errors"
	"time"

	"puptime/internal/model"
	"puptime/pkg/errs"

	"gorm.io/gorm"
)

// FriendshipRepository 好友关系数据仓储
type FriendshipRepository struct {
	db *gorm.DB
}

// NewFriendshipRepository 创建FriendshipRepository实例
func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Create 创建好友请求
// 事务内先做双向存在性检查（任意状态的记录都算占用该无序对），再插入
// 并发下无论同向还是反向的重复插入，都由归一化的 (pair_lo_id, pair_hi_id)
// 唯一索引兜底，索引冲突同样翻译为业务冲突错误
func (r *FriendshipRepository) Create(f *model.Friendship) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.Friendship{}).
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
				f.SenderID, f.ReceiverID, f.ReceiverID, f.SenderID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return errs.Conflict("friendship already exists or pending")
		}
		return tx.Create(f).Error
	})
	if err != nil {
		if errs.Is(err, errs.KindConflict) {
			return err
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.Conflict("friendship already exists or pending")
		}
		return errs.Internal(err, "create friendship failed")
	}
	return nil
}

// GetByID 根据ID获取好友关系
func (r *FriendshipRepository) GetByID(id uint) (*model.Friendship, error) {
	var f model.Friendship
	if err := r.db.First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("friendship not found")
		}
		return nil, errs.Internal(err, "query friendship failed")
	}
	return &f, nil
}

// Accept 把 pending 记录置为 accepted
// 条件更新保证与其他请求竞争时只有一方生效
func (r *FriendshipRepository) Accept(id uint, acceptedAt time.Time) (bool, error) {
	result := r.db.Model(&model.Friendship{}).
		Where("id = ? AND status = ?", id, model.FriendshipStatusPending).
		Updates(map[string]interface{}{
			"status":      model.FriendshipStatusAccepted,
			"accepted_at": acceptedAt,
		})
	if result.Error != nil {
		return false, errs.Internal(result.Error, "accept friendship failed")
	}
	return result.RowsAffected > 0, nil
}

// Cancel 把 pending 记录置为 cancelled
func (r *FriendshipRepository) Cancel(id uint) (bool, error) {
	result := r.db.Model(&model.Friendship{}).
		Where("id = ? AND status = ?", id, model.FriendshipStatusPending).
		Update("status", model.FriendshipStatusCancelled)
	if result.Error != nil {
		return false, errs.Internal(result.Error, "cancel friendship failed")
	}
	return result.RowsAffected > 0, nil
}

// Block 把非 blocked 记录置为 blocked 并记录操作者
func (r *FriendshipRepository) Block(id uint, blockedBy uint) (bool, error) {
	result := r.db.Model(&model.Friendship{}).
		Where("id = ? AND status <> ?", id, model.FriendshipStatusBlocked).
		Updates(map[string]interface{}{
			"status":        model.FriendshipStatusBlocked,
			"blocked_by_id": blockedBy,
		})
	if result.Error != nil {
		return false, errs.Internal(result.Error, "block friendship failed")
	}
	return result.RowsAffected > 0, nil
}

// Delete 删除整条记录（解除拉黑时使用）
func (r *FriendshipRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Friendship{}, id).Error; err != nil {
		return errs.Internal(err, "delete friendship failed")
	}
	return nil
}

// DeleteIfCancelled 仅当记录仍为 cancelled 时删除
// 延迟清理任务使用：记录已不存在或状态已变化时静默跳过
func (r *FriendshipRepository) DeleteIfCancelled(id uint) (bool, error) {
	result := r.db.Where("id = ? AND status = ?", id, model.FriendshipStatusCancelled).
		Delete(&model.Friendship{})
	if result.Error != nil {
		return false, errs.Internal(result.Error, "purge friendship failed")
	}
	return result.RowsAffected > 0, nil
}

// ListAccepted 获取用户已接受的好友关系（双向）
func (r *FriendshipRepository) ListAccepted(userID uint) ([]*model.Friendship, error) {
	var items []*model.Friendship
	err := r.db.Where("(sender_id = ? OR receiver_id = ?) AND status = ?",
		userID, userID, model.FriendshipStatusAccepted).
		Order("accepted_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, errs.Internal(err, "list friendships failed")
	}
	return items, nil
}

// ListPending 获取用户相关的待处理请求（发出与收到的都含）
func (r *FriendshipRepository) ListPending(userID uint) ([]*model.Friendship, error) {
	var items []*model.Friendship
	err := r.db.Where("(sender_id = ? OR receiver_id = ?) AND status = ?",
		userID, userID, model.FriendshipStatusPending).
		Order("sent_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, errs.Internal(err, "list pending friendships failed")
	}
	return items, nil
}

// ListBlockedBy 获取该用户拉黑的关系记录
func (r *FriendshipRepository) ListBlockedBy(userID uint) ([]*model.Friendship, error) {
	var items []*model.Friendship
	err := r.db.Where("blocked_by_id = ? AND status = ?", userID, model.FriendshipStatusBlocked).
		Order("sent_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, errs.Internal(err, "list blocked friendships failed")
	}
	return items, nil
}
