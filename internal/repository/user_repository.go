package repository

import (
	"errors"
	"strings"

	"puptime/internal/model"
	"puptime/pkg/errs"

	"gorm.io/gorm"
)

// UserRepository 用户数据仓储
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建UserRepository实例
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户，唯一索引冲突翻译为业务冲突错误
func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.Conflict("username or email already exists")
		}
		return errs.Internal(err, "create user failed")
	}
	return nil
}

// GetByID 根据ID获取用户
func (r *UserRepository) GetByID(id uint) (*model.User, error) {
	var u model.User
	if err := r.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("user not found")
		}
		return nil, errs.Internal(err, "query user failed")
	}
	return &u, nil
}

// GetByEmail 根据邮箱获取用户（大小写不敏感，邮箱统一小写存储）
func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var u model.User
	if err := r.db.Where("email = ?", strings.ToLower(email)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("user not found")
		}
		return nil, errs.Internal(err, "query user failed")
	}
	return &u, nil
}

// UsernameExists 用户名是否已被占用（大小写不敏感），excludeID 排除自身
func (r *UserRepository) UsernameExists(username string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.User{}).
		Where("LOWER(username) = ? AND id <> ?", strings.ToLower(username), excludeID).
		Count(&count).Error
	if err != nil {
		return false, errs.Internal(err, "query username failed")
	}
	return count > 0, nil
}

// EmailExists 邮箱是否已被占用，excludeID 排除自身
func (r *UserRepository) EmailExists(email string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.User{}).
		Where("email = ? AND id <> ?", strings.ToLower(email), excludeID).
		Count(&count).Error
	if err != nil {
		return false, errs.Internal(err, "query email failed")
	}
	return count > 0, nil
}

// Save 保存用户修改
func (r *UserRepository) Save(user *model.User) error {
	if err := r.db.Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.Conflict("username or email already exists")
		}
		return errs.Internal(err, "save user failed")
	}
	return nil
}

// SearchByUsername 按用户名子串搜索用户（用于加好友前的查找）
func (r *UserRepository) SearchByUsername(keyword string, limit int) ([]*model.User, error) {
	var users []*model.User
	err := r.db.Where("username LIKE ?", "%"+keyword+"%").
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, errs.Internal(err, "search users failed")
	}
	return users, nil
}

// DeleteCascade 删除用户及其所有归属数据
// 单事务内级联删除：任务的分类关联/重复规则/完成记录、任务本身、
// 该用户作为任一方的好友关系，最后删除用户
func (r *UserRepository) DeleteCascade(userID uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// 子查询每次重新构建，避免复用同一builder
		taskIDs := func() *gorm.DB {
			return tx.Model(&model.Task{}).Select("id").Where("user_id = ?", userID)
		}

		if err := tx.Exec("DELETE FROM task_category WHERE task_id IN (?)", taskIDs()).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id IN (?)", taskIDs()).Delete(&model.TaskRepetition{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id IN (?)", taskIDs()).Delete(&model.TaskHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sender_id = ? OR receiver_id = ?", userID, userID).Delete(&model.Friendship{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, userID).Error
	})
	if err != nil {
		return errs.Internal(err, "delete user failed")
	}
	return nil
}
