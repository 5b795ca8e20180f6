package service

import (
	"time"

	"puptime/internal/model"
	"puptime/internal/repository"
	"puptime/pkg/errs"
	"puptime/pkg/logger"

	"go.uber.org/zap"
)

// PurgeScheduler 取消记录的延迟清理调度器
// 任务只携带好友关系ID，不携带状态快照，消费方执行前必须重新读取并校验状态
type PurgeScheduler interface {
	SchedulePurge(friendshipID uint, delay time.Duration) error
}

// Notifier 好友事件的在线推送（尽力而为，失败不影响业务结果）
type Notifier interface {
	Push(userID uint, event string, payload map[string]interface{})
}

// FriendshipService 好友关系服务
// 所有写操作都显式接收操作者用户ID，按角色校验权限
type FriendshipService struct {
	repo       *repository.FriendshipRepository
	userRepo   *repository.UserRepository
	scheduler  PurgeScheduler
	notifier   Notifier // 可为nil（测试或未启用WebSocket时）
	purgeDelay time.Duration
}

// NewFriendshipService 创建FriendshipService实例
func NewFriendshipService(
	repo *repository.FriendshipRepository,
	userRepo *repository.UserRepository,
	scheduler PurgeScheduler,
	notifier Notifier,
	purgeDelay time.Duration,
) *FriendshipService {
	return &FriendshipService{
		repo:       repo,
		userRepo:   userRepo,
		scheduler:  scheduler,
		notifier:   notifier,
		purgeDelay: purgeDelay,
	}
}

// Request 发送好友请求
// 不允许向自己发送；该无序对已存在任何记录（含未清理的 cancelled 和 blocked）时拒绝
func (s *FriendshipService) Request(actorID, receiverID uint) (*model.Friendship, error) {
	if actorID == receiverID {
		return nil, errs.Validation("cannot send a friend request to yourself")
	}

	if _, err := s.userRepo.GetByID(receiverID); err != nil {
		return nil, err
	}

	f := &model.Friendship{
		SenderID:   actorID,
		ReceiverID: receiverID,
		Status:     model.FriendshipStatusPending,
		SentAt:     time.Now(),
	}
	if err := s.repo.Create(f); err != nil {
		return nil, err
	}

	s.push(receiverID, "friend_request", map[string]interface{}{
		"friendship_id": f.ID,
		"sender_id":     actorID,
	})

	return f, nil
}

// Accept 接受好友请求
// 仅接收者可接受，且记录必须处于 pending 状态
func (s *FriendshipService) Accept(actorID, friendshipID uint) (*model.Friendship, error) {
	f, err := s.repo.GetByID(friendshipID)
	if err != nil {
		return nil, err
	}
	if f.ReceiverID != actorID {
		return nil, errs.Authorization("you can only accept friend requests sent to you")
	}
	if f.Status != model.FriendshipStatusPending {
		return nil, errs.State("relationship is not pending, but %s", f.Status)
	}

	now := time.Now()
	ok, err := s.repo.Accept(friendshipID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 条件更新未命中：状态在读取后被并发修改，按当前状态报错
		return nil, s.stateMismatch(friendshipID)
	}

	f.Status = model.FriendshipStatusAccepted
	f.AcceptedAt = &now

	s.push(f.SenderID, "friend_accepted", map[string]interface{}{
		"friendship_id": f.ID,
		"receiver_id":   actorID,
	})

	return f, nil
}

// Cancel 取消好友请求
// 仅发送者可取消；记录先置为 cancelled，再入队一个延迟清理任务
// 清理任务只携带记录ID，到期后由消费方重新校验状态再删除
func (s *FriendshipService) Cancel(actorID, friendshipID uint) (*model.Friendship, error) {
	f, err := s.repo.GetByID(friendshipID)
	if err != nil {
		return nil, err
	}
	if f.SenderID != actorID {
		return nil, errs.Authorization("you can only cancel friend requests you have sent")
	}
	if f.Status != model.FriendshipStatusPending {
		return nil, errs.State("relationship is not pending, but %s", f.Status)
	}

	ok, err := s.repo.Cancel(friendshipID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.stateMismatch(friendshipID)
	}
	f.Status = model.FriendshipStatusCancelled

	if err := s.scheduler.SchedulePurge(friendshipID, s.purgeDelay); err != nil {
		// 记录已取消但清理任务入队失败，记录错误便于人工补偿
		logger.Error("清理任务入队失败",
			zap.Uint("friendship_id", friendshipID),
			zap.Error(err),
		)
		return nil, errs.Internal(err, "schedule purge failed")
	}

	return f, nil
}

// PurgeCancelled 延迟清理的消费入口
// 仅当记录此刻仍为 cancelled 时删除；记录已不存在或状态不符时静默跳过
func (s *FriendshipService) PurgeCancelled(friendshipID uint) error {
	deleted, err := s.repo.DeleteIfCancelled(friendshipID)
	if err != nil {
		return err
	}
	if !deleted {
		logger.Debug("清理任务跳过：记录不存在或状态已变化",
			zap.Uint("friendship_id", friendshipID),
		)
	}
	return nil
}

// Block 拉黑对方
// 关系双方均可操作，任意非 blocked 状态都允许进入 blocked
func (s *FriendshipService) Block(actorID, friendshipID uint) (*model.Friendship, error) {
	f, err := s.repo.GetByID(friendshipID)
	if err != nil {
		return nil, err
	}
	if actorID != f.SenderID && actorID != f.ReceiverID {
		return nil, errs.Authorization("you can only block users you have a relationship with")
	}
	if f.Status == model.FriendshipStatusBlocked {
		return nil, errs.State("this user is already blocked")
	}

	ok, err := s.repo.Block(friendshipID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.State("this user is already blocked")
	}

	f.Status = model.FriendshipStatusBlocked
	f.BlockedByID = &actorID
	return f, nil
}

// Unblock 解除拉黑
// 仅拉黑操作者本人可解除；解除即整行删除，而不是状态回退
func (s *FriendshipService) Unblock(actorID, friendshipID uint) error {
	f, err := s.repo.GetByID(friendshipID)
	if err != nil {
		return err
	}
	if f.Status != model.FriendshipStatusBlocked {
		return errs.State("this user is not blocked, but %s", f.Status)
	}
	if f.BlockedByID == nil || *f.BlockedByID != actorID {
		return errs.Authorization("you can only unblock users you have blocked")
	}

	return s.repo.Delete(friendshipID)
}

// Friends 获取已接受的好友关系列表（双向）
func (s *FriendshipService) Friends(actorID uint) ([]*model.Friendship, error) {
	return s.repo.ListAccepted(actorID)
}

// Pending 获取与操作者相关的待处理请求
func (s *FriendshipService) Pending(actorID uint) ([]*model.Friendship, error) {
	return s.repo.ListPending(actorID)
}

// Blocked 获取操作者拉黑的关系列表
func (s *FriendshipService) Blocked(actorID uint) ([]*model.Friendship, error) {
	return s.repo.ListBlockedBy(actorID)
}

// stateMismatch 条件更新未命中后重新读取，生成带当前状态的错误
func (s *FriendshipService) stateMismatch(friendshipID uint) error {
	f, err := s.repo.GetByID(friendshipID)
	if err != nil {
		return err
	}
	return errs.State("relationship is not pending, but %s", f.Status)
}

// push 在线推送事件，notifier 未配置时跳过
func (s *FriendshipService) push(userID uint, event string, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Push(userID, event, payload)
}
