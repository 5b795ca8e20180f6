package service

import (
	"fmt"
	"time"

	"puptime/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PurgeSource 提供到期的清理任务ID
// 实现需保证至少一次投递：取出的ID即使处理失败也只影响本轮
type PurgeSource interface {
	PopDue(now time.Time) ([]uint, error)
}

// PurgeRunner 周期性拉取到期的清理任务并执行
// 任务的到期时间记录在队列里，轮询只会取出已到期的条目，
// 因此清理永远不会早于名义延迟执行，只可能晚
type PurgeRunner struct {
	cron     *cron.Cron
	source   PurgeSource
	svc      *FriendshipService
	interval time.Duration
}

// NewPurgeRunner 创建PurgeRunner实例
func NewPurgeRunner(source PurgeSource, svc *FriendshipService, interval time.Duration) *PurgeRunner {
	return &PurgeRunner{
		cron:     cron.New(),
		source:   source,
		svc:      svc,
		interval: interval,
	}
}

// Start 启动轮询
func (r *PurgeRunner) Start() error {
	spec := fmt.Sprintf("@every %ds", int(r.interval.Seconds()))
	if _, err := r.cron.AddFunc(spec, r.runOnce); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop 停止轮询并等待在途任务结束
func (r *PurgeRunner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// runOnce 单轮：取出全部到期任务逐个清理
func (r *PurgeRunner) runOnce() {
	ids, err := r.source.PopDue(time.Now())
	if err != nil {
		logger.Error("拉取到期清理任务失败", zap.Error(err))
		return
	}

	for _, id := range ids {
		if err := r.svc.PurgeCancelled(id); err != nil {
			logger.Error("清理取消的好友记录失败",
				zap.Uint("friendship_id", id),
				zap.Error(err),
			)
		}
	}
}
