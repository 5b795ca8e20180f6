package redis

import (
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// 延迟清理队列：sorted set，member为好友关系ID，score为到期时间戳
const purgeQueueKey = "friendship:purge_queue"

// PurgeQueue 取消好友记录的持久化延迟清理队列
// 队列条目只携带记录ID，不携带状态快照
// 同一记录重复入队时仅覆盖到期时间
type PurgeQueue struct{}

// NewPurgeQueue 创建PurgeQueue实例
func NewPurgeQueue() *PurgeQueue {
	return &PurgeQueue{}
}

// SchedulePurge 在 delay 之后到期的清理任务入队
func (q *PurgeQueue) SchedulePurge(friendshipID uint, delay time.Duration) error {
	if client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	fireAt := time.Now().Add(delay).Unix()
	return client.ZAdd(ctx, purgeQueueKey, redis.Z{
		Score:  float64(fireAt),
		Member: strconv.FormatUint(uint64(friendshipID), 10),
	}).Err()
}

// PopDue 取出所有已到期的清理任务ID
// 先读后删，至少一次语义：进程在两步之间崩溃时条目会留在队列中下轮重取
// 消费方按状态条件删除，重复执行是无害的
func (q *PurgeQueue) PopDue(now time.Time) ([]uint, error) {
	if client == nil {
		return nil, fmt.Errorf("redis客户端未初始化")
	}

	members, err := client.ZRangeByScore(ctx, purgeQueueKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 32)
		if err != nil {
			// 非法条目直接移除，避免每轮重复报错
			_ = client.ZRem(ctx, purgeQueueKey, m).Err()
			continue
		}
		if err := client.ZRem(ctx, purgeQueueKey, m).Err(); err != nil {
			return ids, err
		}
		ids = append(ids, uint(id))
	}

	return ids, nil
}
