package jobstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store 定时任务的 Redis 状态位：
//   - 互斥锁（SET NX + TTL），同名任务重叠触发时后来者跳过本轮，
//     等下一个调度周期重试；
//   - 最近一次运行结果快照，给状态接口回读。
type Store struct {
	rdb       *redis.Client
	lockTTL   time.Duration
	resultTTL time.Duration
}

func NewStore(rdb *redis.Client, lockTTL time.Duration) *Store {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Minute
	}
	return &Store{rdb: rdb, lockTTL: lockTTL, resultTTL: 7 * 24 * time.Hour}
}

func lockKey(job string) string { return fmt.Sprintf("jobs:lock:%s", job) }
func lastKey(job string) string { return fmt.Sprintf("jobs:last:%s", job) }

// 比对 token 再删：跑超过 TTL 的任务不能误删继任者的锁
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// TryLock 抢锁成功时返回本次运行的 token，Unlock 要带着它
func (s *Store) TryLock(ctx context.Context, job string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := s.rdb.SetNX(ctx, lockKey(job), token, s.lockTTL).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (s *Store) Unlock(ctx context.Context, job, token string) {
	_ = unlockScript.Run(ctx, s.rdb, []string{lockKey(job)}, token).Err()
}

// RunRecord 快照里除结果外附带运行元数据
type RunRecord struct {
	Job        string    `json:"job"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	Result     any       `json:"result,omitempty"`
}

func (s *Store) SaveResult(ctx context.Context, rec RunRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, lastKey(rec.Job), b, s.resultTTL).Err()
}

func (s *Store) LastResult(ctx context.Context, job string) (json.RawMessage, error) {
	b, err := s.rdb.Get(ctx, lastKey(job)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
