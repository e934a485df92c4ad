package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
)

var ErrNoProgress = errors.New("没有正在进行的排课进度")

// Tracker 使用 redis 保存排课进度和取消请求
// 进度只在排课进行中有意义，最终结果以数据库为准，因此所有的 key 都带有过期时间
type Tracker struct {
	rdb        *redis.Client
	expiration time.Duration
}

func NewTracker(rdb *redis.Client, expiration time.Duration) *Tracker {
	return &Tracker{
		rdb:        rdb,
		expiration: expiration,
	}
}

type progressHash struct {
	Generation     int     `redis:"generation"`
	BestFitness    float64 `redis:"best_fitness"`
	OptimumReached bool    `redis:"optimum_reached"`
}

func progressKey(generationID int64) string {
	return fmt.Sprintf("generation_%d_progress", generationID)
}

func cancelKey(generationID int64) string {
	return fmt.Sprintf("generation_%d_cancel", generationID)
}

func (t *Tracker) Publish(ctx context.Context, generationID int64, p domain.GenerationProgress) error {
	key := progressKey(generationID)

	_, err := t.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"generation", p.Generation,
			"best_fitness", p.BestFitness,
			"optimum_reached", p.OptimumReached,
		)
		pipe.Expire(ctx, key, t.expiration)
		return nil
	})
	return err
}

func (t *Tracker) Get(ctx context.Context, generationID int64) (*domain.GenerationProgress, error) {
	cmd := t.rdb.HGetAll(ctx, progressKey(generationID))
	values, err := cmd.Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrNoProgress
	}

	var h progressHash
	if err := cmd.Scan(&h); err != nil {
		return nil, err
	}

	return &domain.GenerationProgress{
		Generation:     h.Generation,
		BestFitness:    h.BestFitness,
		OptimumReached: h.OptimumReached,
	}, nil
}

func (t *Tracker) RequestCancel(ctx context.Context, generationID int64) error {
	return t.rdb.Set(ctx, cancelKey(generationID), 1, t.expiration).Err()
}

func (t *Tracker) CancelRequested(ctx context.Context, generationID int64) (bool, error) {
	n, err := t.rdb.Exists(ctx, cancelKey(generationID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear 在排课结束后删除进度和取消请求
func (t *Tracker) Clear(ctx context.Context, generationID int64) error {
	return t.rdb.Del(ctx, progressKey(generationID), cancelKey(generationID)).Err()
}
