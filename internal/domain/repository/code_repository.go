package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ctfbot/internal/common"
	"ctfbot/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

type CodeRepository interface {
	// Put stores a pending code, replacing any prior one for the user.
	Put(ctx context.Context, code *model.PendingCode, ttl time.Duration) error
	Get(ctx context.Context, userID string) (*model.PendingCode, error)
	Delete(ctx context.Context, userID string) error
}

type redisCodeRepository struct {
	rdb *redis.Client
}

func NewRedisCodeRepository(rdb *redis.Client) CodeRepository {
	return &redisCodeRepository{rdb: rdb}
}

func codeKey(userID string) string {
	return "verify:code:" + userID
}

func (r *redisCodeRepository) Put(ctx context.Context, code *model.PendingCode, ttl time.Duration) error {
	payload, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("redisCodeRepository.Put marshal: %w", err)
	}
	// The record carries its own expires_at; the key lives twice as long
	// so an expired code is still distinguishable from a missing one.
	if err := r.rdb.Set(ctx, codeKey(code.UserID), payload, 2*ttl).Err(); err != nil {
		return fmt.Errorf("redisCodeRepository.Put: %w", err)
	}
	return nil
}

func (r *redisCodeRepository) Get(ctx context.Context, userID string) (*model.PendingCode, error) {
	payload, err := r.rdb.Get(ctx, codeKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("redisCodeRepository.Get: %w", err)
	}
	code := &model.PendingCode{}
	if err := json.Unmarshal(payload, code); err != nil {
		return nil, fmt.Errorf("redisCodeRepository.Get unmarshal: %w", err)
	}
	return code, nil
}

func (r *redisCodeRepository) Delete(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, codeKey(userID)).Err(); err != nil {
		return fmt.Errorf("redisCodeRepository.Delete: %w", err)
	}
	return nil
}
