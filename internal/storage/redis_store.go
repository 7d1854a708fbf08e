// Package storage 用户记录、玩家战绩与排行榜
package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	userKeyPrefix = "user:"
	gameKeyPrefix = "game:"

	// 对局记录过期时间
	gameExpiration = 30 * 24 * time.Hour
)

// User 用户记录
type User struct {
	ID          string
	DisplayName string
	FirstSeen   time.Time
	LastSeen    time.Time
}

// RedisStore Redis 用户存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// UpsertUser 创建或更新用户记录。HSETNX 保留首次出现时间，重复调用结果相同。
func (rs *RedisStore) UpsertUser(ctx context.Context, id, displayName string) error {
	if id == "" {
		return errors.New("empty user id")
	}
	now := strconv.FormatInt(time.Now().Unix(), 10)
	key := userKeyPrefix + id

	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "id", id, "name", displayName, "last_seen", now)
		pipe.HSetNX(ctx, key, "first_seen", now)
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", id, err)
	}
	return nil
}

// GetUser 读取用户记录，不存在时返回 nil
func (rs *RedisStore) GetUser(ctx context.Context, id string) (*User, error) {
	fields, err := rs.client.HGetAll(ctx, userKeyPrefix+id).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	return &User{
		ID:          fields["id"],
		DisplayName: fields["name"],
		FirstSeen:   parseUnix(fields["first_seen"]),
		LastSeen:    parseUnix(fields["last_seen"]),
	}, nil
}

// Ping 检查连接
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// Close 关闭连接
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

func parseUnix(s string) time.Time {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
