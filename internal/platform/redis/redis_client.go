// Package redis はRedisクライアントの生成を提供します。
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// pingTimeout bounds the startup connectivity check.
const pingTimeout = 3 * time.Second

// Options are the connection settings for NewRedisClient.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient は接続確認に成功したクライアントを返します。
// 失敗した場合はクライアントを閉じてエラーを返します。
func NewRedisClient(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error().Err(err).Str("address", opts.Addr).Msg("redis connection failed")
		_ = rdb.Close()
		return nil, err
	}

	log.Info().Str("address", opts.Addr).Msg("redis connection successful")
	return rdb, nil
}
