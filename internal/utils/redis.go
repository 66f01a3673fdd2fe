package utils

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"passport-map/internal/logger"
)

// OpenRedisFromEnv：REDIS_HOST/PORT/PASS/DB；Ping 失败返回 nil，调用方退回进程内缓存
func OpenRedisFromEnv(ctx context.Context) *redis.Client {
	addr := net.JoinHostPort(env("REDIS_HOST", "127.0.0.1"), env("REDIS_PORT", "6379"))
	db := envInt("REDIS_DB", 0)
	if db < 0 {
		db = 0
	}
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	rc := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASS"), DB: db})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		logger.L().Error("redis_ping_error", "addr", addr, "err", err)
		_ = rc.Close()
		return nil
	}
	logger.L().Info("redis_ping_ok", "addr", addr)
	return rc
}
