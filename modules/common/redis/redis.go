package redis

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"carscene-server/modules/common/config"
	"github.com/redis/go-redis/v9"
)

// Connect - 비디오 작업 큐용 Redis 연결. ping 실패 시 nil 반환 (호출부에서 fatal 처리)
func Connect(cfg *config.Config) *redis.Client {
	log.Printf("🔌 Connecting to Redis: %s", cfg.GetRedisAddr())

	var tlsConfig *tls.Config
	if cfg.RedisUseTLS {
		// 관리형 Redis는 인증서 검증을 건너뜀
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true,
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		TLSConfig:    tlsConfig,
		DB:           0,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("❌ Redis ping failed: %v", err)
		return nil
	}

	log.Printf("✅ Redis connected: %s", cfg.GetRedisAddr())
	return rdb
}
