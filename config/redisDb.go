package config

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/bsm/redislock"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)

func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

func init() {
	// Load env from .env
	godotenv.Load()
	// Do NOT block startup in init() waiting for Redis.
}

// ConnectRedisWithRetry connects and sets the global client + lock factory.
// Redis is optional: when REDIS_ADDRESS is empty the engine falls back to the
// database advisory lock only.
func ConnectRedisWithRetry() {
	address := os.Getenv("REDIS_ADDRESS")
	if address == "" {
		log.Printf("REDIS_ADDRESS not set; distributed locks will use database advisory locks only")
		return
	}

	var attempt int
	for {
		attempt++
		client := redis.NewClient(&redis.Options{
			Addr:     address,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			rdb = client
			locker = redislock.New(client)
			log.Printf("redis connected after %d attempt(s)", attempt)
			return
		}
		if attempt >= 5 {
			log.Printf("redis unreachable after %d attempts: %v; continuing without redis", attempt, err)
			return
		}
		wait := time.Duration(attempt*2) * time.Second
		log.Printf("redis connection failed (attempt %d): %v; retrying in %s", attempt, err, wait)
		time.Sleep(wait)
	}
}
