package redis

import (
	"context"
	"net"
	"stayfinder/config"
	"time"

	"github.com/cenkalti/backoff/v5"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	pingAttempts = 5
	pingWait     = time.Second
)

// New connects to the primary Redis and stops the process when it cannot be
// reached after a few attempts.
func New(config *config.Config) *goRedis.Client {
	primary := config.Cache.Redis.Primary

	client := goRedis.NewClient(&goRedis.Options{
		Addr:     net.JoinHostPort(primary.Host, primary.Port),
		Password: primary.Password,
		DB:       primary.DB,
	})

	_, err := backoff.Retry(context.Background(), func() (string, error) {
		res, err := client.Ping(context.Background()).Result()
		if err != nil {
			log.Warn().Err(err).Str("host", primary.Host).Msg("Redis not reachable yet")
		}

		return res, err //nolint:wrapcheck
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(pingWait)),
		backoff.WithMaxTries(pingAttempts),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	log.Info().
		Int("db", primary.DB).
		Str("host", primary.Host).
		Str("port", primary.Port).
		Msg("Connected to Redis")

	return client
}
