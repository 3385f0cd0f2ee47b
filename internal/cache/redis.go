package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Client *redis.Client

var ErrNotConfigured = errors.New("redis url not configured")

// InitRedis connects the shared client. Both redis:// URLs and bare host:port
// addresses are accepted.
func InitRedis(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrNotConfigured
	}
	opts, err := clientOptions(url)
	if err != nil {
		return err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	Client = client
	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("connected to redis")
	return nil
}

func clientOptions(url string) (*redis.Options, error) {
	if strings.Contains(url, "://") {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: url}, nil
}

func Close() {
	if Client == nil {
		return
	}
	if err := Client.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
	Client = nil
}
