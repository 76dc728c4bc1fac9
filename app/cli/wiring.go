package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"bikerental/config"
	"bikerental/repository/broker"
	"bikerental/repository/fxrate"
	"bikerental/util/database"
	"bikerental/util/httpx"
	"bikerental/util/metrics"
)

func openDB(ctx context.Context, cfg config.App) (*database.DB, error) {
	return database.New(ctx, database.Config{
		Driver: cfg.DatabaseDriver,
		DSN:    cfg.DatabaseURL,
	})
}

// newPublisher returns the broker selected by BROKER.
func newPublisher(cfg config.App, log *slog.Logger) (broker.Publisher, error) {
	switch cfg.Broker {
	case "rabbitmq":
		conn, ch, err := broker.SetupConn(cfg.RabbitMQURL, 5)
		if err != nil {
			return nil, err
		}
		return broker.NewRabbitMQ(conn, ch), nil
	case "kafka":
		return broker.NewKafka(cfg.KafkaBrokers)
	case "log", "":
		return broker.NewLog(log), nil
	default:
		return nil, fmt.Errorf("unknown broker %q", cfg.Broker)
	}
}

// newFX builds the rate provider, cached in Redis when REDIS_URL is set. The
// returned func releases the Redis client.
func newFX(ctx context.Context, cfg config.App, m *metrics.Metrics, log *slog.Logger) (fxrate.Provider, func() error, error) {
	src := fxrate.NewHTTPSource(cfg.FXBaseURL, cfg.FXAPIKey, httpx.Client())
	opts := []fxrate.Option{
		fxrate.WithTTL(cfg.FXCacheTTL),
		fxrate.WithMetrics(m),
		fxrate.WithLogger(log),
	}
	closer := func() error { return nil }

	if cfg.RedisURL != "" {
		ropts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(ropts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			// rates still resolve through the in-process cache
			log.Warn("redis unreachable, using memory fx cache", "err", err)
			_ = rdb.Close()
		} else {
			opts = append(opts, fxrate.WithCache(fxrate.NewRedisCache(rdb)))
			closer = rdb.Close
		}
	}
	return fxrate.New(src, opts...), closer, nil
}
