package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	notification "github.com/radieske/coinflip-platform-poc/internal/flip-notification"
	sharedcache "github.com/radieske/coinflip-platform-poc/internal/shared/cache"
	"github.com/radieske/coinflip-platform-poc/internal/shared/config"
	sharedkafka "github.com/radieske/coinflip-platform-poc/internal/shared/kafka"
	"github.com/radieske/coinflip-platform-poc/internal/shared/logger"
	"github.com/radieske/coinflip-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Kafka consumer: consome eventos de flip para repasse ao feed
	reader := sharedkafka.NewReader(cfg.KafkaBrokers, cfg.TopicFlipEvents, "flip-notification")
	defer reader.Close()

	// Métricas Prometheus do worker
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "flip_notif_messages_consumed_total", Help: "mensagens consumidas"})
	published := prometheus.NewCounter(prometheus.CounterOpts{Name: "flip_notif_broadcasts_total", Help: "eventos repassados ao pub/sub"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "flip_notif_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, published, errorsBy)

	worker := &notification.Worker{
		Log:         log,
		Reader:      reader,
		Redis:       redisClient,
		Channel:     cfg.RedisPubSubChannel,
		OnConsumed:  func() { consumed.Inc() },
		OnPublished: func() { published.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check, com ping no Redis
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(c context.Context) error {
		return redisClient.Ping(c).Err()
	})
	defer metricsSrv.Close()
	log.Info("metrics/health", zap.String("addr", metricsSrv.Addr))

	log.Info("flip-notification-worker started",
		zap.String("consume", cfg.TopicFlipEvents),
		zap.String("channel", cfg.RedisPubSubChannel),
	)

	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("worker", zap.Error(err))
	}
}
