package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedkafka "github.com/radieske/coinflip-platform-poc/internal/shared/kafka"
	"github.com/radieske/coinflip-platform-poc/pkg/contracts/events"
)

// Worker consome o tópico flip_events e reemite cada evento no canal
// Pub/Sub que alimenta o feed WebSocket: uma vez no tópico global
// "flips" e uma vez no tópico do criador. Avisos de timeout ao criador
// são melhor-esforço; falha aqui nunca afeta o reembolso, que já
// aconteceu no flip-service.
type Worker struct {
	Log     *zap.Logger
	Reader  *kafka.Reader
	Redis   *redis.Client
	Channel string

	OnConsumed  func()       // métricas (counter++)
	OnPublished func()       // métricas
	OnError     func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e repasse dos eventos
func (w *Worker) Run(ctx context.Context) error {
	for {
		_, value, err := sharedkafka.ReadNext(ctx, w.Reader)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.Log.Warn("kafka read failed", zap.Error(err))
			if w.OnError != nil {
				w.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if w.OnConsumed != nil {
			w.OnConsumed()
		}

		var ev events.FlipEvent
		if err := json.Unmarshal(value, &ev); err != nil {
			w.Log.Warn("invalid message", zap.Error(err))
			if w.OnError != nil {
				w.OnError("decode")
			}
			continue
		}

		if ev.Type == events.FlipTimedOut {
			// aviso ao criador; no jogo real isso vira mensagem no chat
			w.Log.Info("flip timeout notice",
				zap.String("creator", ev.Creator),
				zap.String("flipId", ev.FlipID),
				zap.Int64("refundedCents", ev.AmountCents))
		}

		if err := w.broadcast(ctx, "flips", ev); err != nil {
			w.Log.Warn("redis publish failed", zap.Error(err))
			if w.OnError != nil {
				w.OnError("publish")
			}
			continue
		}
		// canal por criador, para o cliente do próprio jogador
		if err := w.broadcast(ctx, ev.Creator, ev); err != nil {
			w.Log.Warn("redis publish failed", zap.Error(err))
			if w.OnError != nil {
				w.OnError("publish")
			}
			continue
		}

		if w.OnPublished != nil {
			w.OnPublished()
		}
	}
}

func (w *Worker) broadcast(ctx context.Context, topic string, ev events.FlipEvent) error {
	payload, _ := json.Marshal(map[string]any{
		"topic":   topic,
		"payload": ev,
	})
	return w.Redis.Publish(ctx, w.Channel, payload).Err()
}
