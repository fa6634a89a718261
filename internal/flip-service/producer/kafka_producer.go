package producer

import (
	"context"
	"encoding/json"

	sharedkafka "github.com/radieske/coinflip-platform-poc/internal/shared/kafka"
	"github.com/radieske/coinflip-platform-poc/pkg/contracts/events"
)

// KafkaPublisher implementa flip.Publisher sobre dois tópicos: o fluxo
// de eventos normal e o canal de alertas de reconciliação.
type KafkaPublisher struct {
	Events *sharedkafka.Writer
	Alerts *sharedkafka.Writer
}

func NewKafkaPublisher(eventsW, alertsW *sharedkafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Events: eventsW, Alerts: alertsW}
}

func (p *KafkaPublisher) PublishFlipEvent(ctx context.Context, e events.FlipEvent) error {
	b, _ := json.Marshal(e)
	return sharedkafka.WriteJSON(ctx, p.Events, e.FlipID, b)
}

func (p *KafkaPublisher) PublishFlipAlert(ctx context.Context, a events.FlipAlert) error {
	b, _ := json.Marshal(a)
	return sharedkafka.WriteJSON(ctx, p.Alerts, a.FlipID, b)
}
