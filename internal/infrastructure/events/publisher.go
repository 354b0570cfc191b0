package events

import (
	"context"
	"fmt"
	"io"

	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
	"github.com/jhoicas/Cilindros-api/pkg/config"
	"github.com/jhoicas/Cilindros-api/pkg/logger"
)

// Publisher publicador con ciclo de vida y contadores de entrega.
type Publisher interface {
	inventory.EventPublisher
	io.Closer
	Stats() Stats
}

// Stats eventos entregados y descartados desde el arranque. Se exponen en /health.
type Stats struct {
	Driver string
	Sent   int64
	Failed int64
}

// New elige el publicador según EVENTS_DRIVER.
func New(ctx context.Context, cfg config.EventsConfig, log *logger.Logger) (Publisher, error) {
	switch cfg.Driver {
	case config.EventsDriverKafka:
		return NewKafkaPublisher(KafkaConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopic,
			Username: cfg.KafkaUsername,
			Password: cfg.KafkaPassword,
			Timeout:  cfg.Timeout,
		}, log), nil
	case config.EventsDriverRedis:
		p, err := NewRedisPublisher(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Channel:  cfg.RedisChannel,
			Timeout:  cfg.Timeout,
		}, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.EventsDriverLog, "":
		return NewLogPublisher(log), nil
	}
	return nil, fmt.Errorf("events: driver desconocido %q", cfg.Driver)
}
