package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/pkg/config"
	"github.com/jhoicas/Cilindros-api/pkg/logger"
)

var _ inventory.EventPublisher = (*RedisPublisher)(nil)

// RedisConfig destino Redis pub/sub de los eventos.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
	Timeout  time.Duration
}

// RedisPublisher publica cada evento en un canal (por defecto "stock-events").
type RedisPublisher struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	log     *logger.Logger
	sent    atomic.Int64
	failed  atomic.Int64
}

// NewRedisPublisher conecta y hace Ping para fallar temprano si Redis no responde.
func NewRedisPublisher(ctx context.Context, cfg RedisConfig, log *logger.Logger) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisPublisher(client, cfg, log), nil
}

func newRedisPublisher(client *redis.Client, cfg RedisConfig, log *logger.Logger) *RedisPublisher {
	p := &RedisPublisher{client: client, channel: cfg.Channel, timeout: cfg.Timeout, log: log.Component("events.redis")}
	if p.channel == "" {
		p.channel = "stock-events"
	}
	if p.timeout <= 0 {
		p.timeout = 2 * time.Second
	}
	return p
}

// Publish envía en segundo plano con un pipeline; los errores sólo se registran.
func (p *RedisPublisher) Publish(_ context.Context, events ...entity.StockEvent) {
	payloads := make([][]byte, 0, len(events))
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			p.failed.Add(1)
			p.log.Error().Err(err).Str("event_type", ev.Type).Msg("redis: no se pudo serializar el evento")
			continue
		}
		payloads = append(payloads, b)
	}
	if len(payloads) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		pipe := p.client.Pipeline()
		for _, b := range payloads {
			pipe.Publish(ctx, p.channel, b)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			p.failed.Add(int64(len(payloads)))
			p.log.Warn().Err(err).Int("events", len(payloads)).Msg("redis: eventos descartados")
			return
		}
		p.sent.Add(int64(len(payloads)))
	}()
}

// Stats eventos publicados en el canal y descartados.
func (p *RedisPublisher) Stats() Stats {
	return Stats{Driver: config.EventsDriverRedis, Sent: p.sent.Load(), Failed: p.failed.Load()}
}

// Close cierra el cliente.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
