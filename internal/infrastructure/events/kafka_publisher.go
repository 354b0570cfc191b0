package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/pkg/config"
	"github.com/jhoicas/Cilindros-api/pkg/logger"
)

var _ inventory.EventPublisher = (*KafkaPublisher)(nil)

// KafkaConfig destino Kafka de los eventos.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	Username string // con usuario y contraseña se usa SASL/PLAIN sobre TLS
	Password string
	Timeout  time.Duration
}

// KafkaPublisher envía los eventos en JSON con un writer asíncrono; nunca bloquea al llamador.
type KafkaPublisher struct {
	writer  *kafka.Writer
	log     *logger.Logger
	timeout time.Duration
	sent    atomic.Int64
	failed  atomic.Int64
}

// NewKafkaPublisher construye el writer. La conexión se abre en el primer envío.
func NewKafkaPublisher(cfg KafkaConfig, log *logger.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // misma clave -> misma partición: orden por documento/fila
		Async:        true,
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	if cfg.Username != "" && cfg.Password != "" {
		w.Transport = &kafka.Transport{
			SASL: plain.Mechanism{Username: cfg.Username, Password: cfg.Password},
			TLS:  &tls.Config{MinVersion: tls.VersionTLS12},
		}
	}
	p := &KafkaPublisher{writer: w, log: log.Component("events.kafka"), timeout: cfg.Timeout}
	if p.timeout <= 0 {
		p.timeout = 5 * time.Second
	}
	w.Completion = func(messages []kafka.Message, err error) {
		if err != nil {
			p.failed.Add(int64(len(messages)))
			p.log.Warn().Err(err).Int("messages", len(messages)).Msg("kafka: envío de eventos falló")
			return
		}
		p.sent.Add(int64(len(messages)))
	}
	return p
}

// Publish no usa el ctx de la request: puede cancelarse apenas se responde.
func (p *KafkaPublisher) Publish(_ context.Context, events ...entity.StockEvent) {
	msgs, err := kafkaMessages(events)
	if err != nil {
		p.log.Error().Err(err).Msg("kafka: no se pudo serializar el evento")
		return
	}
	if len(msgs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.failed.Add(int64(len(msgs)))
		p.log.Warn().Err(err).Int("messages", len(msgs)).Msg("kafka: eventos descartados")
	}
}

// Stats mensajes confirmados por el broker y fallidos (incluye los que no entraron al buffer).
func (p *KafkaPublisher) Stats() Stats {
	return Stats{Driver: config.EventsDriverKafka, Sent: p.sent.Load(), Failed: p.failed.Load()}
}

// Close vacía el buffer del writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// kafkaMessages clave = documento o fila del ledger, valor = evento en JSON.
func kafkaMessages(events []entity.StockEvent) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(eventKey(ev)),
			Value: payload,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(ev.Type)},
				{Key: "tenant_id", Value: []byte(ev.TenantID)},
			},
			Time: ev.OccurredAt,
		})
	}
	return msgs, nil
}

func eventKey(ev entity.StockEvent) string {
	if ev.DocID != "" {
		return ev.TenantID + ":" + ev.DocID
	}
	return strings.Join([]string{ev.TenantID, ev.WarehouseID, ev.VariantID, string(ev.Bucket)}, ":")
}
