package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/pkg/config"
	"github.com/jhoicas/Cilindros-api/pkg/logger"
)

func sampleEvents() []entity.StockEvent {
	qty := decimal.NewFromInt(10)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []entity.StockEvent{
		{ID: "e1", Type: entity.EventDocumentPosted, TenantID: "t1", DocID: "d1", DocNo: "RCF-000001", DocType: entity.DocTypeRecFill, DocStatus: entity.DocStatusPosted, OccurredAt: at},
		{ID: "e2", Type: entity.EventStockLevelChanged, TenantID: "t1", WarehouseID: "w1", VariantID: "v1", Bucket: entity.BucketOnHand, Quantity: &qty, OccurredAt: at},
	}
}

func TestKafkaMessages_ClavesYPayload(t *testing.T) {
	msgs, err := kafkaMessages(sampleEvents())
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "t1:d1", string(msgs[0].Key))
	assert.Equal(t, "t1:w1:v1:ON_HAND", string(msgs[1].Key))
	assert.Equal(t, "event_type", msgs[0].Headers[0].Key)
	assert.Equal(t, entity.EventDocumentPosted, string(msgs[0].Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msgs[1].Value, &decoded))
	assert.Equal(t, "stock_level.changed", decoded["type"])
	assert.Equal(t, "10", decoded["quantity"])
	_, hasDoc := decoded["doc_id"]
	assert.False(t, hasDoc, "campos vacíos se omiten")
}

func TestLogPublisher_EscribeUnaLineaPorEvento(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(logger.NewWithWriter(&buf, "info"))

	p.Publish(context.Background(), sampleEvents()...)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "document.posted", first["event_type"])
	assert.Equal(t, "RCF-000001", first["doc_no"])
	assert.Equal(t, "events", first["component"])
	assert.Equal(t, Stats{Driver: config.EventsDriverLog, Sent: 2}, p.Stats())
}

func TestRedisPublisher_NoBloqueaSinServidor(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	p := newRedisPublisher(client, RedisConfig{Timeout: 100 * time.Millisecond}, logger.Nop())
	defer p.Close()

	start := time.Now()
	p.Publish(context.Background(), sampleEvents()...)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, "stock-events", p.channel)

	// el envío en segundo plano falla y queda contado como descartado
	assert.Eventually(t, func() bool { return p.Stats().Failed == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, p.Stats().Sent)
	assert.Equal(t, config.EventsDriverRedis, p.Stats().Driver)
}

func TestNew_DriverLog(t *testing.T) {
	p, err := New(context.Background(), config.EventsConfig{Driver: config.EventsDriverLog}, logger.Nop())
	require.NoError(t, err)
	_, ok := p.(*LogPublisher)
	assert.True(t, ok)
	assert.NoError(t, p.Close())
}

func TestNew_DriverKafka(t *testing.T) {
	p, err := New(context.Background(), config.EventsConfig{
		Driver:       config.EventsDriverKafka,
		KafkaBrokers: []string{"127.0.0.1:9092"},
		KafkaTopic:   "stock-events",
	}, logger.Nop())
	require.NoError(t, err)
	kp, ok := p.(*KafkaPublisher)
	require.True(t, ok)
	assert.Equal(t, "stock-events", kp.writer.Topic)
	assert.Equal(t, Stats{Driver: config.EventsDriverKafka}, p.Stats())

	// la confirmación del broker llega por Completion
	kp.writer.Completion(make([]kafka.Message, 3), nil)
	kp.writer.Completion(make([]kafka.Message, 1), errors.New("broker caído"))
	assert.Equal(t, Stats{Driver: config.EventsDriverKafka, Sent: 3, Failed: 1}, p.Stats())
	assert.NoError(t, p.Close())
}

func TestNew_DriverDesconocido(t *testing.T) {
	_, err := New(context.Background(), config.EventsConfig{Driver: "nats"}, logger.Nop())
	assert.Error(t, err)
}
