package events

import (
	"context"
	"sync/atomic"

	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
	"github.com/jhoicas/Cilindros-api/pkg/config"
	"github.com/jhoicas/Cilindros-api/pkg/logger"
)

var _ inventory.EventPublisher = (*LogPublisher)(nil)

// LogPublisher escribe cada evento como una línea estructurada. Es el destino por defecto
// cuando no hay broker configurado.
type LogPublisher struct {
	log     *logger.Logger
	written atomic.Int64
}

// NewLogPublisher construye el publicador sobre el logger de la app.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.Component("events")}
}

func (p *LogPublisher) Publish(_ context.Context, events ...entity.StockEvent) {
	for _, ev := range events {
		e := p.log.Info().
			Str("event_id", ev.ID).
			Str("event_type", ev.Type).
			Str("tenant_id", ev.TenantID).
			Str("actor", ev.Actor).
			Time("occurred_at", ev.OccurredAt)
		if ev.DocID != "" {
			e = e.Str("doc_id", ev.DocID).Str("doc_no", ev.DocNo).Str("doc_type", string(ev.DocType)).Str("doc_status", string(ev.DocStatus))
		}
		if ev.WarehouseID != "" {
			e = e.Str("warehouse_id", ev.WarehouseID).Str("variant_id", ev.VariantID).Str("bucket", string(ev.Bucket))
		}
		if ev.Quantity != nil {
			e = e.Str("quantity", ev.Quantity.String())
		}
		if ev.Available != nil {
			e = e.Str("available", ev.Available.String())
		}
		e.Msg("evento de stock")
	}
	p.written.Add(int64(len(events)))
}

func (p *LogPublisher) Stats() Stats {
	return Stats{Driver: config.EventsDriverLog, Sent: p.written.Load()}
}

func (p *LogPublisher) Close() error { return nil }
