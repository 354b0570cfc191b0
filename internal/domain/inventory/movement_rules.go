package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cilindros-api/internal/domain"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
)

// Side bodega del documento sobre la que actúa una pierna.
type Side int

const (
	SideSource Side = iota + 1
	SideDest
)

// Direction cómo se deriva el delta a partir de la cantidad de la línea.
type Direction int

const (
	DirOut    Direction = iota + 1 // -|cantidad|
	DirIn                          // +|cantidad|
	DirSigned                      // cantidad tal cual (ajustes y conversiones)
)

// CostPolicy qué costo unitario acompaña a una entrada.
type CostPolicy int

const (
	CostNone        CostPolicy = iota // no toca el costo (salidas)
	CostLine                          // costo de la línea
	CostLineIfSet                     // costo de la línea si es > 0, si no conserva el actual
	CostCarry                         // arrastra el costo de la salida emparejada
	CostLineOrCarry                   // costo de la línea si es > 0, si no arrastra
)

// Phase paso del ciclo de vida en el que se aplican las piernas.
type Phase string

const (
	PhasePost    Phase = "POST"
	PhaseShip    Phase = "SHIP"
	PhaseReceive Phase = "RECEIVE"
)

// Routing qué bodegas trae el documento.
type Routing int

const (
	RouteSource Routing = iota + 1 // sólo origen
	RouteDest                      // sólo destino
	RouteBoth                      // origen y destino
)

// Leg una pierna de movimiento: (lado, bucket, dirección, costo, chequeo de disponibilidad).
// CheckAvailable sólo aplica cuando el delta resultante es negativo.
type Leg struct {
	Side           Side
	Bucket         entity.Bucket
	Direction      Direction
	Cost           CostPolicy
	CheckAvailable bool
}

// Route piernas por fase para un routing dado.
type Route struct {
	Post    []Leg
	Ship    []Leg
	Receive []Leg
}

// Legs piernas de la fase pedida.
func (r Route) Legs(p Phase) []Leg {
	switch p {
	case PhasePost:
		return r.Post
	case PhaseShip:
		return r.Ship
	case PhaseReceive:
		return r.Receive
	}
	return nil
}

// DocTypeRule regla de un tipo de documento. Agregar un tipo es agregar una entrada a docTypeRules.
type DocTypeRule struct {
	Prefix     string
	SourceRole string
	DestRole   string
	Routes     map[Routing]Route
}

var legOutOnHandSrc = Leg{Side: SideSource, Bucket: entity.BucketOnHand, Direction: DirOut, CheckAvailable: true}

var legInOnHandDest = Leg{Side: SideDest, Bucket: entity.BucketOnHand, Direction: DirIn, Cost: CostCarry}

var receiptRoutes = map[Routing]Route{
	RouteDest: {Post: []Leg{{Side: SideDest, Bucket: entity.BucketOnHand, Direction: DirIn, Cost: CostLine}}},
}

var issueRoutes = map[Routing]Route{
	RouteSource: {Post: []Leg{legOutOnHandSrc}},
}

var adjustmentRoutes = map[Routing]Route{
	RouteDest: {Post: []Leg{{Side: SideDest, Bucket: entity.BucketOnHand, Direction: DirSigned, Cost: CostLineIfSet}}},
}

var conversionRoutes = map[Routing]Route{
	RouteDest: {Post: []Leg{{Side: SideDest, Bucket: entity.BucketOnHand, Direction: DirSigned, Cost: CostLineOrCarry, CheckAvailable: true}}},
}

// traslado directo o en dos pasos pasando por IN_TRANSIT en el destino
var transferRoutes = map[Routing]Route{
	RouteBoth: {
		Post: []Leg{legOutOnHandSrc, legInOnHandDest},
		Ship: []Leg{
			legOutOnHandSrc,
			{Side: SideDest, Bucket: entity.BucketInTransit, Direction: DirIn, Cost: CostCarry},
		},
		Receive: []Leg{
			{Side: SideDest, Bucket: entity.BucketInTransit, Direction: DirOut, CheckAvailable: true},
			legInOnHandDest,
		},
	},
}

// sólo origen = carga, sólo destino = descarga, ambos = traslado directo
var truckRoutes = map[Routing]Route{
	RouteSource: {Post: []Leg{
		legOutOnHandSrc,
		{Side: SideSource, Bucket: entity.BucketTruckStock, Direction: DirIn, Cost: CostCarry},
	}},
	RouteDest: {Post: []Leg{
		{Side: SideDest, Bucket: entity.BucketTruckStock, Direction: DirOut, CheckAvailable: true},
		legInOnHandDest,
	}},
	RouteBoth: {Post: []Leg{legOutOnHandSrc, legInOnHandDest}},
}

var docTypeRules = map[entity.DocType]DocTypeRule{
	entity.DocTypeRecFill:     {Prefix: "RCF", DestRole: entity.RoleStockReceive, Routes: receiptRoutes},
	entity.DocTypeRecSupp:     {Prefix: "RCS", DestRole: entity.RoleStockReceive, Routes: receiptRoutes},
	entity.DocTypeRecRet:      {Prefix: "RCR", DestRole: entity.RoleStockReceive, Routes: receiptRoutes},
	entity.DocTypeIssLoad:     {Prefix: "ISL", SourceRole: entity.RoleStockIssue, Routes: issueRoutes},
	entity.DocTypeIssSale:     {Prefix: "ISS", SourceRole: entity.RoleStockIssue, Routes: issueRoutes},
	entity.DocTypeTrfWh:       {Prefix: "TRW", SourceRole: entity.RoleStockIssue, DestRole: entity.RoleStockReceive, Routes: transferRoutes},
	entity.DocTypeXfer:        {Prefix: "XFR", SourceRole: entity.RoleStockIssue, DestRole: entity.RoleStockReceive, Routes: transferRoutes},
	entity.DocTypeTrfTruck:    {Prefix: "TRT", SourceRole: entity.RoleStockIssue, DestRole: entity.RoleStockReceive, Routes: truckRoutes},
	entity.DocTypeLoadMob:     {Prefix: "LMB", SourceRole: entity.RoleStockIssue, DestRole: entity.RoleStockReceive, Routes: truckRoutes},
	entity.DocTypeAdjScrap:    {Prefix: "ADS", DestRole: entity.RoleStockAdjust, Routes: adjustmentRoutes},
	entity.DocTypeAdjVariance: {Prefix: "ADV", DestRole: entity.RoleStockAdjust, Routes: adjustmentRoutes},
	entity.DocTypeConvFil:     {Prefix: "CNV", DestRole: entity.RoleStockAdjust, Routes: conversionRoutes},
}

// RuleFor regla del tipo de documento.
func RuleFor(t entity.DocType) (DocTypeRule, bool) {
	r, ok := docTypeRules[t]
	return r, ok
}

// DocTypes tipos soportados, ordenados.
func DocTypes() []entity.DocType {
	out := make([]entity.DocType, 0, len(docTypeRules))
	for t := range docTypeRules {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RoutingOf routing según las bodegas presentes en el documento.
func RoutingOf(doc *entity.StockDoc) (Routing, bool) {
	switch {
	case doc.SourceWhID != "" && doc.DestWhID != "":
		return RouteBoth, true
	case doc.SourceWhID != "":
		return RouteSource, true
	case doc.DestWhID != "":
		return RouteDest, true
	}
	return 0, false
}

// ResolveRoute valida que el documento traiga las bodegas que exige su tipo y
// devuelve la ruta correspondiente.
func ResolveRoute(doc *entity.StockDoc) (DocTypeRule, Route, error) {
	rule, ok := RuleFor(doc.DocType)
	if !ok {
		return DocTypeRule{}, Route{}, domain.NewValidation("doc_type", "tipo de documento desconocido: "+string(doc.DocType))
	}
	routing, ok := RoutingOf(doc)
	if !ok {
		return rule, Route{}, domain.NewValidation("warehouse", "el documento no indica bodegas")
	}
	route, ok := rule.Routes[routing]
	if !ok {
		return rule, Route{}, domain.NewValidation("warehouse", requiredWarehousesMsg(rule))
	}
	if routing == RouteBoth && doc.SourceWhID == doc.DestWhID {
		return rule, Route{}, domain.NewValidation("dest_wh_id", "origen y destino deben ser distintos")
	}
	return rule, route, nil
}

func requiredWarehousesMsg(rule DocTypeRule) string {
	_, src := rule.Routes[RouteSource]
	_, dst := rule.Routes[RouteDest]
	_, both := rule.Routes[RouteBoth]
	switch {
	case both && !src && !dst:
		return "requiere bodega de origen y de destino"
	case dst && !src && !both:
		return "requiere sólo bodega de destino"
	case src && !dst && !both:
		return "requiere sólo bodega de origen"
	}
	return "combinación de bodegas no soportada"
}

// Movement paso concreto del plan: una clave del ledger y un delta con signo.
// CarryFrom es el índice dentro del plan de la salida cuyo costo unitario se arrastra (-1 si no hay).
type Movement struct {
	LineID         string
	LineNo         int
	Key            entity.StockKey
	Delta          decimal.Decimal
	Cost           CostPolicy
	LineCost       decimal.Decimal
	CarryFrom      int
	CheckAvailable bool
}

// Plan traduce las líneas del documento en movimientos ordenados para la fase pedida.
// variantOf resuelve la variante de cada línea (las líneas por gas_type usan la variante granel).
func Plan(doc *entity.StockDoc, phase Phase, variantOf func(entity.StockDocLine) string) ([]Movement, error) {
	_, route, err := ResolveRoute(doc)
	if err != nil {
		return nil, err
	}
	legs := route.Legs(phase)
	if len(legs) == 0 {
		return nil, domain.NewValidation("doc_type", "el tipo "+string(doc.DocType)+" no tiene la fase "+string(phase))
	}

	lines := doc.Lines
	if doc.DocType.IsConversion() {
		// la salida va primero para que la entrada pueda arrastrar su costo
		lines = append([]entity.StockDocLine(nil), doc.Lines...)
		sort.SliceStable(lines, func(i, j int) bool {
			return lines[i].Quantity.IsNegative() && !lines[j].Quantity.IsNegative()
		})
	}

	plan := make([]Movement, 0, len(lines)*len(legs))
	lastOut := -1
	for _, line := range lines {
		lineOut := -1
		for _, leg := range legs {
			m := Movement{
				LineID:   line.ID,
				LineNo:   line.LineNo,
				Key:      keyFor(doc, leg, variantOf(line)),
				LineCost: line.UnitCost,
				Cost:     leg.Cost,
			}
			switch leg.Direction {
			case DirOut:
				m.Delta = line.Quantity.Abs().Neg()
			case DirIn:
				m.Delta = line.Quantity.Abs()
			default:
				m.Delta = line.Quantity
			}
			m.CarryFrom = -1
			if m.Delta.IsNegative() {
				m.Cost = CostNone
				m.CheckAvailable = leg.CheckAvailable
			} else {
				switch leg.Cost {
				case CostCarry:
					m.CarryFrom = lineOut
				case CostLineOrCarry:
					m.CarryFrom = lastOut
				}
			}
			plan = append(plan, m)
			if m.Delta.IsNegative() {
				lineOut = len(plan) - 1
				lastOut = lineOut
			}
		}
	}
	return plan, nil
}

func keyFor(doc *entity.StockDoc, leg Leg, variantID string) entity.StockKey {
	wh := doc.DestWhID
	if leg.Side == SideSource {
		wh = doc.SourceWhID
	}
	return entity.StockKey{TenantID: doc.TenantID, WarehouseID: wh, VariantID: variantID, Bucket: leg.Bucket}
}

// LockOrder claves distintas del plan en el orden fijo de bloqueo (bodega, variante, bucket).
func LockOrder(plan []Movement) []entity.StockKey {
	seen := make(map[entity.StockKey]struct{}, len(plan))
	keys := make([]entity.StockKey, 0, len(plan))
	for _, m := range plan {
		if _, ok := seen[m.Key]; ok {
			continue
		}
		seen[m.Key] = struct{}{}
		keys = append(keys, m.Key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Requirement cantidad total que el plan retira de una clave con chequeo de disponibilidad.
type Requirement struct {
	Key      entity.StockKey
	LineNo   int // primera línea que retira de la clave
	Quantity decimal.Decimal
}

// Requirements agrega las salidas chequeadas por clave, en orden de bloqueo.
func Requirements(plan []Movement) []Requirement {
	idx := make(map[entity.StockKey]int)
	var reqs []Requirement
	for _, m := range plan {
		if !m.CheckAvailable || !m.Delta.IsNegative() {
			continue
		}
		if i, ok := idx[m.Key]; ok {
			reqs[i].Quantity = reqs[i].Quantity.Add(m.Delta.Neg())
			continue
		}
		idx[m.Key] = len(reqs)
		reqs = append(reqs, Requirement{Key: m.Key, LineNo: m.LineNo, Quantity: m.Delta.Neg()})
	}
	sort.SliceStable(reqs, func(i, j int) bool { return reqs[i].Key.Less(reqs[j].Key) })
	return reqs
}
