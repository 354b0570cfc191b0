package dto

// HealthResponse cuerpo de GET /health.
type HealthResponse struct {
	Status  string       `json:"status"`
	Service string       `json:"service"`
	Store   string       `json:"store"`
	Events  EventsHealth `json:"events"`
}

// EventsHealth contadores del publicador de eventos desde el arranque.
type EventsHealth struct {
	Driver string `json:"driver"`
	Sent   int64  `json:"sent"`
	Failed int64  `json:"failed"`
}
