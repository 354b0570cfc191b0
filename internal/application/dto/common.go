package dto

// Paginación de los listados de documentos y de filas del ledger.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest limit/offset tal como llegan en la query string.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// Normalize limit por defecto si no viene, tope MaxPageLimit y offset no negativo.
func (p *PageRequest) Normalize() {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de la página devuelta. Una página llena marca HasMore:
// el cliente sigue con offset+limit hasta recibir una incompleta.
type PageResponse struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Count   int  `json:"count"`
	HasMore bool `json:"has_more"`
}

// NewPageResponse metadatos de una página ya normalizada con n elementos.
func NewPageResponse(p PageRequest, n int) PageResponse {
	return PageResponse{Limit: p.Limit, Offset: p.Offset, Count: n, HasMore: n >= p.Limit}
}

// ErrorResponse cuerpo de error HTTP. Field y LineNo acompañan a VALIDATION e
// INSUFFICIENT_STOCK cuando el error apunta a un campo o a una línea del documento.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	LineNo  int    `json:"line_no,omitempty"`
}
