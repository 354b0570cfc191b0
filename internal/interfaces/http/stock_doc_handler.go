package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cilindros-api/internal/application/dto"
	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
)

// StockDocHandler ciclo de vida de documentos de stock (protegido).
type StockDocHandler struct {
	uc *inventory.DocumentUseCase
}

// NewStockDocHandler construye el handler.
func NewStockDocHandler(uc *inventory.DocumentUseCase) *StockDocHandler {
	return &StockDocHandler{uc: uc}
}

// Create godoc
// @Summary      Crear documento de stock (OPEN)
// @Tags         stock-docs
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockDocRequest  true  "doc_type, bodegas y líneas"
// @Success      201   {object}  dto.StockDocResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock-docs [post]
func (h *StockDocHandler) Create(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateStockDocRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateDocument(c.Context(), tenantID, userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener documento con líneas
// @Tags         stock-docs
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.StockDocResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-docs/{id} [get]
func (h *StockDocHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetDocument(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar documentos
// @Tags         stock-docs
// @Security     Bearer
// @Produce      json
// @Param        doc_type  query  string  false  "Tipo de documento"
// @Param        status    query  string  false  "Estado"
// @Param        limit     query  int     false  "Límite"
// @Param        offset    query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.StockDocListResponse
// @Router       /api/stock-docs [get]
func (h *StockDocHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var in dto.StockDocFilterRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.uc.ListDocuments(c.Context(), tenantID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddLine godoc
// @Summary      Agregar línea a un documento OPEN
// @Tags         stock-docs
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del documento"
// @Param        body  body  dto.StockDocLineRequest  true  "variant_id o gas_type, quantity, unit_cost"
// @Success      200   {object}  dto.StockDocResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock-docs/{id}/lines [post]
func (h *StockDocHandler) AddLine(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.StockDocLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AddLine(c.Context(), tenantID, userID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReplaceLines godoc
// @Summary      Reemplazar las líneas de un documento OPEN
// @Tags         stock-docs
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del documento"
// @Param        body  body  dto.ReplaceLinesRequest  true  "líneas"
// @Success      200   {object}  dto.StockDocResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock-docs/{id}/lines [put]
func (h *StockDocHandler) ReplaceLines(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ReplaceLinesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ReplaceLines(c.Context(), tenantID, userID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Post godoc
// @Summary      Postear documento (OPEN -> POSTED)
// @Tags         stock-docs
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.StockDocResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock-docs/{id}/post [post]
func (h *StockDocHandler) Post(c *fiber.Ctx) error {
	return h.transition(c, h.uc.PostDocument)
}

// Ship godoc
// @Summary      Enviar traslado (OPEN -> SHIPPED)
// @Tags         stock-docs
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.StockDocResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock-docs/{id}/ship [post]
func (h *StockDocHandler) Ship(c *fiber.Ctx) error {
	return h.transition(c, h.uc.ShipTransfer)
}

// Receive godoc
// @Summary      Recibir traslado (SHIPPED -> POSTED)
// @Tags         stock-docs
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.StockDocResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock-docs/{id}/receive [post]
func (h *StockDocHandler) Receive(c *fiber.Ctx) error {
	return h.transition(c, h.uc.ReceiveTransfer)
}

// Cancel godoc
// @Summary      Cancelar documento OPEN
// @Tags         stock-docs
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.StockDocResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock-docs/{id}/cancel [post]
func (h *StockDocHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.uc.CancelDocument)
}

type transitionFunc func(ctx context.Context, tenantID, actor, docID string) (*dto.StockDocResponse, error)

func (h *StockDocHandler) transition(c *fiber.Ctx, fn transitionFunc) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	out, err := fn(c.Context(), tenantID, userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Diario de movimientos del documento
// @Tags         stock-docs
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.StockMovementListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-docs/{id}/movements [get]
func (h *StockDocHandler) Movements(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.ListMovements(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockMovementListResponse{Total: len(out), Movements: out})
}

// PDF godoc
// @Summary      Descargar el documento en PDF
// @Tags         stock-docs
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-docs/{id}/pdf [get]
func (h *StockDocHandler) PDF(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	id := c.Params("id")
	out, err := h.uc.PrintDocument(c.Context(), tenantID, id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="stock-doc-`+id+`.pdf"`)
	return c.Send(out)
}
