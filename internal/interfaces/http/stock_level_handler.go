package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cilindros-api/internal/application/dto"
	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
)

// StockLevelHandler consultas del ledger, reservas y movimientos entre buckets (protegido).
type StockLevelHandler struct {
	uc *inventory.StockUseCase
}

// NewStockLevelHandler construye el handler.
func NewStockLevelHandler(uc *inventory.StockUseCase) *StockLevelHandler {
	return &StockLevelHandler{uc: uc}
}

// List godoc
// @Summary      Filas del ledger de una bodega
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  path   string  true   "Bodega"
// @Param        limit         query  int     false  "Límite"
// @Param        offset        query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.StockLevelListResponse
// @Router       /api/stock/warehouses/{warehouse_id}/levels [get]
func (h *StockLevelHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.uc.ListStockLevels(c.Context(), tenantID, c.Params("warehouse_id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Fila del ledger (bodega, variante, bucket)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  path   string  true   "Bodega"
// @Param        variant_id    path   string  true   "Variante"
// @Param        bucket        query  string  false  "ON_HAND por defecto"
// @Success      200  {object}  dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/warehouses/{warehouse_id}/variants/{variant_id} [get]
func (h *StockLevelHandler) Get(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetStockLevel(c.Context(), tenantID, c.Params("warehouse_id"), c.Params("variant_id"), entity.Bucket(c.Query("bucket")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen por buckets de una bodega+variante
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  path  string  true  "Bodega"
// @Param        variant_id    path  string  true  "Variante"
// @Success      200  {object}  dto.StockSummaryResponse
// @Router       /api/stock/warehouses/{warehouse_id}/variants/{variant_id}/summary [get]
func (h *StockLevelHandler) Summary(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetStockSummary(c.Context(), tenantID, c.Params("warehouse_id"), c.Params("variant_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Reserve godoc
// @Summary      Reservar stock disponible
// @Description  granted=false cuando el disponible no alcanza; no es un error.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveStockRequest  true  "warehouse_id, variant_id, bucket, quantity"
// @Success      200   {object}  dto.ReserveStockResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/stock/reservations [post]
func (h *StockLevelHandler) Reserve(c *fiber.Ctx) error {
	return h.reservation(c, h.uc.ReserveStock)
}

// Release godoc
// @Summary      Liberar una reserva
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveStockRequest  true  "warehouse_id, variant_id, bucket, quantity"
// @Success      200   {object}  dto.ReserveStockResponse
// @Router       /api/stock/reservations/release [post]
func (h *StockLevelHandler) Release(c *fiber.Ctx) error {
	return h.reservation(c, h.uc.ReleaseStockReservation)
}

func (h *StockLevelHandler) reservation(c *fiber.Ctx, fn func(ctx context.Context, tenantID, actor string, in dto.ReserveStockRequest) (*dto.ReserveStockResponse, error)) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ReserveStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := fn(c.Context(), tenantID, userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// TransferStatus godoc
// @Summary      Mover cantidad entre buckets de una bodega
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferStatusRequest  true  "from_bucket, to_bucket, quantity"
// @Success      200   {object}  dto.TransferStatusResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/status-transfers [post]
func (h *StockLevelHandler) TransferStatus(c *fiber.Ctx) error {
	tenantID, userID := GetTenantID(c), GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.TransferStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.TransferBetweenStatuses(c.Context(), tenantID, userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PurgeEmpty godoc
// @Summary      Eliminar filas vacías de una bodega (admin)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  path  string  true  "Bodega"
// @Success      200  {object}  dto.PurgeEmptyLevelsResponse
// @Router       /api/stock/warehouses/{warehouse_id}/empty-levels [delete]
func (h *StockLevelHandler) PurgeEmpty(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.PurgeEmptyLevels(c.Context(), tenantID, c.Params("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
