package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	DocumentUC *inventory.DocumentUseCase
	StockUC    *inventory.StockUseCase
	JWTSecret  string
}

// Router registra las rutas de la API. Todo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	anyRole := RequireRole(entity.RoleAdmin, entity.RoleBodeguero, entity.RoleVendedor)
	operators := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)
	adminOnly := RequireRole(entity.RoleAdmin)

	// Documentos de stock
	docs := api.Group("/stock-docs")
	docHandler := NewStockDocHandler(deps.DocumentUC)
	docs.Get("/", anyRole, docHandler.List)
	docs.Post("/", operators, docHandler.Create)
	docs.Get("/:id", anyRole, docHandler.GetByID)
	docs.Get("/:id/movements", anyRole, docHandler.Movements)
	docs.Get("/:id/pdf", anyRole, docHandler.PDF)
	docs.Post("/:id/lines", operators, docHandler.AddLine)
	docs.Put("/:id/lines", operators, docHandler.ReplaceLines)
	docs.Post("/:id/post", operators, docHandler.Post)
	docs.Post("/:id/ship", operators, docHandler.Ship)
	docs.Post("/:id/receive", operators, docHandler.Receive)
	docs.Post("/:id/cancel", operators, docHandler.Cancel)

	// Ledger
	stock := api.Group("/stock")
	levelHandler := NewStockLevelHandler(deps.StockUC)
	stock.Get("/warehouses/:warehouse_id/levels", anyRole, levelHandler.List)
	stock.Get("/warehouses/:warehouse_id/variants/:variant_id", anyRole, levelHandler.Get)
	stock.Get("/warehouses/:warehouse_id/variants/:variant_id/summary", anyRole, levelHandler.Summary)
	stock.Delete("/warehouses/:warehouse_id/empty-levels", adminOnly, levelHandler.PurgeEmpty)
	stock.Post("/reservations", anyRole, levelHandler.Reserve)
	stock.Post("/reservations/release", anyRole, levelHandler.Release)
	stock.Post("/status-transfers", operators, levelHandler.TransferStatus)
}
