package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Cilindros-api/internal/application/dto"
	"github.com/jhoicas/Cilindros-api/internal/application/inventory"
	"github.com/jhoicas/Cilindros-api/internal/domain/repository"
	"github.com/jhoicas/Cilindros-api/internal/infrastructure/catalog"
	"github.com/jhoicas/Cilindros-api/internal/infrastructure/events"
	"github.com/jhoicas/Cilindros-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Cilindros-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Cilindros-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Cilindros-api/internal/interfaces/http"
	"github.com/jhoicas/Cilindros-api/pkg/config"
	"github.com/jhoicas/Cilindros-api/pkg/logger"
)

// stores repositorios y colaboradores que dependen del driver de almacenamiento.
type stores struct {
	txRunner   inventory.TxRunner
	levels     repository.StockLevelRepository
	docs       repository.StockDocRepository
	movements  repository.StockMovementRepository
	variants   repository.VariantRepository
	warehouses repository.WarehouseRepository
	access     inventory.AccessChecker
	close      func()
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) stores {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn().Msg("STORE_DRIVER=memory: el stock no sobrevive a un reinicio")
		s := memory.New()
		if cfg.Store.SeedFile != "" {
			seedCatalog(s, cfg.Store.SeedFile, log)
		}
		return stores{
			txRunner:   s.TxRunner(),
			levels:     s.StockLevels(),
			docs:       s.StockDocs(),
			movements:  s.StockMovements(),
			variants:   s.Variants(),
			warehouses: s.Warehouses(),
			access:     s.AccessChecker(),
			close:      func() {},
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	return stores{
		txRunner:   postgres.NewTxRunner(pool),
		levels:     postgres.NewStockLevelRepository(pool),
		docs:       postgres.NewStockDocRepository(pool),
		movements:  postgres.NewStockMovementRepository(pool),
		variants:   postgres.NewVariantRepository(pool),
		warehouses: postgres.NewWarehouseRepository(pool),
		access:     postgres.NewWarehouseAccessRepository(pool),
		close:      pool.Close,
	}
}

// seedCatalog carga bodegas, variantes y permisos en el store en memoria.
func seedCatalog(s *memory.Store, path string, log *logger.Logger) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("abrir catálogo")
	}
	defer f.Close()

	c, err := catalog.Load(f)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("cargar catálogo")
	}
	c.Apply(s)
	log.Info().
		Str("tenant_id", c.TenantID).
		Int("warehouses", len(c.Warehouses)).
		Int("variants", len(c.Variants)).
		Msg("catálogo cargado")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.Store.Driver).
		Str("events", cfg.Events.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st := openStores(ctx, cfg, log)
	defer st.close()

	publisher, err := events.New(ctx, cfg.Events, log.Component("events"))
	if err != nil {
		log.Fatal().Err(err).Msg("publicador de eventos")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar publicador de eventos")
		}
	}()

	validator := inventory.NewDocumentValidator(st.variants, st.warehouses, st.access)
	engine := inventory.NewPostingEngine(st.txRunner, validator, publisher, log.Component("posting"))
	documentUC := inventory.NewDocumentUseCase(st.txRunner, st.docs, st.movements, validator, engine, publisher, log.Component("documents"))
	documentUC.SetPrinter(infrapdf.NewStockDocPDFGenerator())
	stockUC := inventory.NewStockUseCase(st.txRunner, st.levels, st.access, publisher, log.Component("stock"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Cilindros API",
	}))

	app.Get("/health", httpRouter.HealthHandler(cfg.App.Name, cfg.Store.Driver, func() dto.EventsHealth {
		s := publisher.Stats()
		return dto.EventsHealth{Driver: s.Driver, Sent: s.Sent, Failed: s.Failed}
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		DocumentUC: documentUC,
		StockUC:    stockUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
