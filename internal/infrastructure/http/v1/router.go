// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"beneficio/internal/domain/auth"
	"beneficio/internal/domain/bodega"
	"beneficio/internal/domain/catacion"
	"beneficio/internal/domain/lote"
	"beneficio/internal/domain/mezcla"
	"beneficio/internal/domain/partida"
	"beneficio/internal/domain/procesado"
	"beneficio/internal/domain/venta"
	"beneficio/internal/infrastructure/http/v1/handlers"
	"beneficio/internal/infrastructure/http/v1/middleware"
	"beneficio/internal/infrastructure/storage/postgres"
	"beneficio/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks).
	Pool *postgres.Pool

	// TxManager runs every write in a transaction.
	TxManager *postgres.TxManager

	// Logger for request logging.
	Logger *logger.Logger

	// JWTValidator for token validation.
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints.
	AuthService *auth.Service

	// AuditService records entity changes and serves their history.
	AuditService *postgres.AuditService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(cfg.AuthService)

		// Public auth endpoints
		v1.POST("/auth/login", authHandler.Login)

		// Everything else requires a valid token
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerAuthRoutes(protected, authHandler)
		registerDomainRoutes(protected, cfg)
		registerAdminRoutes(protected, cfg)
	}

	return router
}

// registerAuthRoutes registers the protected account endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	rg.GET("/auth/me", authHandler.Me)
	rg.POST("/auth/change-password", authHandler.ChangePassword)

	admin := rg.Group("", middleware.RequireAdmin())
	admin.POST("/auth/register", authHandler.Register)
	admin.GET("/users", authHandler.ListUsers)
	admin.POST("/users/:id/deactivate", authHandler.DeactivateUser)
}

// registerDomainRoutes wires repositories, services and handlers for the
// processing domain.
func registerDomainRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	txm := cfg.TxManager
	alloc := postgres.NewSequenceAllocator(txm)
	auditRec := cfg.AuditService

	// Repositories double as the cross-stage availability readers.
	partidaRepo := postgres.NewPartidaRepo(txm)
	subPartidaRepo := postgres.NewSubPartidaRepo(txm)
	movimientoRepo := postgres.NewMovimientoRepo(txm)
	loteRepo := postgres.NewLoteRepo(txm)
	reciboRepo := postgres.NewReciboRepo(txm)
	procesadoRepo := postgres.NewProcesadoRepo(txm)
	reprocesoRepo := postgres.NewReprocesoRepo(txm)
	mezclaRepo := postgres.NewMezclaRepo(txm)
	detalleRepo := postgres.NewDetalleRepo(txm)
	ventaRepo := postgres.NewVentaRepo(txm)
	fuenteRepo := postgres.NewFuenteRepo(txm)
	bodegaRepo := postgres.NewBodegaRepo(txm)
	catacionRepo := postgres.NewCatacionRepo(txm)
	defectoRepo := postgres.NewDefectoRepo(txm)

	// --- PARTIDAS ---
	{
		service := partida.NewService(partidaRepo, subPartidaRepo, movimientoRepo, alloc, txm, auditRec)
		h := handlers.NewPartidaHandler(service)

		rg.POST("/partidas", h.Create)
		rg.GET("/partidas", h.List)
		rg.GET("/partidas/:id", h.Get)
		rg.POST("/partidas/:id/deactivate", h.Deactivate)
		rg.POST("/partidas/:id/subpartidas", h.CreateSubPartida)
		rg.GET("/partidas/:id/subpartidas", h.ListSubPartidas)

		rg.GET("/subpartidas/:id", h.GetSubPartida)
		rg.PATCH("/subpartidas/:id", h.UpdateSubPartida)
		rg.POST("/subpartidas/:id/deactivate", h.DeactivateSubPartida)
		rg.POST("/subpartidas/:id/movimientos", h.CreateMovimiento)
		rg.GET("/subpartidas/:id/movimientos", h.ListMovimientos)
		rg.DELETE("/movimientos/:id", h.DeleteMovimiento)
	}

	// --- LOTES ---
	{
		service := lote.NewService(loteRepo, reciboRepo, procesadoRepo, alloc, txm, auditRec)
		h := handlers.NewLoteHandler(service)

		rg.POST("/lotes", h.Create)
		rg.GET("/lotes", h.List)
		rg.GET("/lotes/:id", h.Get)
		rg.PATCH("/lotes/:id", h.Update)
		rg.POST("/lotes/:id/deactivate", h.Deactivate)
		rg.POST("/lotes/:id/recibos", h.AddRecibo)
		rg.GET("/lotes/:id/recibos", h.ListRecibos)
		rg.DELETE("/recibos/:id", h.DeleteRecibo)
	}

	// --- PROCESADOS ---
	{
		service := procesado.NewService(procesadoRepo, reprocesoRepo, loteRepo, procesadoRepo, alloc, txm, auditRec)
		h := handlers.NewProcesadoHandler(service)

		rg.POST("/lotes/:id/procesados", h.Create)
		rg.GET("/lotes/:id/procesados", h.ListByLote)
		rg.GET("/procesados/:id", h.Get)
		rg.POST("/procesados/:id/deactivate", h.Deactivate)
		rg.POST("/procesados/:id/reprocesos", h.CreateReproceso)
		rg.GET("/procesados/:id/reprocesos", h.ListReprocesos)
		rg.POST("/reprocesos/:id/deactivate", h.DeactivateReproceso)
	}

	// --- MEZCLAS ---
	{
		service := mezcla.NewService(mezclaRepo, detalleRepo, loteRepo, procesadoRepo, alloc, txm, auditRec)
		h := handlers.NewMezclaHandler(service)

		rg.POST("/mezclas", h.Create)
		rg.GET("/mezclas", h.List)
		rg.GET("/mezclas/:id", h.Get)
		rg.POST("/mezclas/:id/deactivate", h.Deactivate)
		rg.POST("/mezclas/:id/detalles", h.AddDetalle)
		rg.PATCH("/detalles/:id", h.ResizeDetalle)
		rg.DELETE("/detalles/:id", h.RemoveDetalle)
	}

	// --- VENTAS ---
	{
		service := venta.NewService(ventaRepo, fuenteRepo, txm, auditRec)
		h := handlers.NewVentaHandler(service)

		rg.POST("/ventas", h.Create)
		rg.GET("/ventas", h.List)
		rg.GET("/ventas/:id", h.Get)
		rg.POST("/ventas/:id/deactivate", h.Deactivate)
		rg.GET("/exportaciones", h.ListExportaciones)
	}

	// --- BODEGAS ---
	{
		service := bodega.NewService(bodegaRepo, loteRepo, txm, auditRec)
		h := handlers.NewBodegaHandler(service)

		rg.POST("/bodegas", h.Create)
		rg.GET("/bodegas", h.List)
		rg.GET("/bodegas/:id", h.Get)
		rg.PATCH("/bodegas/:id", h.Update)
	}

	// --- CATACIONES ---
	{
		service := catacion.NewService(catacionRepo, defectoRepo, txm, auditRec)
		h := handlers.NewCatacionHandler(service)

		rg.POST("/cataciones", h.Create)
		rg.GET("/cataciones", h.ListByMuestra)
		rg.GET("/cataciones/:id", h.Get)
		rg.PUT("/cataciones/:id/puntajes", h.UpdatePuntajes)
		rg.POST("/cataciones/:id/defectos", h.AddDefecto)
	}
}

// registerAdminRoutes registers admin-only endpoints.
func registerAdminRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	admin := rg.Group("", middleware.RequireAdmin())

	auditHandler := handlers.NewAuditHandler(cfg.AuditService)
	admin.GET("/audit/:entityType/:id", auditHandler.History)
}
