// Package v1 provides HTTP API version 1.
package v1

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"everpack/internal/core/id"
	"everpack/internal/core/numerator"
	"everpack/internal/core/security"
	"everpack/internal/domain"
	"everpack/internal/domain/alerts"
	"everpack/internal/domain/audit"
	"everpack/internal/domain/auth"
	"everpack/internal/domain/catalogs/category"
	"everpack/internal/domain/catalogs/customer"
	"everpack/internal/domain/catalogs/product"
	"everpack/internal/domain/catalogs/supplier"
	"everpack/internal/domain/documents"
	"everpack/internal/domain/documents/bulkorder"
	"everpack/internal/domain/documents/sale"
	"everpack/internal/domain/registers/stock"
	"everpack/internal/domain/reports"
	"everpack/internal/domain/targets"
	"everpack/internal/infrastructure/http/v1/handlers"
	"everpack/internal/infrastructure/http/v1/middleware"
	"everpack/internal/infrastructure/storage/postgres"
	"everpack/internal/infrastructure/storage/postgres/catalog_repo"
	"everpack/internal/infrastructure/storage/postgres/document_repo"
	"everpack/internal/infrastructure/storage/postgres/register_repo"
	"everpack/internal/infrastructure/storage/postgres/report_repo"
	"everpack/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (health checks, outbox)
	Pool *postgres.Pool

	// TxManager runs every repository call
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Numerator for document number generation
	Numerator numerator.Generator

	// IdempotencyEnabled enables the Idempotency-Key middleware
	IdempotencyEnabled bool

	// IdempotencyTTL bounds how long completed keys replay (default 10m)
	IdempotencyTTL time.Duration

	// CORSOrigins lists allowed origins; empty allows all
	CORSOrigins []string

	// AuditEnabled records catalog create/update/delete to the audit trail
	AuditEnabled bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Metrics())
	router.Use(corsMiddleware(cfg.CORSOrigins))
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health and metrics endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Domain services are built once; repositories run every call through
	// the shared transaction manager.
	svcs := buildServices(cfg)

	// API v1
	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		protected.Use(middleware.UserContext())

		if cfg.IdempotencyEnabled {
			ttl := cfg.IdempotencyTTL
			if ttl <= 0 {
				ttl = 10 * time.Minute
			}
			store := postgres.NewIdempotencyStore(cfg.TxManager, ttl)
			protected.Use(middleware.Idempotency(store))
		}

		registerCatalogRoutes(protected, svcs)
		registerStockRoutes(protected, svcs)
		registerAlertRoutes(protected, svcs)
		registerSaleRoutes(protected, svcs)
		registerBulkOrderRoutes(protected, svcs)
		registerTargetRoutes(protected, svcs)
		registerReportRoutes(protected, svcs)
		registerAuditRoutes(protected, svcs)
		registerUserRoutes(protected, cfg)
	}

	return router
}

// services bundles the wired domain layer for route registration.
type services struct {
	categories *category.Service
	suppliers  *supplier.Service
	customers  *customer.Service
	products   *product.Service
	stock      *stock.Service
	alerts     *alerts.Service
	sales      *sale.Service
	bulkOrders *bulkorder.Service
	targets    *targets.Service
	reports    *reports.Service
	audit      *postgres.AuditService
}

// buildServices wires repositories and services. The dependency order
// mirrors the posting flow: catalog -> ledger -> alerts -> documents.
func buildServices(cfg RouterConfig) *services {
	txm := cfg.TxManager
	events := postgres.NewOutboxPublisher(txm)

	var auditService *postgres.AuditService
	if cfg.AuditEnabled {
		if svc, err := postgres.NewAuditService(txm); err == nil {
			auditService = svc
		}
	}
	// A nil *AuditService must stay a nil audit.Recorder interface value,
	// so the document services see their auditor as absent.
	var auditor audit.Recorder
	if auditService != nil {
		auditor = auditService
	}

	// Catalogs
	categoryRepo := catalog_repo.NewCategoryRepo(txm)
	categoryService := category.NewService(categoryRepo, txm, cfg.Numerator)

	supplierRepo := catalog_repo.NewSupplierRepo(txm)
	supplierService := supplier.NewService(supplierRepo, txm, cfg.Numerator)

	customerRepo := catalog_repo.NewCustomerRepo(txm)
	customerService := customer.NewService(customerRepo, txm, cfg.Numerator)

	productRepo := catalog_repo.NewProductRepo(txm)
	productService := product.NewService(productRepo, txm)

	// Stock ledger and alert evaluation. The alert service reads stock
	// straight from the ledger repo; the stock service calls the alert
	// service after every movement, inside the same transaction.
	stockRepo := register_repo.NewStockRepo(txm)
	alertRepo := register_repo.NewAlertRepo(txm)
	alertService := alerts.NewService(alertRepo, productService, stockRepo, events)
	stockService := stock.NewService(stockRepo, productService, alertService, txm)

	// Documents
	saleRepo := document_repo.NewSaleRepo(txm)
	saleService := sale.NewService(sale.ServiceConfig{
		Repo:      saleRepo,
		Customers: customerService,
		Products:  productService,
		Ledger:    stockService,
		Numerator: cfg.Numerator,
		TxManager: txm,
		Events:    events,
		Audit:     auditor,
	})

	bulkOrderRepo := document_repo.NewBulkOrderRepo(txm)
	bulkOrderService := bulkorder.NewService(bulkorder.ServiceConfig{
		Repo:      bulkOrderRepo,
		Pricing:   documents.NewPriceResolver(productService),
		Sales:     saleService,
		Numerator: cfg.Numerator,
		TxManager: txm,
		Events:    events,
		Audit:     auditor,
	})

	// Targets and reports
	targetRepo := document_repo.NewTargetRepo(txm)
	targetService := targets.NewService(targetRepo, saleRepo)

	reportRepo := report_repo.NewReportRepo(txm)
	reportService := reports.NewService(reportRepo)

	if auditService != nil {
		registerCatalogAudit(categoryService.Hooks(), auditService, "category", func(e *category.Category) id.ID { return e.ID })
		registerCatalogAudit(supplierService.Hooks(), auditService, "supplier", func(e *supplier.Supplier) id.ID { return e.ID })
		registerCatalogAudit(customerService.Hooks(), auditService, "customer", func(e *customer.Customer) id.ID { return e.ID })
		registerCatalogAudit(productService.Hooks(), auditService, "product", func(e *product.Product) id.ID { return e.ID })
	}

	return &services{
		categories: categoryService,
		suppliers:  supplierService,
		customers:  customerService,
		products:   productService,
		stock:      stockService,
		alerts:     alertService,
		sales:      saleService,
		bulkOrders: bulkOrderService,
		targets:    targetService,
		reports:    reportService,
		audit:      auditService,
	}
}

// registerCatalogAudit records catalog mutations to the audit trail.
// Hook failures only log; the entity change itself already committed.
func registerCatalogAudit[T any](hooks *domain.HookRegistry[T], trail *postgres.AuditService, entityType string, entityID func(T) id.ID) {
	logEntry := func(action postgres.AuditAction) domain.Hook[T] {
		return func(ctx context.Context, e T) error {
			changes, err := json.Marshal(e)
			if err != nil {
				return err
			}
			return trail.Log(ctx, postgres.AuditEntry{
				EntityType: entityType,
				EntityID:   entityID(e),
				Action:     action,
				Changes:    changes,
			})
		}
	}

	hooks.OnAfterCreate(logEntry(postgres.AuditActionCreate))
	hooks.OnAfterUpdate(logEntry(postgres.AuditActionUpdate))
	hooks.OnAfterDelete(logEntry(postgres.AuditActionDelete))
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	if len(origins) > 0 {
		corsCfg.AllowOrigins = origins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", middleware.HeaderIdempotencyKey)
	return cors.New(corsCfg)
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	// Public auth endpoints (no JWT required)
	publicAuth := rg.Group("/auth")

	// Protected auth endpoints (JWT required)
	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))
	protectedAuth.Use(middleware.UserContext())

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerCatalogRoutes registers catalog CRUD endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, svcs *services) {
	baseHandler := handlers.NewBaseHandler()

	// --- CATEGORIES ---
	{
		handler := handlers.NewCategoryHandler(baseHandler, svcs.categories)
		RegisterCatalogRoutes(rg.Group("/categories"), handler,
			security.PermCategoriesRead, security.PermCategoriesWrite, security.PermCategoriesWrite)
	}

	// --- SUPPLIERS ---
	{
		handler := handlers.NewSupplierHandler(baseHandler, svcs.suppliers)
		RegisterCatalogRoutes(rg.Group("/suppliers"), handler,
			security.PermSuppliersRead, security.PermSuppliersWrite, security.PermSuppliersWrite)
	}

	// --- CUSTOMERS ---
	{
		handler := handlers.NewCustomerHandler(baseHandler, svcs.customers)
		customers := rg.Group("/customers")
		RegisterCatalogRoutes(customers, handler,
			security.PermCustomersRead, security.PermCustomersWrite, security.PermCustomersWrite)
		customers.GET("/:id/balances", middleware.RequirePermission(security.PermCustomersRead), handler.GetBalances)
	}

	// --- PRODUCTS ---
	{
		handler := handlers.NewProductHandler(baseHandler, svcs.products, svcs.stock)
		products := rg.Group("/products")
		RegisterCatalogRoutes(products, handler,
			security.PermProductsRead, security.PermProductsWrite, security.PermProductsDelete)
		products.GET("/low-stock", middleware.RequirePermission(security.PermProductsRead), handler.LowStock)
		products.GET("/:id/stock", middleware.RequirePermission(security.PermProductsRead), handler.GetStock)
		products.GET("/:id/movements", middleware.RequirePermission(security.PermMovementsRead), handler.GetMovements)
	}
}

// registerStockRoutes registers stock ledger endpoints.
func registerStockRoutes(rg *gin.RouterGroup, svcs *services) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewStockHandler(baseHandler, svcs.stock)

	stockGroup := rg.Group("/stock")
	stockGroup.POST("/movements", middleware.RequirePermission(security.PermMovementsWrite), handler.RecordMovement)
	stockGroup.GET("/movements", middleware.RequirePermission(security.PermMovementsRead), handler.GetMovements)
	stockGroup.GET("/levels", middleware.RequirePermission(security.PermMovementsRead), handler.GetLevels)
	stockGroup.GET("/turnover", middleware.RequirePermission(security.PermMovementsRead), handler.GetTurnover)
}

// registerAlertRoutes registers stock alert endpoints.
func registerAlertRoutes(rg *gin.RouterGroup, svcs *services) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewAlertHandler(baseHandler, svcs.alerts)

	alertGroup := rg.Group("/alerts")
	alertGroup.GET("", middleware.RequirePermission(security.PermAlertsRead), handler.List)
	alertGroup.POST("/:id/resolve", middleware.RequirePermission(security.PermAlertsWrite), handler.Resolve)
	alertGroup.POST("/sweep", middleware.RequirePermission(security.PermAlertsWrite), handler.Sweep)
}

// registerSaleRoutes registers sale document endpoints.
func registerSaleRoutes(rg *gin.RouterGroup, svcs *services) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewSaleHandler(baseHandler, svcs.sales)

	salesGroup := rg.Group("/sales")
	salesGroup.GET("", middleware.RequirePermission(security.PermSalesRead), handler.List)
	salesGroup.POST("", middleware.RequirePermission(security.PermSalesWrite), handler.Create)
	salesGroup.GET("/by-number/:number", middleware.RequirePermission(security.PermSalesRead), handler.GetByNumber)
	salesGroup.GET("/:id", middleware.RequirePermission(security.PermSalesRead), handler.Get)
	salesGroup.PUT("/:id", middleware.RequirePermission(security.PermSalesWrite), handler.Update)
	salesGroup.DELETE("/:id", middleware.RequirePermission(security.PermSalesDelete), handler.Delete)

	salesGroup.POST("/:id/items", middleware.RequirePermission(security.PermSalesWrite), handler.AddItem)
	salesGroup.PUT("/:id/items/:itemId", middleware.RequirePermission(security.PermSalesWrite), handler.UpdateItem)
	salesGroup.DELETE("/:id/items/:itemId", middleware.RequirePermission(security.PermSalesWrite), handler.RemoveItem)

	salesGroup.POST("/:id/payments", middleware.RequirePermission(security.PermSalesWrite), handler.RecordPayment)
	salesGroup.GET("/:id/payments", middleware.RequirePermission(security.PermSalesRead), handler.GetPayments)
	salesGroup.GET("/:id/profit", middleware.RequirePermission(security.PermSalesRead), handler.GetProfit)
}

// registerBulkOrderRoutes registers bulk order endpoints.
func registerBulkOrderRoutes(rg *gin.RouterGroup, svcs *services) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewBulkOrderHandler(baseHandler, svcs.bulkOrders)

	orders := rg.Group("/bulk-orders")
	orders.GET("", middleware.RequirePermission(security.PermBulkOrdersRead), handler.List)
	orders.POST("", middleware.RequirePermission(security.PermBulkOrdersWrite), handler.Create)
	orders.GET("/:id", middleware.RequirePermission(security.PermBulkOrdersRead), handler.Get)
	orders.PUT("/:id", middleware.RequirePermission(security.PermBulkOrdersWrite), handler.Update)
	orders.DELETE("/:id", middleware.RequirePermission(security.PermBulkOrdersWrite), handler.Delete)

	orders.POST("/:id/items", middleware.RequirePermission(security.PermBulkOrdersWrite), handler.AddItem)
	orders.PUT("/:id/items/:itemId", middleware.RequirePermission(security.PermBulkOrdersWrite), handler.UpdateItem)
	orders.DELETE("/:id/items/:itemId", middleware.RequirePermission(security.PermBulkOrdersWrite), handler.RemoveItem)

	orders.POST("/:id/submit", middleware.RequirePermission(security.PermBulkOrdersWrite), handler.Submit)
	orders.POST("/:id/process", middleware.RequirePermission(security.PermBulkOrdersWrite), handler.MarkProcessing)
	orders.POST("/:id/cancel", middleware.RequirePermission(security.PermBulkOrdersWrite), handler.Cancel)
	orders.POST("/:id/convert", middleware.RequirePermission(security.PermSalesWrite), handler.Convert)
}

// registerTargetRoutes registers sales target endpoints.
func registerTargetRoutes(rg *gin.RouterGroup, svcs *services) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewTargetHandler(baseHandler, svcs.targets)

	targetsGroup := rg.Group("/targets")
	targetsGroup.GET("", middleware.RequirePermission(security.PermTargetsRead), handler.List)
	targetsGroup.POST("", middleware.RequirePermission(security.PermTargetsWrite), handler.Create)
	targetsGroup.GET("/:id", middleware.RequirePermission(security.PermTargetsRead), handler.Get)
	targetsGroup.PUT("/:id", middleware.RequirePermission(security.PermTargetsWrite), handler.Update)
	targetsGroup.DELETE("/:id", middleware.RequirePermission(security.PermTargetsWrite), handler.Delete)
	targetsGroup.GET("/:id/achievement", middleware.RequirePermission(security.PermTargetsRead), handler.GetAchievement)
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, svcs *services) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewReportsHandler(baseHandler, svcs.reports)

	reportsGroup := rg.Group("/reports")
	reportsGroup.Use(middleware.RequirePermission(security.PermReportsRead))
	reportsGroup.GET("/dashboard", handler.Dashboard)
	reportsGroup.GET("/sales-chart", handler.SalesChart)
	reportsGroup.GET("/sales", handler.SalesSummary)
	reportsGroup.GET("/sales/export", handler.ExportSales)
	reportsGroup.GET("/inventory", handler.Inventory)
	reportsGroup.GET("/inventory/export", handler.ExportInventory)
}

// registerAuditRoutes registers the audit trail history endpoint. Skipped
// when auditing is disabled.
func registerAuditRoutes(rg *gin.RouterGroup, svcs *services) {
	if svcs.audit == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewAuditHandler(baseHandler, svcs.audit)

	auditGroup := rg.Group("/audit")
	auditGroup.GET("/:entityType/:entityId", middleware.RequirePermission(security.PermAuditRead), handler.History)
}

// registerUserRoutes registers admin-only user management endpoints.
func registerUserRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	users := rg.Group("/users")
	users.Use(middleware.RequirePermission(security.PermUsersAdmin))
	users.GET("", handler.ListUsers)
	users.POST("", handler.CreateUser)
	users.GET("/:id", handler.GetUser)
	users.PUT("/:id", handler.UpdateUser)
	users.DELETE("/:id", handler.DeleteUser)
}
