// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"everpack/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for catalog handlers.
// All catalog handlers must implement these methods.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
	GetTree(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
// This eliminates the need to manually wire up routes for each catalog.
// Permissions follow the "{resource}:{action}" scheme from core/security;
// catalogs without a dedicated delete permission pass their write
// permission as deletePerm.
//
// Usage:
//
//	repo := catalog_repo.NewSupplierRepo(txManager)
//	service := supplier.NewService(repo, txManager, cfg.Numerator)
//	handler := handlers.NewSupplierHandler(baseHandler, service)
//	RegisterCatalogRoutes(catalogs.Group("/suppliers"), handler,
//		security.PermSuppliersRead, security.PermSuppliersWrite, security.PermSuppliersWrite)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, readPerm, writePerm, deletePerm string) {
	group.GET("", middleware.RequirePermission(readPerm), handler.List)
	group.POST("", middleware.RequirePermission(writePerm), handler.Create)
	group.GET("/tree", middleware.RequirePermission(readPerm), handler.GetTree)
	group.GET("/:id", middleware.RequirePermission(readPerm), handler.Get)
	group.PUT("/:id", middleware.RequirePermission(writePerm), handler.Update)
	group.DELETE("/:id", middleware.RequirePermission(deletePerm), handler.Delete)
	group.POST("/:id/deletion-mark", middleware.RequirePermission(deletePerm), handler.SetDeletionMark)
}
