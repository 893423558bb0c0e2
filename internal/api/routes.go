// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/gliffy-migrator/backend/internal/convert"
	"github.com/gliffy-migrator/backend/internal/inventory"
	"github.com/gliffy-migrator/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store       storage.Store
	SessionMgr  SessionManager
	Inventory   *inventory.Store
	MappingPath string
	ConvertOpts convert.Options
	Version     string
	BuildTime   string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Upload    UploadHandler
	Convert   ConvertHandler
	TIDs      TIDHandler
	Inventory InventoryHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.BuildTime),
		Upload:    NewUploadHandler(deps.Store),
		Convert:   NewConvertHandler(deps.Store, deps.SessionMgr, deps.ConvertOpts),
		TIDs:      NewTIDHandler(deps.MappingPath),
		Inventory: NewInventoryHandler(deps.Inventory),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/health", handlers.Health.HandleHealth)

	// File upload routes
	uploadGroup := e.Group("/api/files")
	uploadGroup.POST("/upload", handlers.Upload.HandleUploadFile)
	uploadGroup.POST("/upload/binary", handlers.Upload.HandleUploadBinary)
	uploadGroup.GET("/recent", handlers.Upload.HandleGetRecentFiles)
	uploadGroup.GET("/:id", handlers.Upload.HandleGetFile)
	uploadGroup.DELETE("/:id", handlers.Upload.HandleDeleteFile)
	uploadGroup.PUT("/:id", handlers.Upload.HandleRenameFile)

	// Conversion session routes
	convertGroup := e.Group("/api/convert")
	convertGroup.POST("", handlers.Convert.HandleStartConvert)
	convertGroup.POST("/direct", handlers.Convert.HandleConvertDirect)
	convertGroup.GET("/:sessionId/status", handlers.Convert.HandleConvertStatus)
	convertGroup.POST("/:sessionId/keepalive", handlers.Convert.HandleSessionKeepAlive)
	convertGroup.GET("/:sessionId/result", handlers.Convert.HandleDownloadResult)

	// TID mapping routes
	tidGroup := e.Group("/api/tids")
	tidGroup.GET("/mapping", handlers.TIDs.HandleGetMapping)
	tidGroup.PUT("/mapping", handlers.TIDs.HandleUpdateMapping)

	// Scan inventory routes
	invGroup := e.Group("/api/inventory")
	invGroup.GET("/summary", handlers.Inventory.HandleGetSummary)
	invGroup.GET("/pages", handlers.Inventory.HandleGetPages)
	invGroup.GET("/pages/msgpack", handlers.Inventory.HandleGetPagesMsgpack)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler
}
