package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gliffy-migrator/backend/internal/api"
	"github.com/gliffy-migrator/backend/internal/config"
	"github.com/gliffy-migrator/backend/internal/convert"
	"github.com/gliffy-migrator/backend/internal/inventory"
	"github.com/gliffy-migrator/backend/internal/session"
	"github.com/gliffy-migrator/backend/internal/storage"
	"github.com/gliffy-migrator/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "GliffyMigrator.config.xml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// Initialize storage
	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}

	// Load TID overrides up front so a broken mapping fails the start,
	// not the first conversion.
	overrides, err := convert.LoadOverrides(cfg.Converter.MappingPath, cfg.Converter.ImagesDirectory)
	if err != nil {
		fmt.Printf("Failed to load TID mapping: %v\n", err)
		os.Exit(1)
	}
	convertOpts := convert.Options{
		Overrides: overrides,
		Seed:      cfg.Converter.Seed,
		Pretty:    cfg.Converter.Pretty,
	}

	// Initialize session manager
	sessionMgr := session.NewManager(convertOpts)

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sessionMgr.CleanupOldSessions(session.SessionMaxAge)
		}
	}()

	// An inventory database is optional; the endpoints report
	// unavailable until a scan has produced one.
	var invStore *inventory.Store
	if _, err := os.Stat(cfg.Storage.InventoryPath); err == nil {
		invStore, err = inventory.OpenStore(cfg.Storage.InventoryPath)
		if err != nil {
			fmt.Printf("Warning: failed to open inventory database: %v\n", err)
		} else {
			defer invStore.Close()
			fmt.Printf("Loaded scan inventory with %d pages\n", invStore.Len())
		}
	}

	e := echo.New()
	e.HideBanner = true

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/status") || path == "/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.Contains(path, "/upload") || strings.Contains(path, "/convert")
		},
		ErrorMessage: "Request timeout",
	}))

	e.Use(middleware.Gzip())
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	// API routes
	api.SetupMiddleware(e)
	handlers := api.NewHandlers(&api.Dependencies{
		Store:       fileStore,
		SessionMgr:  sessionMgr,
		Inventory:   invStore,
		MappingPath: cfg.Converter.MappingPath,
		ConvertOpts: convertOpts,
		Version:     Version,
		BuildTime:   BuildTime,
	})
	api.RegisterRoutes(e, handlers)

	// Embedded UI
	if web.HasEmbeddedFiles() {
		if err := web.RegisterStaticRoutes(e); err != nil {
			fmt.Printf("Warning: failed to register static routes: %v\n", err)
		}
	}

	addr := cfg.GetServerAddr()
	fmt.Printf("Gliffy Migrator %s (built %s) listening on %s\n", Version, BuildTime, addr)
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		fmt.Printf("Server error: %v\n", err)
		os.Exit(1)
	}
}
