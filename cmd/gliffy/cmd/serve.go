package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/gliffy-migrator/backend/internal/api"
	"github.com/gliffy-migrator/backend/internal/config"
	"github.com/gliffy-migrator/backend/internal/convert"
	"github.com/gliffy-migrator/backend/internal/inventory"
	"github.com/gliffy-migrator/backend/internal/session"
	"github.com/gliffy-migrator/backend/internal/storage"
	"github.com/gliffy-migrator/backend/internal/web"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the migration web UI and API",
	Long: `Start the HTTP server with the embedded upload-and-convert UI. This is
the same server as the standalone binary, configured from the same XML
file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return err
		}
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}

		fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
		if err != nil {
			return err
		}

		overrides, err := convert.LoadOverrides(cfg.Converter.MappingPath, cfg.Converter.ImagesDirectory)
		if err != nil {
			return err
		}
		convertOpts := convert.Options{
			Overrides: overrides,
			Seed:      cfg.Converter.Seed,
			Pretty:    cfg.Converter.Pretty,
		}

		sessionMgr := session.NewManager(convertOpts)
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				sessionMgr.CleanupOldSessions(session.SessionMaxAge)
			}
		}()

		var invStore *inventory.Store
		if _, err := os.Stat(cfg.Storage.InventoryPath); err == nil {
			if invStore, err = inventory.OpenStore(cfg.Storage.InventoryPath); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to open inventory database: %v\n", err)
				invStore = nil
			} else {
				defer invStore.Close()
			}
		}

		e := echo.New()
		e.HideBanner = true
		e.Use(middleware.Logger())
		e.Use(middleware.Recover())
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

		api.SetupMiddleware(e)
		handlers := api.NewHandlers(&api.Dependencies{
			Store:       fileStore,
			SessionMgr:  sessionMgr,
			Inventory:   invStore,
			MappingPath: cfg.Converter.MappingPath,
			ConvertOpts: convertOpts,
			Version:     "cli",
			BuildTime:   "unknown",
		})
		api.RegisterRoutes(e, handlers)

		if web.HasEmbeddedFiles() {
			if err := web.RegisterStaticRoutes(e); err != nil {
				return err
			}
		}

		addr := cfg.GetServerAddr()
		fmt.Printf("Listening on %s\n", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "GliffyMigrator.config.xml", "path to the XML configuration file")
}
