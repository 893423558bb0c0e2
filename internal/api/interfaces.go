// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/gliffy-migrator/backend/internal/models"
)

// UploadHandler handles diagram file upload operations
type UploadHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleUploadBinary(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
	HandleRenameFile(c echo.Context) error
}

// ConvertHandler handles conversion session operations
type ConvertHandler interface {
	HandleStartConvert(c echo.Context) error
	HandleConvertDirect(c echo.Context) error
	HandleConvertStatus(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
	HandleDownloadResult(c echo.Context) error
}

// TIDHandler handles the TID override mapping
type TIDHandler interface {
	HandleGetMapping(c echo.Context) error
	HandleUpdateMapping(c echo.Context) error
}

// InventoryHandler serves the Confluence scan inventory
type InventoryHandler interface {
	HandleGetSummary(c echo.Context) error
	HandleGetPages(c echo.Context) error
	HandleGetPagesMsgpack(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionManager is the slice of the session manager the handlers
// need. This allows mocking in tests.
type SessionManager interface {
	StartSession(fileID, fileName string, raw []byte) *models.ConvertSession
	GetSession(id string) (*models.ConvertSession, bool)
	GetOutput(id string) ([]byte, bool)
	TouchSession(id string) bool
}
