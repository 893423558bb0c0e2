// handlers_tids.go - TID override mapping handlers
package api

import (
	"encoding/json"
	"net/http"
	"os"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/gliffy-migrator/backend/internal/tidscan"
)

// TIDHandlerImpl serves and updates the override mapping side-file.
type TIDHandlerImpl struct {
	mappingPath string
	mu          sync.Mutex
}

// NewTIDHandler creates a new TID mapping handler
func NewTIDHandler(mappingPath string) TIDHandler {
	return &TIDHandlerImpl{mappingPath: mappingPath}
}

// HandleGetMapping returns the current mapping; a missing side-file is
// an empty mapping, not an error.
func (h *TIDHandlerImpl) HandleGetMapping(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	raw, err := os.ReadFile(h.mappingPath)
	if os.IsNotExist(err) {
		return c.JSON(http.StatusOK, map[string]tidscan.TIDRecord{})
	}
	if err != nil {
		return NewInternalError("failed to read mapping", err)
	}

	var mapping map[string]tidscan.TIDRecord
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return NewInternalError("mapping file is corrupt", err)
	}
	return c.JSON(http.StatusOK, mapping)
}

// HandleUpdateMapping replaces the mapping side-file
func (h *TIDHandlerImpl) HandleUpdateMapping(c echo.Context) error {
	var mapping map[string]tidscan.TIDRecord
	if err := c.Bind(&mapping); err != nil {
		return NewBadRequestError("invalid mapping body", err)
	}

	out, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return NewInternalError("failed to encode mapping", err)
	}
	out = append(out, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := os.WriteFile(h.mappingPath, out, 0644); err != nil {
		return NewInternalError("failed to write mapping", err)
	}
	return c.JSON(http.StatusOK, map[string]int{"tids": len(mapping)})
}
