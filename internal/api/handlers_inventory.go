// handlers_inventory.go - Confluence scan inventory handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gliffy-migrator/backend/internal/inventory"
)

// InventoryHandlerImpl serves summaries of a previous Confluence scan.
// The store is nil when no scan database has been produced yet.
type InventoryHandlerImpl struct {
	store *inventory.Store
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(store *inventory.Store) InventoryHandler {
	return &InventoryHandlerImpl{store: store}
}

func (h *InventoryHandlerImpl) ready() error {
	if h.store == nil {
		return NewServiceUnavailableError("no scan inventory available, run a scan first")
	}
	return nil
}

// HandleGetSummary returns aggregate scan counts
func (h *InventoryHandlerImpl) HandleGetSummary(c echo.Context) error {
	if err := h.ready(); err != nil {
		return err
	}
	sum, err := h.store.Summarize(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to summarize inventory", err)
	}
	return c.JSON(http.StatusOK, sum)
}

// HandleGetPages returns the scanned pages as JSON
func (h *InventoryHandlerImpl) HandleGetPages(c echo.Context) error {
	if err := h.ready(); err != nil {
		return err
	}
	pages, err := h.store.Pages(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to load pages", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"pages": pages,
		"total": len(pages),
	})
}

// HandleGetPagesMsgpack returns the scanned pages as msgpack, which is
// considerably smaller than JSON for large instances.
func (h *InventoryHandlerImpl) HandleGetPagesMsgpack(c echo.Context) error {
	if err := h.ready(); err != nil {
		return err
	}
	pages, err := h.store.Pages(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to load pages", err)
	}

	data, err := msgpack.Marshal(map[string]interface{}{
		"pages": pages,
		"total": len(pages),
	})
	if err != nil {
		return NewInternalError("failed to encode pages", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}
