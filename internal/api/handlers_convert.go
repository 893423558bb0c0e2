// handlers_convert.go - Conversion session handlers
package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gliffy-migrator/backend/internal/convert"
	"github.com/gliffy-migrator/backend/internal/storage"
)

// maxDirectPayload caps the inline conversion body at 32 MB.
const maxDirectPayload = 32 << 20

// ConvertHandlerImpl implements the ConvertHandler interface
type ConvertHandlerImpl struct {
	store      storage.Store
	sessionMgr SessionManager
	converter  *convert.Converter
}

// NewConvertHandler creates a new convert handler instance
func NewConvertHandler(store storage.Store, sessionMgr SessionManager, opts convert.Options) ConvertHandler {
	return &ConvertHandlerImpl{
		store:      store,
		sessionMgr: sessionMgr,
		converter:  convert.NewConverter(opts),
	}
}

// HandleStartConvert starts converting an uploaded file in the
// background and returns the session to poll.
func (h *ConvertHandlerImpl) HandleStartConvert(c echo.Context) error {
	var req startConvertRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.FileID == "" {
		return NewValidationError("fileId")
	}

	info, err := h.store.Get(req.FileID)
	if err != nil {
		return NewNotFoundError("file", req.FileID)
	}

	raw, err := h.store.Read(req.FileID)
	if err != nil {
		return NewInternalError("failed to read file", err)
	}

	h.store.SetStatus(req.FileID, "converting")
	sess := h.sessionMgr.StartSession(req.FileID, info.Name, raw)

	return c.JSON(http.StatusAccepted, sess)
}

// HandleConvertDirect converts a request body synchronously: Gliffy
// JSON in, Excalidraw JSON out.
func (h *ConvertHandlerImpl) HandleConvertDirect(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxDirectPayload+1))
	if err != nil {
		return NewBadRequestError("failed to read request body", err)
	}
	if len(raw) == 0 {
		return NewValidationError("body")
	}
	if len(raw) > maxDirectPayload {
		return NewBadRequestError("payload too large", nil)
	}

	out, result, err := h.converter.Convert(raw)
	if err != nil {
		return fromConversionError(err)
	}

	c.Response().Header().Set("X-Element-Count", fmt.Sprintf("%d", result.ElementCount))
	c.Response().Header().Set("X-Warning-Count", fmt.Sprintf("%d", len(result.Warnings)))
	return c.Blob(http.StatusOK, "application/json", out)
}

// HandleConvertStatus returns session metadata
func (h *ConvertHandlerImpl) HandleConvertStatus(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	sess, ok := h.sessionMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("session", id)
	}
	h.sessionMgr.TouchSession(id)

	return c.JSON(http.StatusOK, sess)
}

// HandleSessionKeepAlive refreshes a session's cleanup window
func (h *ConvertHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}
	if !h.sessionMgr.TouchSession(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleDownloadResult serves the converted document as a
// .excalidraw attachment.
func (h *ConvertHandlerImpl) HandleDownloadResult(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	sess, ok := h.sessionMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("session", id)
	}
	if sess.Status != "complete" {
		return NewConflictError(fmt.Sprintf("session is %s, not complete", sess.Status))
	}

	out, ok := h.sessionMgr.GetOutput(id)
	if !ok {
		return NewNotFoundError("result", id)
	}
	h.sessionMgr.TouchSession(id)

	name := strings.TrimSuffix(sess.FileName, ".gliffy")
	if name == "" {
		name = sess.FileID
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.excalidraw"`, name))
	return c.Blob(http.StatusOK, "application/json", out)
}

type startConvertRequest struct {
	FileID string `json:"fileId"`
}
