// handlers_upload_test.go - Tests for upload handlers
package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/gliffy-migrator/backend/internal/models"
	"github.com/gliffy-migrator/backend/internal/testutil"
)

func TestUploadHandler_HandleUploadFile(t *testing.T) {
	tests := []struct {
		name       string
		request    uploadFileRequest
		wantStatus int
		wantErr    bool
		errCode    string
	}{
		{
			name: "valid diagram upload",
			request: uploadFileRequest{
				Name: "flowchart.gliffy",
				Data: base64.StdEncoding.EncodeToString([]byte(`{"stage": {"objects": []}}`)),
			},
			wantStatus: http.StatusCreated,
			wantErr:    false,
		},
		{
			name: "empty name",
			request: uploadFileRequest{
				Name: "",
				Data: base64.StdEncoding.EncodeToString([]byte("content")),
			},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name: "empty data",
			request: uploadFileRequest{
				Name: "flowchart.gliffy",
				Data: "",
			},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name: "invalid base64",
			request: uploadFileRequest{
				Name: "flowchart.gliffy",
				Data: "not-valid-base64!!!",
			},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "BAD_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			store := testutil.NewMockStorage()
			handler := NewUploadHandler(store)

			e := echo.New()
			body, _ := json.Marshal(tt.request)
			req := httptest.NewRequest(http.MethodPost, "/api/files/upload", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			// Execute
			err := handler.HandleUploadFile(c)

			// Assert
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
					return
				}
				apiErr, ok := err.(*APIError)
				if !ok {
					t.Errorf("expected APIError, got %T", err)
					return
				}
				if apiErr.Status != tt.wantStatus {
					t.Errorf("expected status %d, got %d", tt.wantStatus, apiErr.Status)
				}
				if apiErr.Code != tt.errCode {
					t.Errorf("expected error code %s, got %s", tt.errCode, apiErr.Code)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if rec.Code != tt.wantStatus {
					t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
				}

				var response models.FileInfo
				if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
					t.Errorf("failed to unmarshal response: %v", err)
					return
				}
				if response.ID == "" {
					t.Error("expected non-empty ID in response")
				}
				if response.Name != tt.request.Name {
					t.Errorf("expected name %s, got %s", tt.request.Name, response.Name)
				}
			}
		})
	}
}

func TestUploadHandler_HandleGetRecentFiles(t *testing.T) {
	store := testutil.NewMockStorage()
	store.AddFile("f1", "flowchart.gliffy", []byte("{}"))
	store.AddFile("f2", "network.gliffy", []byte("{}"))
	store.AddFile("f3", "flowchart.excalidraw", []byte("{}"))
	handler := NewUploadHandler(store)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/files/recent", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.HandleGetRecentFiles(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var files []*models.FileInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &files); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 files after filtering, got %d", len(files))
	}
	for _, f := range files {
		if f.Name == "flowchart.excalidraw" {
			t.Error("conversion output should be filtered out")
		}
	}
}

func TestUploadHandler_HandleGetFile(t *testing.T) {
	store := testutil.NewMockStorage()
	store.AddFile("f1", "flowchart.gliffy", []byte("{}"))
	handler := NewUploadHandler(store)
	e := echo.New()

	t.Run("existing file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("f1")

		if err := handler.HandleGetFile(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var response models.FileInfo
		if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if response.Name != "flowchart.gliffy" {
			t.Errorf("expected name flowchart.gliffy, got %s", response.Name)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("missing")

		err := handler.HandleGetFile(c)
		apiErr, ok := err.(*APIError)
		if !ok {
			t.Fatalf("expected APIError, got %T", err)
		}
		if apiErr.Status != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", apiErr.Status)
		}
	})
}

func TestUploadHandler_HandleDeleteFile(t *testing.T) {
	store := testutil.NewMockStorage()
	store.AddFile("f1", "flowchart.gliffy", []byte("{}"))
	handler := NewUploadHandler(store)

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("f1")

	if err := handler.HandleDeleteFile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rec.Code)
	}
	if store.GetFileCount() != 0 {
		t.Errorf("expected 0 files after delete, got %d", store.GetFileCount())
	}
}

func TestUploadHandler_HandleRenameFile(t *testing.T) {
	store := testutil.NewMockStorage()
	store.AddFile("f1", "old.gliffy", []byte("{}"))
	handler := NewUploadHandler(store)

	e := echo.New()
	body, _ := json.Marshal(renameFileRequest{Name: "new.gliffy"})
	req := httptest.NewRequest(http.MethodPut, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("f1")

	if err := handler.HandleRenameFile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var response models.FileInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Name != "new.gliffy" {
		t.Errorf("expected name new.gliffy, got %s", response.Name)
	}
}

func TestFilterDiagramFiles(t *testing.T) {
	files := []*models.FileInfo{
		{ID: "1", Name: "a.gliffy"},
		{ID: "2", Name: "a.excalidraw"},
		{ID: "3", Name: "B.EXCALIDRAW"},
		{ID: "4", Name: "raw.json"},
	}

	got := filterDiagramFiles(files)
	if len(got) != 2 {
		t.Fatalf("expected 2 files, got %d", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "4" {
		t.Errorf("unexpected filter result: %v, %v", got[0].ID, got[1].ID)
	}
}
