package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"lapakda/internal/infrastructure/storage"
	"lapakda/internal/usecase"
	"lapakda/pkg/errors"
	"lapakda/pkg/response"
)

type FileHandler struct {
	fileUseCase *usecase.FileUseCase
}

func NewFileHandler(fileUseCase *usecase.FileUseCase) *FileHandler {
	return &FileHandler{
		fileUseCase: fileUseCase,
	}
}

func (h *FileHandler) UploadFile(c echo.Context) error {
	upload, src, err := formFile(c, "file")
	if err != nil {
		return response.Error(c, err)
	}
	defer src.Close()

	url, err := h.fileUseCase.Upload(c.Request().Context(), getUserIDFromContext(c), c.FormValue("folder"), upload)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, map[string]string{
		"secure_url": url,
		"url":        url,
	})
}

// ServeMemoryFiles serves uploads kept by the in-memory file store, so
// DATA_STORE=memory runs can render the URLs they hand out.
func ServeMemoryFiles(store *storage.MemoryFileStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, ok := store.Object(c.Param("*"))
		if !ok {
			return response.Error(c, errors.NotFound("File", nil))
		}
		return c.Blob(http.StatusOK, http.DetectContentType(body), body)
	}
}
