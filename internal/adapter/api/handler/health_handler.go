package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"lapakda/pkg/response"
)

type HealthHandler struct {
	dataStore string
	startedAt time.Time
}

func NewHealthHandler(dataStore string) *HealthHandler {
	return &HealthHandler{
		dataStore: dataStore,
		startedAt: time.Now(),
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return response.Success(c, map[string]interface{}{
		"status":     "ok",
		"time":       time.Now().UTC().Format(time.RFC3339),
		"data_store": h.dataStore,
		"uptime":     time.Since(h.startedAt).Round(time.Second).String(),
	})
}
