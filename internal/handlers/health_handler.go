package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	activeSessions func() int
}

func NewHealthHandler(activeSessions func() int) *HealthHandler {
	return &HealthHandler{
		activeSessions: activeSessions,
	}
}

func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	resp := gin.H{"status": "ok"}
	if h.activeSessions != nil {
		resp["sessions"] = h.activeSessions()
	}
	c.JSON(http.StatusOK, resp)
}
