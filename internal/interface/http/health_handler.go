package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/joshuaoni/user-management-dashboard/pkg/response"
)

// Check pings one dependency.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	Checks  []Check
	Timeout time.Duration
	Logger  *logrus.Logger
}

func NewHealthHandler(logger *logrus.Logger, checks ...Check) *HealthHandler {
	return &HealthHandler{Checks: checks, Timeout: 2 * time.Second, Logger: logger}
}

type healthData struct {
	Checks map[string]string `json:"checks"`
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	results := make(map[string]string, len(h.Checks))
	healthy := true
	for _, chk := range h.Checks {
		if err := chk.Ping(ctx); err != nil {
			healthy = false
			results[chk.Name] = "unavailable"
			h.Logger.WithError(err).WithField("check", chk.Name).Warn("health check failed")
			continue
		}
		results[chk.Name] = "ok"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, response.APIResponse[healthData]{
			Status:    response.StatusError,
			RequestID: c.GetString("request_id"),
			Message:   "Service unavailable",
			Data:      healthData{Checks: results},
		})
		return
	}
	response.Success(c, http.StatusOK, healthData{Checks: results})
}
