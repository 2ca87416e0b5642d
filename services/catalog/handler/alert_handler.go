package handler

import (
	"context"
	"fmt"
	"net/http"

	model "buyme/internal/models"
	"buyme/services/catalog/helpers"
	"buyme/utils"

	"github.com/gin-gonic/gin"
)

type AlertServiceInterface interface {
	CreateAlert(ctx context.Context, userID string, raw map[string]any) (*model.Alert, error)
	ListAlerts(ctx context.Context, userID string) ([]model.Alert, error)
	RunAlerts(ctx context.Context) (int, error)
}

type AlertHandler struct {
	service AlertServiceInterface
}

func NewAlertHandler(service AlertServiceInterface) *AlertHandler {
	return &AlertHandler{service: service}
}

// CreateAlertHandler handles POST /alerts
func (h *AlertHandler) CreateAlertHandler(c *gin.Context) {
	var req helpers.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAlertHandler", err)
		return
	}

	alert, err := h.service.CreateAlert(c.Request.Context(), req.UserID, req.Criteria)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateAlertHandler: failed to create alert", map[string]any{
			"user_id": req.UserID,
			"error":   err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, alert, "alert created successfully")
	helpers.LogSuccess("CreateAlertHandler", "alert created successfully", map[string]any{
		"alert_id": alert.AlertID,
		"user_id":  alert.UserID,
	})
}

// ListAlertsHandler handles GET /users/:user_id/alerts
func (h *AlertHandler) ListAlertsHandler(c *gin.Context) {
	userID := c.Param("user_id")
	alerts, err := h.service.ListAlerts(c.Request.Context(), userID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListAlertsHandler: error retrieving alerts", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}

	if alerts == nil {
		alerts = []model.Alert{}
	}
	utils.JSONResponse(c, http.StatusOK, alerts, "alerts retrieved successfully")
}

// RunAlertsHandler handles POST /admin/alerts/run
func (h *AlertHandler) RunAlertsHandler(c *gin.Context) {
	matched, err := h.service.RunAlerts(c.Request.Context())
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("RunAlertsHandler: alert run failed", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.RunAlertsResponse{Matched: matched}, "alerts evaluated successfully")
	helpers.LogSuccess("RunAlertsHandler", "alerts evaluated successfully", map[string]any{"matched": matched})
}
