package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/propdesk/portal/internal/access"
	"github.com/propdesk/portal/internal/models"
	"github.com/propdesk/portal/internal/mykafka"
)

// EntitlementHandler is the grant-side surface. The purchase/registration
// workflow and the admin panel both land here; this is the only mutation path
// into the entitlement and access-log tables.
type EntitlementHandler struct {
	DB       *gorm.DB
	Store    *access.Store
	Producer *mykafka.Producer
}

func (h *EntitlementHandler) Grant(c echo.Context) error {
	var req struct {
		UserID    uint       `json:"user_id"`
		ProductID uint       `json:"product_id"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var user models.User
	if err := h.DB.First(&user, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.Store.Grant(req.UserID, req.ProductID, req.ExpiresAt); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "entitlement_events", fmt.Sprint(req.UserID), map[string]any{
		"type":      "entitlement_granted",
		"userID":    req.UserID,
		"productID": req.ProductID,
		"expiresAt": req.ExpiresAt,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"user_id":    req.UserID,
		"product_id": req.ProductID,
		"expires_at": req.ExpiresAt,
	})
}

func (h *EntitlementHandler) Revoke(c echo.Context) error {
	var req struct {
		UserID    uint `json:"user_id"`
		ProductID uint `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	if err := h.Store.Revoke(req.UserID, req.ProductID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "entitlement_events", fmt.Sprint(req.UserID), map[string]any{
		"type":      "entitlement_revoked",
		"userID":    req.UserID,
		"productID": req.ProductID,
	})

	return c.NoContent(http.StatusNoContent)
}
