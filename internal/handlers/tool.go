package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/propdesk/portal/internal/access"
	"github.com/propdesk/portal/internal/models"
)

// ToolHandler gates the tools section by product type: the section exists for
// a user only while some tool entitlement is valid.
type ToolHandler struct {
	DB        *gorm.DB
	Checker   *access.Checker
	JWTSecret []byte
}

func (h *ToolHandler) Tools(c echo.Context) error {
	userID, role, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	decision, err := h.Checker.Check(userID, role, access.Query{ProductType: models.ProductTool})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !decision.Allowed() {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	if role == models.RoleAdmin {
		var tools []models.Product
		if err := h.DB.Where("type = ?", models.ProductTool).Find(&tools).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, tools)
	}

	products, err := h.Checker.Store.ListValidEntitlements(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	tools := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Type == models.ProductTool {
			tools = append(tools, p)
		}
	}

	return c.JSON(http.StatusOK, tools)
}
