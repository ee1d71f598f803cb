package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/propdesk/portal/internal/models"
	"github.com/propdesk/portal/internal/mykafka"
)

// CatalogHandler is the admin surface for modules, contents and the
// content-to-product attachment rows the access checker reads.
type CatalogHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *CatalogHandler) CreateModule(c echo.Context) error {
	var req struct {
		ProductID        uint   `json:"product_id"`
		Title            string `json:"title"`
		Position         int    `json:"position"`
		ImmediateAccess  bool   `json:"immediate_access"`
		ReleaseAfterDays *int   `json:"release_after_days"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title required")
	}
	if req.ReleaseAfterDays != nil && *req.ReleaseAfterDays < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "release_after_days must not be negative")
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	module := models.Module{
		ProductID:        product.ID,
		Title:            req.Title,
		Position:         req.Position,
		ImmediateAccess:  req.ImmediateAccess,
		ReleaseAfterDays: req.ReleaseAfterDays,
	}
	if err := h.DB.Create(&module).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "product_events", fmt.Sprint(product.ID), map[string]any{
		"type":      "module_created",
		"productID": product.ID,
		"moduleID":  module.ID,
	})

	return c.JSON(http.StatusCreated, module)
}

func (h *CatalogHandler) PatchModule(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req struct {
		Title            *string `json:"title"`
		Position         *int    `json:"position"`
		ImmediateAccess  *bool   `json:"immediate_access"`
		ReleaseAfterDays *int    `json:"release_after_days"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var module models.Module
	if err := h.DB.First(&module, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "module not found")
	}

	if req.Title != nil {
		module.Title = *req.Title
	}
	if req.Position != nil {
		module.Position = *req.Position
	}
	if req.ImmediateAccess != nil {
		module.ImmediateAccess = *req.ImmediateAccess
	}
	if req.ReleaseAfterDays != nil {
		if *req.ReleaseAfterDays < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "release_after_days must not be negative")
		}
		module.ReleaseAfterDays = req.ReleaseAfterDays
	}

	if err := h.DB.Save(&module).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "product_events", fmt.Sprint(module.ProductID), map[string]any{
		"type":      "module_updated",
		"productID": module.ProductID,
		"moduleID":  module.ID,
	})

	return c.JSON(http.StatusOK, module)
}

func (h *CatalogHandler) DeleteModule(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	if err := h.DB.Delete(&models.Module{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) CreateContent(c echo.Context) error {
	var req struct {
		Title string `json:"title"`
		Type  string `json:"type"`
		Path  string `json:"path"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Title == "" || req.Path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and path required")
	}
	switch req.Type {
	case models.ContentFile, models.ContentVideo, models.ContentArticle:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown content type")
	}

	content := models.Content{
		Title: req.Title,
		Type:  req.Type,
		Path:  req.Path,
	}
	if err := h.DB.Create(&content).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, content)
}

func (h *CatalogHandler) DeleteContent(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	if err := h.DB.Where("content_id = ?", id).Delete(&models.ProductContent{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.DB.Delete(&models.Content{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// AttachContent links a content item to a product, optionally inside one of
// that product's modules.
func (h *CatalogHandler) AttachContent(c echo.Context) error {
	var req struct {
		ProductID uint  `json:"product_id"`
		ContentID uint  `json:"content_id"`
		ModuleID  *uint `json:"module_id"`
		Position  int   `json:"position"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	var content models.Content
	if err := h.DB.First(&content, req.ContentID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "content not found")
	}
	if req.ModuleID != nil {
		var module models.Module
		if err := h.DB.First(&module, *req.ModuleID).Error; err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "module not found")
		}
		if module.ProductID != product.ID {
			return echo.NewHTTPError(http.StatusBadRequest, "module belongs to another product")
		}
	}

	assoc := models.ProductContent{
		ProductID: req.ProductID,
		ContentID: req.ContentID,
		ModuleID:  req.ModuleID,
		Position:  req.Position,
	}
	if err := h.DB.Create(&assoc).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, assoc)
}

func (h *CatalogHandler) DetachContent(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	if err := h.DB.Delete(&models.ProductContent{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
