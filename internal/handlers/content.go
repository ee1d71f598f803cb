package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/propdesk/portal/internal/access"
	"github.com/propdesk/portal/internal/models"
	"github.com/propdesk/portal/internal/mykafka"
)

// ContentHandler gates content delivery. A denied request gets a bare 403
// with no content metadata; a storage fault gets a 500, never a denial.
type ContentHandler struct {
	DB        *gorm.DB
	Checker   *access.Checker
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func (h *ContentHandler) Download(c echo.Context) error {
	userID, role, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	decision, err := h.Checker.Check(userID, role, access.Query{ContentID: uint(id)})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !decision.Allowed() {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	var content models.Content
	if err := h.DB.First(&content, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "content_events", fmt.Sprint(userID), map[string]any{
		"type":      "content_accessed",
		"userID":    userID,
		"contentID": content.ID,
	})

	// Streaming and video-platform redirects live behind this URL; the
	// portal only decides and hands over the location.
	return c.JSON(http.StatusOK, echo.Map{
		"id":    content.ID,
		"title": content.Title,
		"type":  content.Type,
		"url":   content.Path,
	})
}
