package handlers

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/propdesk/portal/internal/access"
	"github.com/propdesk/portal/internal/models"
)

type CourseHandler struct {
	DB        *gorm.DB
	Checker   *access.Checker
	JWTSecret []byte
}

// MyCourses lists the courses the user currently holds valid access to.
func (h *CourseHandler) MyCourses(c echo.Context) error {
	userID, _, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	products, err := h.Checker.Store.ListValidEntitlements(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	courses := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Type == models.ProductCourse {
			courses = append(courses, p)
		}
	}

	return c.JSON(http.StatusOK, courses)
}

type moduleView struct {
	ID        uint             `json:"id"`
	Title     string           `json:"title"`
	Position  int              `json:"position"`
	Unlocked  bool             `json:"unlocked"`
	UnlocksAt *time.Time       `json:"unlocks_at,omitempty"`
	Contents  []models.Content `json:"contents,omitempty"`
}

// Course renders one course page: the whole-course gate runs on the slug, and
// the module list hides content of modules that have not dripped out yet.
// Locked modules surface only their title and future unlock date.
func (h *CourseHandler) Course(c echo.Context) error {
	userID, role, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	slug := c.Param("slug")
	decision, err := h.Checker.Check(userID, role, access.Query{ProductSlug: slug})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !decision.Allowed() {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	var product models.Product
	if err := h.DB.Where("slug = ?", slug).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// admins pass the slug gate even for unknown slugs
			return echo.NewHTTPError(http.StatusNotFound, "course not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	moduleAccess, err := h.Checker.AccessibleModules(userID, product.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	views := make([]moduleView, 0, len(moduleAccess))
	for _, ma := range moduleAccess {
		view := moduleView{
			ID:       ma.Module.ID,
			Title:    ma.Module.Title,
			Position: ma.Module.Position,
			Unlocked: ma.Unlocked || role == models.RoleAdmin,
		}
		if ma.UnlocksAt != nil {
			view.UnlocksAt = ma.UnlocksAt
		}
		if view.Unlocked {
			contents, err := h.moduleContents(product.ID, ma.Module.ID)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			view.Contents = contents
		}
		views = append(views, view)
	}

	unmoduled, err := h.unmoduledContents(product.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"course":   product,
		"modules":  views,
		"contents": unmoduled,
	})
}

func (h *CourseHandler) moduleContents(productID, moduleID uint) ([]models.Content, error) {
	var assocs []models.ProductContent
	err := h.DB.Where("product_id = ? AND module_id = ?", productID, moduleID).Find(&assocs).Error
	if err != nil {
		return nil, err
	}
	return h.resolveContents(assocs)
}

func (h *CourseHandler) unmoduledContents(productID uint) ([]models.Content, error) {
	var assocs []models.ProductContent
	err := h.DB.Where("product_id = ? AND module_id IS NULL", productID).Find(&assocs).Error
	if err != nil {
		return nil, err
	}
	return h.resolveContents(assocs)
}

func (h *CourseHandler) resolveContents(assocs []models.ProductContent) ([]models.Content, error) {
	sort.SliceStable(assocs, func(i, j int) bool { return assocs[i].Position < assocs[j].Position })

	contents := make([]models.Content, 0, len(assocs))
	for _, a := range assocs {
		var content models.Content
		if err := h.DB.First(&content, a.ContentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, nil
}
