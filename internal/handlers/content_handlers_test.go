package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/propdesk/portal/internal/models"
)

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	require.Equal(t, code, he.Code)
}

func TestDownloadDenied(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("trader", models.RoleUser)

	product := env.createProduct("course-1", models.ProductCourse)
	env.createContent(product.ID, nil)

	_, c := env.doJSONRequest(http.MethodGet, "/api/v1/content/1/download", nil, env.accessCookie(user))
	c.SetParamNames("id")
	c.SetParamValues("1")

	requireHTTPError(t, env.Content.Download(c), http.StatusForbidden)
}

func TestDownloadGranted(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("trader", models.RoleUser)

	product := env.createProduct("course-1", models.ProductCourse)
	content := env.createContent(product.ID, nil)

	expiry := env.Clock.AddDate(0, 0, 30)
	require.NoError(t, env.Store.Grant(user.ID, product.ID, &expiry))

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/content/1/download", nil, env.accessCookie(user))
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, env.Content.Download(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID  uint   `json:"id"`
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, content.ID, resp.ID)
	require.Equal(t, content.Path, resp.URL)
}

func TestDownloadModuleLockedThenReleased(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("trader", models.RoleUser)

	product := env.createProduct("course-1", models.ProductCourse)
	module := models.Module{ProductID: product.ID, Title: "week 3", ReleaseAfterDays: intPtr(14)}
	require.NoError(t, env.DB.Create(&module).Error)
	env.createContent(product.ID, &module.ID)

	require.NoError(t, env.Store.Grant(user.ID, product.ID, nil))

	env.Clock = env.Clock.AddDate(0, 0, 10)
	_, c := env.doJSONRequest(http.MethodGet, "/api/v1/content/1/download", nil, env.accessCookie(user))
	c.SetParamNames("id")
	c.SetParamValues("1")
	requireHTTPError(t, env.Content.Download(c), http.StatusForbidden)

	env.Clock = env.Clock.AddDate(0, 0, 4)
	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/content/1/download", nil, env.accessCookie(user))
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Content.Download(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDownloadAdminBypass(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("boss", models.RoleAdmin)

	product := env.createProduct("course-1", models.ProductCourse)
	env.createContent(product.ID, nil)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/content/1/download", nil, env.accessCookie(admin))
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, env.Content.Download(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDownloadNoCookie(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodGet, "/api/v1/content/1/download", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")

	requireHTTPError(t, env.Content.Download(c), http.StatusUnauthorized)
}
