package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/propdesk/portal/internal/models"
)

func TestGrantAndRevokeEntitlement(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("trader", models.RoleUser)
	product := env.createProduct("scalping", models.ProductCourse)

	expiry := env.Clock.AddDate(0, 0, 30)
	body := map[string]any{
		"user_id":    user.ID,
		"product_id": product.ID,
		"expires_at": expiry.Format(time.RFC3339),
	}

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/entitlements", body)
	require.NoError(t, env.Entitlement.Grant(c))
	require.Equal(t, http.StatusOK, rec.Code)

	ok, err := env.Store.HasValidEntitlement(user.ID, product.ID)
	require.NoError(t, err)
	require.True(t, ok)

	anchor, err := env.Store.AccessDate(user.ID, product.ID)
	require.NoError(t, err)
	require.NotNil(t, anchor)

	revokeBody := map[string]any{
		"user_id":    user.ID,
		"product_id": product.ID,
	}
	rec, c = env.doJSONRequest(http.MethodDelete, "/api/v1/admin/entitlements", revokeBody)
	require.NoError(t, env.Entitlement.Revoke(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	ok, err = env.Store.HasValidEntitlement(user.ID, product.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGrantUnknownUserOrProduct(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct("scalping", models.ProductCourse)

	body := map[string]any{"user_id": 999, "product_id": product.ID}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/entitlements", body)
	requireHTTPError(t, env.Entitlement.Grant(c), http.StatusNotFound)

	user := env.createUser("trader", models.RoleUser)
	body = map[string]any{"user_id": user.ID, "product_id": 999}
	_, c = env.doJSONRequest(http.MethodPost, "/api/v1/admin/entitlements", body)
	requireHTTPError(t, env.Entitlement.Grant(c), http.StatusNotFound)
}

func TestCreateProductAndModule(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"slug":  "scalping",
		"type":  "course",
		"name":  "Scalping Course",
		"price": 199.0,
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/products", body)
	require.NoError(t, env.Product.CreateProduct(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var prod models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prod))
	require.Equal(t, "scalping", prod.Slug)

	moduleBody := map[string]any{
		"product_id":         prod.ID,
		"title":              "week 2",
		"position":           1,
		"release_after_days": 14,
	}
	rec, c = env.doJSONRequest(http.MethodPost, "/api/v1/admin/modules", moduleBody)
	require.NoError(t, env.Catalog.CreateModule(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var module models.Module
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &module))
	require.Equal(t, prod.ID, module.ProductID)
	require.NotNil(t, module.ReleaseAfterDays)
	require.Equal(t, 14, *module.ReleaseAfterDays)
	require.False(t, module.ImmediateAccess)
}

func TestCreateProductRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{"slug": "x", "type": "bundle", "name": "X"}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/products", body)
	requireHTTPError(t, env.Product.CreateProduct(c), http.StatusBadRequest)
}

func TestAttachContentValidatesModuleOwnership(t *testing.T) {
	env := newTestEnv(t)

	first := env.createProduct("course-1", models.ProductCourse)
	second := env.createProduct("course-2", models.ProductCourse)

	module := models.Module{ProductID: first.ID, Title: "intro", ImmediateAccess: true}
	require.NoError(t, env.DB.Create(&module).Error)

	content := models.Content{Title: "lesson", Type: models.ContentVideo, Path: "/v/1.mp4"}
	require.NoError(t, env.DB.Create(&content).Error)

	body := map[string]any{
		"product_id": second.ID,
		"content_id": content.ID,
		"module_id":  module.ID,
	}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/contents/attach", body)
	requireHTTPError(t, env.Catalog.AttachContent(c), http.StatusBadRequest)

	body["product_id"] = first.ID
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/contents/attach", body)
	require.NoError(t, env.Catalog.AttachContent(c))
	require.Equal(t, http.StatusCreated, rec.Code)
}
