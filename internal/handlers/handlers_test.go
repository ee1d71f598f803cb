package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/propdesk/portal/internal/access"
	"github.com/propdesk/portal/internal/config"
	"github.com/propdesk/portal/internal/hash"
	"github.com/propdesk/portal/internal/models"
	"github.com/propdesk/portal/internal/service"
)

var (
	testJWTSecret     = []byte("test_jwt_secret")
	testRefreshSecret = []byte("test_refresh_secret")
)

type testEnv struct {
	T           *testing.T
	E           *echo.Echo
	DB          *gorm.DB
	Store       *access.Store
	Checker     *access.Checker
	Auth        *AuthHandler
	Product     *ProductHandler
	Catalog     *CatalogHandler
	Entitlement *EntitlementHandler
	Content     *ContentHandler
	Course      *CourseHandler
	Tool        *ToolHandler
	Clock       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	env := &testEnv{
		T:     t,
		E:     echo.New(),
		DB:    db,
		Clock: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}

	env.Store = &access.Store{DB: db, Now: func() time.Time { return env.Clock }}
	env.Checker = &access.Checker{Store: env.Store}

	env.Auth = &AuthHandler{DB: db, JWTSecret: testJWTSecret, RefreshSecret: testRefreshSecret}
	env.Product = &ProductHandler{DB: db}
	env.Catalog = &CatalogHandler{DB: db}
	env.Entitlement = &EntitlementHandler{DB: db, Store: env.Store}
	env.Content = &ContentHandler{DB: db, Checker: env.Checker, JWTSecret: testJWTSecret}
	env.Course = &CourseHandler{DB: db, Checker: env.Checker, JWTSecret: testJWTSecret}
	env.Tool = &ToolHandler{DB: db, Checker: env.Checker, JWTSecret: testJWTSecret}

	return env
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) createUser(username, role string) models.User {
	pwHash, err := hash.HashPassword("test_password")
	require.NoError(env.T, err)

	user := models.User{Username: username, PasswordHash: pwHash, Role: role}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return user
}

func (env *testEnv) accessCookie(user models.User) *http.Cookie {
	token, err := service.SignAccessToken(user.ID, user.Role, testJWTSecret)
	require.NoError(env.T, err)
	return &http.Cookie{Name: "accessToken", Value: token, Path: "/"}
}

func (env *testEnv) createProduct(slug, productType string) models.Product {
	p := models.Product{Slug: slug, Type: productType, Name: slug}
	require.NoError(env.T, env.DB.Create(&p).Error)
	return p
}

func (env *testEnv) createContent(productID uint, moduleID *uint) models.Content {
	content := models.Content{Title: "lesson", Type: models.ContentVideo, Path: "/videos/lesson.mp4"}
	require.NoError(env.T, env.DB.Create(&content).Error)
	assoc := models.ProductContent{ProductID: productID, ContentID: content.ID, ModuleID: moduleID}
	require.NoError(env.T, env.DB.Create(&assoc).Error)
	return content
}

func intPtr(v int) *int { return &v }
