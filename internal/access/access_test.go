package access

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/propdesk/portal/internal/config"
	"github.com/propdesk/portal/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	return db
}

func newTestStore(t *testing.T, now time.Time) (*Store, *time.Time) {
	t.Helper()

	clock := now
	store := &Store{
		DB:  newTestDB(t),
		Now: func() time.Time { return clock },
	}
	return store, &clock
}

func createProduct(t *testing.T, db *gorm.DB, slug, productType string) models.Product {
	t.Helper()

	p := models.Product{Slug: slug, Type: productType, Name: slug}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func createModule(t *testing.T, db *gorm.DB, productID uint, immediate bool, releaseAfterDays *int) models.Module {
	t.Helper()

	m := models.Module{
		ProductID:        productID,
		Title:            "module",
		ImmediateAccess:  immediate,
		ReleaseAfterDays: releaseAfterDays,
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func attachContent(t *testing.T, db *gorm.DB, productID uint, moduleID *uint) models.Content {
	t.Helper()

	content := models.Content{Title: "lesson", Type: models.ContentVideo, Path: "/videos/lesson.mp4"}
	require.NoError(t, db.Create(&content).Error)
	assoc := models.ProductContent{ProductID: productID, ContentID: content.ID, ModuleID: moduleID}
	require.NoError(t, db.Create(&assoc).Error)
	return content
}

func intPtr(v int) *int { return &v }
