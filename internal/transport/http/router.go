package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/propdesk/portal/internal/handlers"
	"github.com/propdesk/portal/internal/service"
)

type Deps struct {
	DB                 *gorm.DB
	AuthHandler        *handlers.AuthHandler
	ProductHandler     *handlers.ProductHandler
	CatalogHandler     *handlers.CatalogHandler
	EntitlementHandler *handlers.EntitlementHandler
	ContentHandler     *handlers.ContentHandler
	CourseHandler      *handlers.CourseHandler
	ToolHandler        *handlers.ToolHandler
	SearchHandler      *handlers.SearchHandler
	ServiceHandler     *service.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)
	v1.GET("/search", d.SearchHandler.Search)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	member := v1.Group("", d.ServiceHandler.AutoRefreshMiddleware)
	member.GET("/courses", d.CourseHandler.MyCourses)
	member.GET("/courses/:slug", d.CourseHandler.Course)
	member.GET("/tools", d.ToolHandler.Tools)
	member.GET("/content/:id/download", d.ContentHandler.Download)

	admin := v1.Group("/admin", d.ServiceHandler.AutoRefreshMiddlewareAdmin)

	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)

	admin.POST("/modules", d.CatalogHandler.CreateModule)
	admin.PATCH("/modules/:id", d.CatalogHandler.PatchModule)
	admin.DELETE("/modules/:id", d.CatalogHandler.DeleteModule)

	admin.POST("/contents", d.CatalogHandler.CreateContent)
	admin.DELETE("/contents/:id", d.CatalogHandler.DeleteContent)
	admin.POST("/contents/attach", d.CatalogHandler.AttachContent)
	admin.DELETE("/contents/attach/:id", d.CatalogHandler.DetachContent)

	admin.POST("/entitlements", d.EntitlementHandler.Grant)
	admin.DELETE("/entitlements", d.EntitlementHandler.Revoke)
}
