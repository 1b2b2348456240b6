package ginserver

import (
	_ "embed"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

//go:embed swagger/openapi.json
var openAPIDocument []byte

//go:embed swagger/index.html
var docsPage string

const openAPIPath = "/docs/openapi.json"

// registerDocsRoutes serves the OpenAPI document and a Swagger UI page
// pointing at it.
func registerDocsRoutes(router gin.IRoutes) {
	page := []byte(strings.ReplaceAll(docsPage, "{{SPEC_URL}}", openAPIPath))
	router.GET(openAPIPath, func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache")
		c.Data(http.StatusOK, "application/json", openAPIDocument)
	})
	router.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})
}
