package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ok(c *gin.Context) {
	c.String(http.StatusOK, c.FullPath())
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	invoices := NewDomainGroup("invoices", "/invoices").
		POST("/export/pdf", ok).
		POST("/layout", ok)
	jobs := NewDomainGroup("export-jobs", "/export-jobs").
		GET("", ok).
		GET("/:id", ok)

	NewRouter(engine).Register(invoices).Register(jobs).Setup()

	w := serve(engine, http.MethodPost, "/api/v1/invoices/export/pdf")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/v1/invoices/export/pdf", w.Body.String())

	w = serve(engine, http.MethodGet, "/api/v1/export-jobs/abc")
	assert.Equal(t, "/api/v1/export-jobs/:id", w.Body.String())

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/export-jobs").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/invoices/export/pdf").Code)
}

func TestDomainGroupMiddleware(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("invoices", "/invoices").
		Use(nil, func(c *gin.Context) {
			c.Header("X-Group", "invoices")
			c.Next()
		}).
		POST("/layout", ok)
	other := NewDomainGroup("export-jobs", "/export-jobs").GET("", ok)

	NewRouter(engine).Register(group).Register(other).Setup()

	assert.Equal(t, "invoices", serve(engine, http.MethodPost, "/api/v1/invoices/layout").Header().Get("X-Group"))
	assert.Empty(t, serve(engine, http.MethodGet, "/api/v1/export-jobs").Header().Get("X-Group"))
	assert.Len(t, group.middleware, 1)
}

func TestDomainGroupAccessors(t *testing.T) {
	group := NewDomainGroup("export-jobs", "/export-jobs")
	assert.Equal(t, "export-jobs", group.Name())
	assert.Equal(t, "/export-jobs", group.Prefix())
}
